package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MRamiBalles/VeilleElectrique/internal/platform/logger"
)

// DefaultFrameInterval is the server-side frame cadence.
const DefaultFrameInterval = time.Second / 30

// DefaultMaxStep caps a single frame's dt in seconds so a stalled process
// cannot skip a whole stretch of the night in one step.
const DefaultMaxStep = 0.1

// Tickable is anything the ticker can drive. *Engine and the session both qualify.
type Tickable interface {
	Tick(dt float64)
}

// TickObserver receives the wall time each frame took.
type TickObserver interface {
	RecordTick(latency time.Duration)
}

// TickerOptions tunes the frame driver.
type TickerOptions struct {
	Interval time.Duration
	MaxStep  float64
	Observer TickObserver
	// Now is the frame clock. Tests inject a fake.
	Now func() time.Time
}

// Ticker turns wall time into capped dt steps.
// It does NOT know about adversaries or energy - only time progression.
type Ticker struct {
	target   Tickable
	logger   *logger.Logger
	opts     TickerOptions
	last     time.Time
	frames   atomic.Int64
	skipped  atomic.Int64
	inFlight atomic.Bool
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewTicker creates a frame driver for target.
func NewTicker(target Tickable, log *logger.Logger, opts TickerOptions) *Ticker {
	if opts.Interval <= 0 {
		opts.Interval = DefaultFrameInterval
	}
	if opts.MaxStep <= 0 {
		opts.MaxStep = DefaultMaxStep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Ticker{
		target:   target,
		logger:   log,
		opts:     opts,
		stopChan: make(chan struct{}),
	}
}

// Start runs the frame loop until ctx is cancelled or Stop is called.
// Call in a goroutine.
func (t *Ticker) Start(ctx context.Context) {
	t.logger.Info("Frame ticker started. The night is watching...")

	ticker := time.NewTicker(t.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Frame ticker stopped by context.")
			return
		case <-t.stopChan:
			t.logger.Info("Frame ticker stopped manually.")
			return
		case <-ticker.C:
			t.Frame()
		}
	}
}

// Stop gracefully stops the ticker. Safe to call more than once.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stopChan) })
}

// Frame advances the target by the capped time since the previous frame.
// The first frame only establishes the baseline. A frame that arrives while
// another is still running is dropped; it reports whether it ran.
func (t *Ticker) Frame() bool {
	if !t.inFlight.CompareAndSwap(false, true) {
		t.skipped.Add(1)
		return false
	}
	defer t.inFlight.Store(false)

	now := t.opts.Now()
	dt := 0.0
	if !t.last.IsZero() {
		dt = now.Sub(t.last).Seconds()
	}
	t.last = now
	dt = CapStep(dt, t.opts.MaxStep)

	start := time.Now()
	t.target.Tick(dt)
	t.frames.Add(1)
	if t.opts.Observer != nil {
		t.opts.Observer.RecordTick(time.Since(start))
	}
	return true
}

// Frames returns how many frames ran.
func (t *Ticker) Frames() int64 { return t.frames.Load() }

// Skipped returns how many frames were dropped by the reentrancy guard.
func (t *Ticker) Skipped() int64 { return t.skipped.Load() }

// CapStep bounds dt to [0, limit].
func CapStep(dt, limit float64) float64 {
	if dt < 0 || dt != dt {
		return 0
	}
	if dt > limit {
		return limit
	}
	return dt
}
