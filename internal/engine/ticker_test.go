package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/VeilleElectrique/internal/platform/logger"
)

type stepLog struct {
	mu  sync.Mutex
	dts []float64
}

func (s *stepLog) Tick(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dts = append(s.dts, dt)
}

func (s *stepLog) steps() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.dts...)
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type latencyCount struct{ n int }

func (l *latencyCount) RecordTick(time.Duration) { l.n++ }

func TestCapStep(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.016, 0.016},
		{0.1, 0.1},
		{3, 0.1},
		{-1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CapStep(tt.in, 0.1))
	}
}

func TestTicker_FrameCapsWallTime(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	target := &stepLog{}
	obs := &latencyCount{}
	tk := NewTicker(target, logger.NewNop(), TickerOptions{Now: clock.Now, Observer: obs})

	require.True(t, tk.Frame())
	clock.advance(50 * time.Millisecond)
	tk.Frame()
	clock.advance(5 * time.Second)
	tk.Frame()

	steps := target.steps()
	require.Len(t, steps, 3)
	assert.Equal(t, 0.0, steps[0], "the first frame only sets the baseline")
	assert.InDelta(t, 0.05, steps[1], 1e-9)
	assert.Equal(t, DefaultMaxStep, steps[2])
	assert.Equal(t, int64(3), tk.Frames())
	assert.Equal(t, 3, obs.n)
}

// reentrant tries to run a frame from inside a frame.
type reentrant struct {
	tk     *Ticker
	nested bool
}

func (r *reentrant) Tick(float64) {
	if r.tk != nil {
		r.nested = r.tk.Frame()
	}
}

func TestTicker_DropsOverlappingFrames(t *testing.T) {
	target := &reentrant{}
	tk := NewTicker(target, logger.NewNop(), TickerOptions{})
	target.tk = tk

	assert.True(t, tk.Frame())
	assert.False(t, target.nested)
	assert.Equal(t, int64(1), tk.Skipped())
}

func TestTicker_StartStop(t *testing.T) {
	target := &stepLog{}
	tk := NewTicker(target, logger.NewNop(), TickerOptions{Interval: time.Millisecond})

	done := make(chan struct{})
	go func() {
		tk.Start(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool { return len(target.steps()) >= 3 }, time.Second, time.Millisecond)
	tk.Stop()
	tk.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ticker did not stop")
	}
}
