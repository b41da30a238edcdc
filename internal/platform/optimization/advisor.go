package optimization

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/MRamiBalles/VeilleElectrique/internal/platform/logger"
)

// SnapshotSource reports metrics in the collector's snapshot layout.
type SnapshotSource interface {
	Snapshot() map[string]interface{}
}

// Advice is the latest review of the running profile.
type Advice struct {
	CheckedAt       time.Time        `json:"checked_at"`
	Profile         Config           `json:"profile"`
	Recommendations *Recommendations `json:"recommendations"`
	// Suggested is the profile with the recommendations applied. It takes
	// effect only after a restart with matching settings.
	Suggested Config `json:"suggested"`
}

// Advisor periodically runs Analyze over live metrics and logs new notes.
type Advisor struct {
	source  SnapshotSource
	profile Config
	logger  *logger.Logger

	mu   sync.Mutex
	last *Advice
}

// NewAdvisor reviews the given profile against source.
func NewAdvisor(source SnapshotSource, profile *Config, log *logger.Logger) *Advisor {
	if profile == nil {
		profile = DefaultConfig()
	}
	return &Advisor{source: source, profile: *profile, logger: log}
}

// Check analyzes the current metrics once. Notes are logged only when they
// differ from the previous check.
func (a *Advisor) Check() Advice {
	rec := Analyze(a.source.Snapshot())
	suggested := a.profile
	ApplyRecommendations(&suggested, rec)

	advice := Advice{
		CheckedAt:       time.Now(),
		Profile:         a.profile,
		Recommendations: rec,
		Suggested:       suggested,
	}

	a.mu.Lock()
	changed := a.last == nil || !slices.Equal(a.last.Recommendations.Notes, rec.Notes)
	a.last = &advice
	a.mu.Unlock()

	if changed {
		for _, note := range rec.Notes {
			a.logger.Warn("[ADVISOR] " + note)
		}
	}
	return advice
}

// Last returns the most recent advice, checking now if there is none.
func (a *Advisor) Last() Advice {
	a.mu.Lock()
	last := a.last
	a.mu.Unlock()
	if last == nil {
		return a.Check()
	}
	return *last
}

// Start checks every interval until ctx is cancelled. Call in a goroutine.
func (a *Advisor) Start(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = 30 * time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Check()
		}
	}
}

// Handler serves the latest advice as JSON.
func (a *Advisor) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		json.NewEncoder(w).Encode(a.Last())
	}
}
