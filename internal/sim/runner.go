package sim

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/MRamiBalles/VeilleElectrique/internal/engine"
)

// DefaultStep is the simulated frame length in seconds.
const DefaultStep = 1.0 / 30

// Result is the outcome of one simulated night.
type Result struct {
	Strategy   string                   `json:"strategy"`
	Night      int                      `json:"night"`
	Seed       uint32                   `json:"seed"`
	State      engine.State             `json:"state"`
	Elapsed    float64                  `json:"elapsed"`
	EnergyLeft float64                  `json:"energy_left"`
	Culprit    string                   `json:"culprit,omitempty"`
	Depleted   bool                     `json:"depleted"`
	Events     map[engine.EventKind]int `json:"events"`
}

// Won reports whether the night was survived.
func (r Result) Won() bool { return r.State == engine.StateWin }

type counter map[engine.EventKind]int

func (c counter) Emit(ev engine.Event) { c[ev.Kind]++ }

// PlayNight runs one seeded night to its end with a fixed step.
func PlayNight(cfg engine.Config, night int, seed uint32, s Strategy, step float64) (Result, error) {
	if step <= 0 {
		step = DefaultStep
	}
	events := counter{}
	cfg.Emitter = events
	// Each night owns its adversaries; a shared override slice would leak state.
	cfg.Adversaries = nil

	e, err := engine.New(cfg)
	if err != nil {
		return Result{}, fmt.Errorf("play night %d: %w", night, err)
	}
	e.SetNight(night)
	e.StartNightSeeded(seed)

	// Guard against a tuning that never ends a night.
	limit := int(e.Snapshot().NightLength/step) + 10
	for i := 0; i < limit && e.State() == engine.StatePlay; i++ {
		s.Act(e.Snapshot(), e)
		e.Tick(step)
	}

	snap := e.Snapshot()
	return Result{
		Strategy:   s.Name(),
		Night:      snap.Night,
		Seed:       snap.Seed,
		State:      snap.State,
		Elapsed:    snap.Elapsed,
		EnergyLeft: snap.Energy,
		Culprit:    snap.Culprit,
		Depleted:   events[engine.EventEnergyDepleted] > 0,
		Events:     events,
	}, nil
}

// Options controls a batch run.
type Options struct {
	Engine engine.Config
	// Nights to play, all of them by default.
	Nights []int
	// Seeds per night; seed i is BaseSeed+i.
	Runs     int
	BaseSeed uint32
	Step     float64
	// Parallel bounds concurrent strategies; 0 means no limit.
	Parallel int
}

// Run plays every strategy over every night and seed. Strategies run
// concurrently, each on its own engines.
func Run(ctx context.Context, opts Options, strategies []string) ([]Result, error) {
	nights := opts.Nights
	if len(nights) == 0 {
		final := opts.Engine.Tuning.FinalNight
		if final == 0 {
			final = engine.DefaultTuning().FinalNight
		}
		for n := 1; n <= final; n++ {
			nights = append(nights, n)
		}
	}
	runs := opts.Runs
	if runs <= 0 {
		runs = 1
	}

	perStrategy := make([][]Result, len(strategies))
	g, ctx := errgroup.WithContext(ctx)
	if opts.Parallel > 0 {
		g.SetLimit(opts.Parallel)
	}
	for i, name := range strategies {
		if _, err := Lookup(name); err != nil {
			return nil, err
		}
		g.Go(func() error {
			out := make([]Result, 0, len(nights)*runs)
			for _, night := range nights {
				for r := 0; r < runs; r++ {
					if err := ctx.Err(); err != nil {
						return err
					}
					s, _ := Lookup(name)
					res, err := PlayNight(opts.Engine, night, opts.BaseSeed+uint32(r), s, opts.Step)
					if err != nil {
						return fmt.Errorf("%s: %w", name, err)
					}
					out = append(out, res)
				}
			}
			perStrategy[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Result
	for _, rs := range perStrategy {
		all = append(all, rs...)
	}
	return all, nil
}

// Summary aggregates the results of one strategy.
type Summary struct {
	Strategy    string         `json:"strategy"`
	Played      int            `json:"played"`
	Won         int            `json:"won"`
	Blackouts   int            `json:"blackouts"`
	MeanElapsed float64        `json:"mean_elapsed"`
	MeanEnergy  float64        `json:"mean_energy"`
	Culprits    map[string]int `json:"culprits"`
}

// WinRate returns Won/Played, or 0 for an empty summary.
func (s Summary) WinRate() float64 {
	if s.Played == 0 {
		return 0
	}
	return float64(s.Won) / float64(s.Played)
}

// Summarize groups results by strategy, sorted by win rate then name.
func Summarize(results []Result) []Summary {
	byName := map[string]*Summary{}
	for _, r := range results {
		s, ok := byName[r.Strategy]
		if !ok {
			s = &Summary{Strategy: r.Strategy, Culprits: map[string]int{}}
			byName[r.Strategy] = s
		}
		s.Played++
		if r.Won() {
			s.Won++
		}
		if r.Depleted {
			s.Blackouts++
		}
		if r.Culprit != "" {
			s.Culprits[r.Culprit]++
		}
		s.MeanElapsed += r.Elapsed
		s.MeanEnergy += r.EnergyLeft
	}

	out := make([]Summary, 0, len(byName))
	for _, s := range byName {
		s.MeanElapsed /= float64(s.Played)
		s.MeanEnergy /= float64(s.Played)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WinRate() != out[j].WinRate() {
			return out[i].WinRate() > out[j].WinRate()
		}
		return out[i].Strategy < out[j].Strategy
	})
	return out
}
