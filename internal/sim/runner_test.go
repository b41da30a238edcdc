package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/VeilleElectrique/internal/engine"
)

func TestPlayNight_Deterministic(t *testing.T) {
	cfg := engine.DefaultConfig()
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			a, _ := Lookup(name)
			b, _ := Lookup(name)
			first, err := PlayNight(cfg, 3, 42, a, 0)
			require.NoError(t, err)
			second, err := PlayNight(cfg, 3, 42, b, 0)
			require.NoError(t, err)
			assert.Equal(t, first, second)
			assert.NotEqual(t, engine.StatePlay, first.State)
		})
	}
}

func TestTurtle_SurvivesDefaultNights(t *testing.T) {
	cfg := engine.DefaultConfig()
	for night := 1; night <= 5; night++ {
		res, err := PlayNight(cfg, night, uint32(night), Turtle{}, 0.1)
		require.NoError(t, err)
		assert.True(t, res.Won(), "night %d", night)
		assert.False(t, res.Depleted)
		assert.Zero(t, res.Events[engine.EventJumpscare])
		assert.Greater(t, res.EnergyLeft, 0.0)
	}
}

func TestDoorsAndLights_ShutBeforeArrival(t *testing.T) {
	cfg := engine.DefaultConfig()
	for _, s := range []Strategy{Doors{}, Lights{}} {
		for night := 1; night <= 5; night++ {
			res, err := PlayNight(cfg, night, uint32(night*7), s, 0.1)
			require.NoError(t, err)
			if !res.Depleted {
				assert.Zero(t, res.Events[engine.EventJumpscare], "%s night %d", s.Name(), night)
			}
			if s.Name() == "doors" {
				assert.Zero(t, res.Events[engine.EventAdversaryRepelled], "doors never light a doorway")
			}
		}
	}
}

func TestTurtle_BlacksOutOnLongDrain(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.Tuning.DoorDrain = 40

	res, err := PlayNight(cfg, 1, 9, Turtle{}, 0.1)
	require.NoError(t, err)
	assert.True(t, res.Depleted)
	assert.Equal(t, 1, res.Events[engine.EventEnergyDepleted])
}

func TestWatcher_UsesTheCamera(t *testing.T) {
	res, err := PlayNight(engine.DefaultConfig(), 1, 5, &Watcher{Dwell: 5}, 0.1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Events[engine.EventCameraToggled], 1)
	assert.GreaterOrEqual(t, res.Events[engine.EventCameraSelected], 1)
}

func TestRun_CoversEveryNightAndSeed(t *testing.T) {
	results, err := Run(context.Background(), Options{
		Engine:   engine.DefaultConfig(),
		Nights:   []int{1, 5},
		Runs:     3,
		BaseSeed: 100,
		Step:     0.1,
		Parallel: 2,
	}, []string{"idle", "turtle"})
	require.NoError(t, err)
	require.Len(t, results, 12)

	summaries := Summarize(results)
	require.Len(t, summaries, 2)
	assert.Equal(t, "turtle", summaries[0].Strategy)
	assert.Equal(t, 6, summaries[0].Played)
	assert.Equal(t, 1.0, summaries[0].WinRate())
}

func TestRun_UnknownStrategy(t *testing.T) {
	_, err := Run(context.Background(), Options{Engine: engine.DefaultConfig()}, []string{"psychic"})
	assert.Error(t, err)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Options{Engine: engine.DefaultConfig()}, []string{"idle"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{Strategy: "b", State: engine.StateWin, Elapsed: 360, EnergyLeft: 40},
		{Strategy: "b", State: engine.StateGameOver, Elapsed: 120, EnergyLeft: 60, Culprit: "Errant-8"},
		{Strategy: "a", State: engine.StateGameOver, Elapsed: 30, Culprit: "Errant-8", Depleted: true},
	}

	got := Summarize(results)
	require.Len(t, got, 2)

	assert.Equal(t, "b", got[0].Strategy)
	assert.Equal(t, 2, got[0].Played)
	assert.Equal(t, 1, got[0].Won)
	assert.InDelta(t, 240.0, got[0].MeanElapsed, 1e-9)
	assert.InDelta(t, 50.0, got[0].MeanEnergy, 1e-9)
	assert.Equal(t, map[string]int{"Errant-8": 1}, got[0].Culprits)

	assert.Equal(t, "a", got[1].Strategy)
	assert.Equal(t, 1, got[1].Blackouts)
	assert.Zero(t, got[1].WinRate())
}

func TestLookup(t *testing.T) {
	assert.Equal(t, []string{"doors", "idle", "lights", "turtle", "watcher"}, Names())

	s, err := Lookup("doors")
	require.NoError(t, err)
	assert.Equal(t, "doors", s.Name())

	_, err = Lookup("nope")
	assert.Error(t, err)
}
