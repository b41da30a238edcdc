package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/VeilleElectrique/internal/engine"
	"github.com/MRamiBalles/VeilleElectrique/internal/events"
)

func TestBuildRecap_LatestAttemptOnly(t *testing.T) {
	at := time.Date(2026, 10, 31, 22, 0, 0, 0, time.UTC)
	evs := []events.GameEvent{
		cueEvent(t, 1, at, engine.Event{Kind: engine.EventNightStarted, Night: 1, Seed: 10}),
		cueEvent(t, 2, at, engine.Event{Kind: engine.EventJumpscare, Night: 1, Adversary: "Choc-Sentinelle", Side: "left", Elapsed: 40}),
		cueEvent(t, 3, at, engine.Event{Kind: engine.EventNightStarted, Night: 1, Seed: 11}),
		cueEvent(t, 4, at, engine.Event{Kind: engine.EventDoorToggled, Night: 1, Side: "right", Enabled: true, Elapsed: 3}),
		cueEvent(t, 5, at, engine.Event{Kind: engine.EventAdversaryMoved, Night: 1, Adversary: "Errant-8", Zone: 1, Elapsed: 4}),
		cueEvent(t, 6, at, engine.Event{Kind: engine.EventAdversaryRepelled, Night: 1, Adversary: "Errant-8", Side: "left", Elapsed: 30}),
		cueEvent(t, 7, at, engine.Event{Kind: engine.EventEnergyDepleted, Night: 1, Elapsed: 50}),
		cueEvent(t, 8, at, engine.Event{Kind: engine.EventNightWon, Night: 1, Elapsed: 60}),
		{Type: events.EventTypeCommand, Night: 1, Payload: []byte(`{"type":"TOGGLE_DOOR"}`)},
	}

	recap := BuildRecap("S1", 1, evs)

	assert.Equal(t, uint32(11), recap.Seed)
	assert.Equal(t, OutcomeWon, recap.Outcome)
	assert.Empty(t, recap.Culprit)
	assert.Equal(t, 1, recap.DoorToggles)
	assert.Equal(t, 1, recap.Moves["Errant-8"])
	assert.Equal(t, 1, recap.Repels["Errant-8"])
	assert.True(t, recap.Depleted)
	assert.Equal(t, 60.0, recap.Elapsed)

	require.Len(t, recap.Timeline, 5, "moves and commands stay out of the timeline")
	assert.Equal(t, "Porte droite fermée.", recap.Timeline[1].Summary)
	assert.Equal(t, "POSITIVE", recap.Timeline[2].Impact)
	assert.Equal(t, "NEGATIVE", recap.Timeline[3].Impact)
}

func TestRecapNight_FromRepository(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 10, 31, 22, 0, 0, 0, time.UTC)

	require.NoError(t, store.Events.Append(ctx, cueEvent(t, 1, at, engine.Event{Kind: engine.EventNightStarted, Night: 2, Seed: 99})))
	require.NoError(t, store.Events.Append(ctx, cueEvent(t, 2, at.Add(time.Second), engine.Event{Kind: engine.EventJumpscare, Night: 2, Adversary: "Guette-scan", Side: "left", Elapsed: 12})))

	recap, err := NewReconstructor(store.Events).RecapNight(ctx, "S1", 2)
	require.NoError(t, err)
	assert.Equal(t, OutcomeLost, recap.Outcome)
	assert.Equal(t, "Guette-scan", recap.Culprit)
	assert.Equal(t, "Guette-scan est entré par la porte gauche.", recap.Timeline[1].Summary)
}
