package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/VeilleElectrique/internal/engine"
	"github.com/MRamiBalles/VeilleElectrique/internal/events"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), Config{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "nested", "veille.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func cueEvent(t *testing.T, seq int64, at time.Time, cue engine.Event) events.GameEvent {
	t.Helper()
	raw, err := json.Marshal(cue)
	require.NoError(t, err)
	actor := events.ActorSystem
	if cue.Adversary != "" {
		actor = cue.Adversary
	}
	return events.GameEvent{
		ID:        events.GenerateEventID(),
		Sequence:  seq,
		SessionID: "S1",
		Timestamp: at,
		Type:      events.EventType(cue.Kind),
		ActorID:   actor,
		Night:     cue.Night,
		Elapsed:   cue.Elapsed,
		Payload:   raw,
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "floppy"})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestInitSQLite_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "veille.db")
	ctx := context.Background()

	db, err := InitSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = InitSQLite(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n))
	assert.Zero(t, n)
}

func TestSQLiteEvents_RoundTripAndFilters(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 31, 22, 0, 0, 0, time.UTC)

	written := []events.GameEvent{
		cueEvent(t, 1, base, engine.Event{Kind: engine.EventNightStarted, Night: 1, Seed: 1241}),
		cueEvent(t, 2, base.Add(time.Second), engine.Event{Kind: engine.EventDoorToggled, Night: 1, Side: "left", Enabled: true, Elapsed: 1}),
		cueEvent(t, 3, base.Add(2*time.Second), engine.Event{Kind: engine.EventJumpscare, Night: 1, Adversary: "Errant-8", Side: "left", Elapsed: 14}),
		cueEvent(t, 4, base.Add(3*time.Second), engine.Event{Kind: engine.EventNightStarted, Night: 2}),
	}
	for _, e := range written {
		require.NoError(t, store.Events.Append(ctx, e))
	}
	require.NoError(t, store.Events.Append(ctx, events.GameEvent{
		ID: events.GenerateEventID(), SessionID: "OTHER", Timestamp: base, Type: events.EventTypeCommand, Night: 1,
	}))

	all, err := store.Events.GetBySession(ctx, "S1")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, written[0].ID, all[0].ID)
	assert.Equal(t, base, all[0].Timestamp)
	assert.JSONEq(t, string(written[1].Payload), string(all[1].Payload))

	night1, err := store.Events.GetByNight(ctx, "S1", 1)
	require.NoError(t, err)
	assert.Len(t, night1, 3)

	started, err := store.Events.GetByType(ctx, "S1", events.EventType(engine.EventNightStarted))
	require.NoError(t, err)
	assert.Len(t, started, 2)

	byActor, err := store.Events.GetByActor(ctx, "S1", "Errant-8")
	require.NoError(t, err)
	require.Len(t, byActor, 1)
	assert.Equal(t, 14.0, byActor[0].Elapsed)

	other, err := store.Events.GetBySession(ctx, "OTHER")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Nil(t, other[0].Payload)
}

func TestSQLiteResults_NewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 31, 22, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Results.Record(ctx, NightResult{
			SessionID:   "S1",
			Night:       i,
			Outcome:     OutcomeWon,
			Seed:        0xfffffff0 + uint32(i),
			NightLength: 60,
			Elapsed:     60,
			EnergyLeft:  42.5,
			RecordedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := store.Results.List(ctx, "S1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 3, all[0].Night)
	assert.Equal(t, uint32(0xfffffff3), all[0].Seed)
	assert.Equal(t, 42.5, all[0].EnergyLeft)

	latest, err := store.Results.List(ctx, "S1", 2)
	require.NoError(t, err)
	assert.Len(t, latest, 2)

	none, err := store.Results.List(ctx, "S2", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteProgress_Upsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	missing, err := store.Progress.Load(ctx, "S1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.Progress.Save(ctx, Progress{SessionID: "S1", Night: 2, NightLength: 120}))
	require.NoError(t, store.Progress.Save(ctx, Progress{SessionID: "S1", Night: 3, NightLength: 90, ReducedFlash: true}))

	p, err := store.Progress.Load(ctx, "S1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 3, p.Night)
	assert.Equal(t, 90.0, p.NightLength)
	assert.True(t, p.ReducedFlash)
	assert.False(t, p.UpdatedAt.IsZero())
}

func TestEventSink_PersistsThroughEventLog(t *testing.T) {
	store := openTestStore(t)
	log := events.NewEventLog(NewEventSink(store.Events, time.Second))

	for i := 0; i < 10; i++ {
		log.Append(events.GameEvent{SessionID: "S1", Type: events.EventTypeCommand, Night: 1})
	}
	log.Close()

	stored, err := store.Events.GetBySession(context.Background(), "S1")
	require.NoError(t, err)
	assert.Len(t, stored, 10)
}
