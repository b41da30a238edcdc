package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/VeilleElectrique/internal/engine"
	"github.com/MRamiBalles/VeilleElectrique/internal/events"
)

// openPostgres needs a disposable database; set VEILLE_TEST_POSTGRES_DSN to run.
func openPostgres(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("VEILLE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("VEILLE_TEST_POSTGRES_DSN not set")
	}
	store, err := Open(context.Background(), Config{Driver: "postgres", PostgresDSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPostgres_RoundTrip(t *testing.T) {
	store := openPostgres(t)
	ctx := context.Background()
	session := "PG-" + events.GenerateEventID()
	at := time.Now().UTC().Truncate(time.Microsecond)

	ev := cueEvent(t, 1, at, engine.Event{Kind: engine.EventNightStarted, Night: 1, Seed: 7})
	ev.SessionID = session
	require.NoError(t, store.Events.Append(ctx, ev))

	got, err := store.Events.GetByNight(ctx, session, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ev.ID, got[0].ID)
	assert.True(t, at.Equal(got[0].Timestamp))

	require.NoError(t, store.Results.Record(ctx, NightResult{SessionID: session, Night: 1, Outcome: OutcomeLost, Culprit: "Errant-8", Seed: 7}))
	results, err := store.Results.List(ctx, session, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Errant-8", results[0].Culprit)

	require.NoError(t, store.Progress.Save(ctx, Progress{SessionID: session, Night: 4, NightLength: 200}))
	p, err := store.Progress.Load(ctx, session)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 4, p.Night)
}
