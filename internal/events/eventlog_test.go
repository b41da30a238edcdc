package events

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryPersister struct {
	mu     sync.Mutex
	stored []GameEvent
	err    error
}

func (m *memoryPersister) Append(e GameEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.stored = append(m.stored, e)
	return nil
}

func (m *memoryPersister) all() []GameEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]GameEvent(nil), m.stored...)
}

func TestAppend_StampsEvents(t *testing.T) {
	fixed := time.Date(2026, 10, 31, 23, 0, 0, 0, time.UTC)
	log := NewEventLog(nil, WithClock(func() time.Time { return fixed }))

	first := log.Append(GameEvent{Type: "NIGHT_STARTED", Night: 1})
	second := log.Append(GameEvent{Type: "DOOR_TOGGLED", Night: 1, ActorID: ActorPlayer})

	assert.Equal(t, int64(1), first.Sequence)
	assert.Equal(t, int64(2), second.Sequence)
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, fixed, first.Timestamp)
	assert.Equal(t, 2, log.Len())
}

func TestSince(t *testing.T) {
	log := NewEventLog(nil)
	for i := 0; i < 5; i++ {
		log.Append(GameEvent{Type: EventTypeCommand})
	}

	assert.Len(t, log.Since(0), 5)
	tail := log.Since(3)
	require.Len(t, tail, 2)
	assert.Equal(t, int64(4), tail[0].Sequence)
	assert.Empty(t, log.Since(5))
	assert.Len(t, log.Since(-2), 5)
}

func TestFilters(t *testing.T) {
	log := NewEventLog(nil)
	log.Append(GameEvent{Type: "NIGHT_STARTED", Night: 1, ActorID: ActorSystem})
	log.Append(GameEvent{Type: "JUMPSCARE", Night: 1, ActorID: "Errant-8"})
	log.Append(GameEvent{Type: "NIGHT_STARTED", Night: 2, ActorID: ActorSystem})

	assert.Len(t, log.GetByNight(1), 2)
	assert.Len(t, log.GetByType("NIGHT_STARTED"), 2)
	assert.Len(t, log.GetByActor("Errant-8"), 1)
	assert.Empty(t, log.GetByNight(4))
}

func TestReplay_ReturnsCopy(t *testing.T) {
	log := NewEventLog(nil)
	log.Append(GameEvent{Type: EventTypeCommand})

	history := log.Replay()
	history[0].Type = "TAMPERED"

	assert.Equal(t, EventTypeCommand, log.Replay()[0].Type)
}

func TestPersister_WritesInOrderAndDrainsOnClose(t *testing.T) {
	p := &memoryPersister{}
	log := NewEventLog(p, WithBuffer(4))

	for i := 0; i < 50; i++ {
		log.Append(GameEvent{Type: EventTypeCommand, Night: 1})
	}
	log.Close()

	stored := p.all()
	require.Len(t, stored, 50)
	for i, e := range stored {
		assert.Equal(t, int64(i+1), e.Sequence)
	}
}

// gatedPersister blocks every write until release is closed.
type gatedPersister struct {
	memoryPersister
	entered chan struct{}
	release chan struct{}
}

func (g *gatedPersister) Append(e GameEvent) error {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release
	return g.memoryPersister.Append(e)
}

func TestPersister_StallDoesNotBlockReaders(t *testing.T) {
	p := &gatedPersister{entered: make(chan struct{}, 1), release: make(chan struct{})}
	log := NewEventLog(p, WithBuffer(1))

	log.Append(GameEvent{Type: EventTypeCommand})
	<-p.entered
	log.Append(GameEvent{Type: EventTypeCommand})

	blocked := make(chan struct{})
	go func() {
		defer close(blocked)
		log.Append(GameEvent{Type: EventTypeCommand})
	}()

	require.Eventually(t, func() bool { return log.Len() == 3 }, time.Second, 5*time.Millisecond)
	assert.Len(t, log.Since(1), 2)
	select {
	case <-blocked:
		t.Fatal("append returned while the queue was full")
	default:
	}

	close(p.release)
	<-blocked
	log.Close()

	stored := p.all()
	require.Len(t, stored, 3)
	for i, ev := range stored {
		assert.Equal(t, int64(i+1), ev.Sequence)
	}
}

func TestPersister_ErrorsReachHandler(t *testing.T) {
	p := &memoryPersister{err: errors.New("disk full")}
	var mu sync.Mutex
	var failed []error
	log := NewEventLog(p, WithErrorHandler(func(_ GameEvent, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, err)
	}))

	log.Append(GameEvent{Type: EventTypeCommand})
	log.Close()
	log.Append(GameEvent{Type: EventTypeCommand})
	log.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, failed, 2)
	assert.EqualError(t, failed[0], "disk full")
	assert.ErrorIs(t, failed[1], ErrClosed)
	assert.Equal(t, 2, log.Len(), "memory keeps events the persister refused")
}

func TestDecode(t *testing.T) {
	e := GameEvent{Payload: []byte(`{"side":"left"}`)}
	var out struct {
		Side string `json:"side"`
	}
	require.NoError(t, e.Decode(&out))
	assert.Equal(t, "left", out.Side)
	assert.NoError(t, GameEvent{}.Decode(&out))
}
