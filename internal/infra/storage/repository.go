// Package storage provides the persistence layer for the night-watch server.
// This package implements the repository pattern to keep the engine pure.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/MRamiBalles/VeilleElectrique/internal/events"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown storage driver")

// Night outcomes recorded in night_results.
const (
	OutcomeWon         = "WON"
	OutcomeLost        = "LOST"
	OutcomeCampaignWon = "CAMPAIGN_WON"
)

// EventRepository defines the interface for event persistence.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event events.GameEvent) error

	// GetBySession retrieves every event of a session in order (for replay).
	GetBySession(ctx context.Context, sessionID string) ([]events.GameEvent, error)

	// GetByNight retrieves the events of one night.
	GetByNight(ctx context.Context, sessionID string, night int) ([]events.GameEvent, error)

	// GetByType retrieves all events of a specific type.
	GetByType(ctx context.Context, sessionID string, eventType events.EventType) ([]events.GameEvent, error)

	// GetByActor retrieves all events raised by one actor.
	GetByActor(ctx context.Context, sessionID, actorID string) ([]events.GameEvent, error)
}

// NightResult is the closing record of one finished night.
type NightResult struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	Night       int       `json:"night"`
	Outcome     string    `json:"outcome"`
	Culprit     string    `json:"culprit,omitempty"`
	Seed        uint32    `json:"seed"`
	NightLength float64   `json:"night_length"`
	Elapsed     float64   `json:"elapsed"`
	EnergyLeft  float64   `json:"energy_left"`
	CameraUsage float64   `json:"camera_usage"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// ResultRepository stores finished nights.
type ResultRepository interface {
	Record(ctx context.Context, result NightResult) error
	// List returns the most recent results first. limit <= 0 means all.
	List(ctx context.Context, sessionID string, limit int) ([]NightResult, error)
}

// Progress is the campaign position a session resumes from.
type Progress struct {
	SessionID    string    `json:"session_id"`
	Night        int       `json:"night"`
	NightLength  float64   `json:"night_length"`
	ReducedFlash bool      `json:"reduced_flash"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProgressRepository saves and restores campaign progress.
type ProgressRepository interface {
	Save(ctx context.Context, p Progress) error
	// Load returns nil, nil when the session has no saved progress.
	Load(ctx context.Context, sessionID string) (*Progress, error)
}

// Store bundles the repositories of one backend.
type Store struct {
	Events   EventRepository
	Results  ResultRepository
	Progress ProgressRepository
	closeFn  func() error
}

// Close releases the backend connection.
func (s *Store) Close() error {
	if s == nil || s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// EventSink adapts an EventRepository to the events.EventPersister contract.
type EventSink struct {
	repo    EventRepository
	timeout time.Duration
}

// NewEventSink bounds every write by timeout.
func NewEventSink(repo EventRepository, timeout time.Duration) *EventSink {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &EventSink{repo: repo, timeout: timeout}
}

// Append implements events.EventPersister.
func (s *EventSink) Append(e events.GameEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.repo.Append(ctx, e)
}

var _ events.EventPersister = (*EventSink)(nil)

func payloadText(p json.RawMessage) string {
	if len(p) == 0 {
		return "null"
	}
	return string(p)
}

func payloadRaw(s []byte) json.RawMessage {
	if len(s) == 0 || string(s) == "null" {
		return nil
	}
	out := make(json.RawMessage, len(s))
	copy(out, s)
	return out
}
