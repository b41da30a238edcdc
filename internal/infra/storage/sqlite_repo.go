package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MRamiBalles/VeilleElectrique/internal/events"
)

const sqliteEventColumns = `id, session_id, seq, ts, event_type, actor_id, night, elapsed, payload`

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, e events.GameEvent) error {
	query := `INSERT INTO events (` + sqliteEventColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.SessionID, e.Sequence, e.Timestamp.UnixNano(), string(e.Type), e.ActorID,
		e.Night, e.Elapsed, payloadText(e.Payload),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, where string, args ...any) ([]events.GameEvent, error) {
	query := `SELECT ` + sqliteEventColumns + ` FROM events WHERE ` + where + ` ORDER BY ts ASC, seq ASC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []events.GameEvent
	for rows.Next() {
		var (
			e       events.GameEvent
			ts      int64
			typ     string
			payload string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Sequence, &ts, &typ, &e.ActorID, &e.Night, &e.Elapsed, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Timestamp = time.Unix(0, ts).UTC()
		e.Type = events.EventType(typ)
		e.Payload = payloadRaw([]byte(payload))
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteEventRepository) GetBySession(ctx context.Context, sessionID string) ([]events.GameEvent, error) {
	return r.getMany(ctx, `session_id = ?`, sessionID)
}

func (r *SQLiteEventRepository) GetByNight(ctx context.Context, sessionID string, night int) ([]events.GameEvent, error) {
	return r.getMany(ctx, `session_id = ? AND night = ?`, sessionID, night)
}

func (r *SQLiteEventRepository) GetByType(ctx context.Context, sessionID string, eventType events.EventType) ([]events.GameEvent, error) {
	return r.getMany(ctx, `session_id = ? AND event_type = ?`, sessionID, string(eventType))
}

func (r *SQLiteEventRepository) GetByActor(ctx context.Context, sessionID, actorID string) ([]events.GameEvent, error) {
	return r.getMany(ctx, `session_id = ? AND actor_id = ?`, sessionID, actorID)
}

// ---------------------------------------------------------
// SQLiteResultRepository
// ---------------------------------------------------------

type SQLiteResultRepository struct {
	db *sql.DB
}

func NewSQLiteResultRepository(db *sql.DB) *SQLiteResultRepository {
	return &SQLiteResultRepository{db: db}
}

func (r *SQLiteResultRepository) Record(ctx context.Context, res NightResult) error {
	if res.RecordedAt.IsZero() {
		res.RecordedAt = time.Now()
	}
	query := `
		INSERT INTO night_results (session_id, night, outcome, culprit, seed, night_length, elapsed, energy_left, camera_usage, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		res.SessionID, res.Night, res.Outcome, res.Culprit, int64(res.Seed),
		res.NightLength, res.Elapsed, res.EnergyLeft, res.CameraUsage, res.RecordedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record night result: %w", err)
	}
	return nil
}

func (r *SQLiteResultRepository) List(ctx context.Context, sessionID string, limit int) ([]NightResult, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `
		SELECT id, session_id, night, outcome, culprit, seed, night_length, elapsed, energy_left, camera_usage, recorded_at
		FROM night_results WHERE session_id = ? ORDER BY recorded_at DESC, id DESC LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query night results: %w", err)
	}
	defer rows.Close()

	var out []NightResult
	for rows.Next() {
		var (
			res  NightResult
			seed int64
			at   int64
		)
		if err := rows.Scan(&res.ID, &res.SessionID, &res.Night, &res.Outcome, &res.Culprit, &seed,
			&res.NightLength, &res.Elapsed, &res.EnergyLeft, &res.CameraUsage, &at); err != nil {
			return nil, fmt.Errorf("failed to scan night result: %w", err)
		}
		res.Seed = uint32(seed)
		res.RecordedAt = time.Unix(0, at).UTC()
		out = append(out, res)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------
// SQLiteProgressRepository
// ---------------------------------------------------------

type SQLiteProgressRepository struct {
	db *sql.DB
}

func NewSQLiteProgressRepository(db *sql.DB) *SQLiteProgressRepository {
	return &SQLiteProgressRepository{db: db}
}

func (r *SQLiteProgressRepository) Save(ctx context.Context, p Progress) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	query := `
		INSERT INTO progress (session_id, night, night_length, reduced_flash, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			night=excluded.night,
			night_length=excluded.night_length,
			reduced_flash=excluded.reduced_flash,
			updated_at=excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, p.SessionID, p.Night, p.NightLength, p.ReducedFlash, p.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

func (r *SQLiteProgressRepository) Load(ctx context.Context, sessionID string) (*Progress, error) {
	query := `SELECT session_id, night, night_length, reduced_flash, updated_at FROM progress WHERE session_id = ?`
	var (
		p  Progress
		at int64
	)
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&p.SessionID, &p.Night, &p.NightLength, &p.ReducedFlash, &at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	p.UpdatedAt = time.Unix(0, at).UTC()
	return &p, nil
}

var (
	_ EventRepository    = (*SQLiteEventRepository)(nil)
	_ ResultRepository   = (*SQLiteResultRepository)(nil)
	_ ProgressRepository = (*SQLiteProgressRepository)(nil)
)
