// Package storage - postgres.go
// PostgreSQL implementation of the repositories, backed by a pgx pool.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MRamiBalles/VeilleElectrique/internal/events"
)

// Postgres wraps a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to PostgreSQL and returns a handle.
func NewPostgres(ctx context.Context, dsn string, maxConns int32) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database dsn: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the database connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Pool returns the underlying pgx pool.
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

const pgEventColumns = `id, session_id, seq, ts, event_type, actor_id, night, elapsed, payload`

// PostgresEventRepository implements EventRepository using PostgreSQL.
type PostgresEventRepository struct {
	pg *Postgres
}

// NewPostgresEventRepository creates a new PostgreSQL event repository.
func NewPostgresEventRepository(pg *Postgres) *PostgresEventRepository {
	return &PostgresEventRepository{pg: pg}
}

// Append inserts a new event into the immutable ledger.
func (r *PostgresEventRepository) Append(ctx context.Context, e events.GameEvent) error {
	_, err := r.pg.pool.Exec(ctx,
		`INSERT INTO events (`+pgEventColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.SessionID, e.Sequence, e.Timestamp, string(e.Type), e.ActorID,
		e.Night, e.Elapsed, payloadText(e.Payload),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// GetBySession retrieves all events of a session (the full replay).
func (r *PostgresEventRepository) GetBySession(ctx context.Context, sessionID string) ([]events.GameEvent, error) {
	return r.queryEvents(ctx, `session_id = $1`, sessionID)
}

// GetByNight retrieves the events of one night.
func (r *PostgresEventRepository) GetByNight(ctx context.Context, sessionID string, night int) ([]events.GameEvent, error) {
	return r.queryEvents(ctx, `session_id = $1 AND night = $2`, sessionID, night)
}

// GetByType retrieves all events of a specific type.
func (r *PostgresEventRepository) GetByType(ctx context.Context, sessionID string, eventType events.EventType) ([]events.GameEvent, error) {
	return r.queryEvents(ctx, `session_id = $1 AND event_type = $2`, sessionID, string(eventType))
}

// GetByActor retrieves all events raised by an actor.
func (r *PostgresEventRepository) GetByActor(ctx context.Context, sessionID, actorID string) ([]events.GameEvent, error) {
	return r.queryEvents(ctx, `session_id = $1 AND actor_id = $2`, sessionID, actorID)
}

// queryEvents is a helper to execute queries and scan results.
func (r *PostgresEventRepository) queryEvents(ctx context.Context, where string, args ...any) ([]events.GameEvent, error) {
	rows, err := r.pg.pool.Query(ctx,
		`SELECT id::text, session_id, seq, ts, event_type, actor_id, night, elapsed, payload::text
		 FROM events WHERE `+where+` ORDER BY ts ASC, seq ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []events.GameEvent
	for rows.Next() {
		var (
			e       events.GameEvent
			typ     string
			payload string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Sequence, &e.Timestamp, &typ, &e.ActorID, &e.Night, &e.Elapsed, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Timestamp = e.Timestamp.UTC()
		e.Type = events.EventType(typ)
		e.Payload = payloadRaw([]byte(payload))
		out = append(out, e)
	}
	return out, rows.Err()
}

// PostgresResultRepository implements ResultRepository using PostgreSQL.
type PostgresResultRepository struct {
	pg *Postgres
}

func NewPostgresResultRepository(pg *Postgres) *PostgresResultRepository {
	return &PostgresResultRepository{pg: pg}
}

// Record inserts a finished night.
func (r *PostgresResultRepository) Record(ctx context.Context, res NightResult) error {
	if res.RecordedAt.IsZero() {
		res.RecordedAt = time.Now()
	}
	_, err := r.pg.pool.Exec(ctx,
		`INSERT INTO night_results (session_id, night, outcome, culprit, seed, night_length, elapsed, energy_left, camera_usage, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		res.SessionID, res.Night, res.Outcome, res.Culprit, int64(res.Seed),
		res.NightLength, res.Elapsed, res.EnergyLeft, res.CameraUsage, res.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record night result: %w", err)
	}
	return nil
}

// List returns the most recent results first.
func (r *PostgresResultRepository) List(ctx context.Context, sessionID string, limit int) ([]NightResult, error) {
	query := `SELECT id, session_id, night, outcome, culprit, seed, night_length, elapsed, energy_left, camera_usage, recorded_at
		FROM night_results WHERE session_id = $1 ORDER BY recorded_at DESC, id DESC`
	args := []any{sessionID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pg.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query night results: %w", err)
	}
	defer rows.Close()

	var out []NightResult
	for rows.Next() {
		var (
			res  NightResult
			seed int64
		)
		if err := rows.Scan(&res.ID, &res.SessionID, &res.Night, &res.Outcome, &res.Culprit, &seed,
			&res.NightLength, &res.Elapsed, &res.EnergyLeft, &res.CameraUsage, &res.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan night result: %w", err)
		}
		res.Seed = uint32(seed)
		res.RecordedAt = res.RecordedAt.UTC()
		out = append(out, res)
	}
	return out, rows.Err()
}

// PostgresProgressRepository implements ProgressRepository using PostgreSQL.
type PostgresProgressRepository struct {
	pg *Postgres
}

func NewPostgresProgressRepository(pg *Postgres) *PostgresProgressRepository {
	return &PostgresProgressRepository{pg: pg}
}

// Save upserts the campaign position.
func (r *PostgresProgressRepository) Save(ctx context.Context, p Progress) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	_, err := r.pg.pool.Exec(ctx,
		`INSERT INTO progress (session_id, night, night_length, reduced_flash, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (session_id) DO UPDATE SET
			night = EXCLUDED.night,
			night_length = EXCLUDED.night_length,
			reduced_flash = EXCLUDED.reduced_flash,
			updated_at = EXCLUDED.updated_at`,
		p.SessionID, p.Night, p.NightLength, p.ReducedFlash, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// Load returns nil, nil when nothing was saved.
func (r *PostgresProgressRepository) Load(ctx context.Context, sessionID string) (*Progress, error) {
	var p Progress
	err := r.pg.pool.QueryRow(ctx,
		`SELECT session_id, night, night_length, reduced_flash, updated_at FROM progress WHERE session_id = $1`,
		sessionID,
	).Scan(&p.SessionID, &p.Night, &p.NightLength, &p.ReducedFlash, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

// Ensure the Postgres repositories implement their interfaces
var (
	_ EventRepository    = (*PostgresEventRepository)(nil)
	_ ResultRepository   = (*PostgresResultRepository)(nil)
	_ ProgressRepository = (*PostgresProgressRepository)(nil)
)
