package storage

import (
	"context"
	"fmt"
)

// Config selects and locates a backend.
type Config struct {
	Driver      string // "sqlite" or "postgres"
	SQLitePath  string
	PostgresDSN string
	MaxConns    int32 // PostgreSQL pool size; 0 keeps the pgx default
}

// Open connects to the configured backend, applies migrations and returns
// its repositories.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		db, err := InitSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Store{
			Events:   NewSQLiteEventRepository(db),
			Results:  NewSQLiteResultRepository(db),
			Progress: NewSQLiteProgressRepository(db),
			closeFn:  db.Close,
		}, nil
	case "postgres":
		if err := RunPostgresMigrations(ctx, cfg.PostgresDSN); err != nil {
			return nil, err
		}
		pg, err := NewPostgres(ctx, cfg.PostgresDSN, cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		return &Store{
			Events:   NewPostgresEventRepository(pg),
			Results:  NewPostgresResultRepository(pg),
			Progress: NewPostgresProgressRepository(pg),
			closeFn: func() error {
				pg.Close()
				return nil
			},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
