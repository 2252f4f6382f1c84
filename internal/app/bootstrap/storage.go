package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/wolfman30/psychwebmd-intake/internal/appointments"
	appconfig "github.com/wolfman30/psychwebmd-intake/internal/config"
	"github.com/wolfman30/psychwebmd-intake/internal/contact"
	"github.com/wolfman30/psychwebmd-intake/pkg/logging"
)

// Storage holds the record repositories selected by STORAGE_BACKEND.
type Storage struct {
	Appointments appointments.Repository
	Contact      contact.Repository
	// Health reports whether the backing store is reachable.
	Health func(r *http.Request) error
	Close  func()
}

// BuildStorage connects the record repositories. The postgres backend fails
// fast when DATABASE_URL is missing.
func BuildStorage(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.StorageBackend {
	case "", appconfig.BackendMemory:
		logger.Warn("using in-memory record storage; records are lost on restart")
		return &Storage{
			Appointments: appointments.NewInMemoryRepository(),
			Contact:      contact.NewInMemoryRepository(),
			Close:        func() {},
		}, nil
	case appconfig.BackendPostgres:
		dsn, err := cfg.RequireDatabaseURL()
		if err != nil {
			return nil, err
		}
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
		}
		sqlDB := stdlib.OpenDBFromPool(pool)
		logger.Info("using postgres record storage")
		return &Storage{
			Appointments: appointments.NewPostgresRepository(sqlDB),
			Contact:      contact.NewPostgresRepository(pool),
			Health:       func(r *http.Request) error { return pool.Ping(r.Context()) },
			Close: func() {
				_ = sqlDB.Close()
				pool.Close()
			},
		}, nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown storage backend %q", cfg.StorageBackend)
	}
}
