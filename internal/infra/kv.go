package infra

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-errorbook-bot/internal/config"
	"github.com/aliskhannn/quiz-errorbook-bot/internal/infra/postgres"
	"github.com/aliskhannn/quiz-errorbook-bot/internal/infra/sqlite"
	"github.com/aliskhannn/quiz-errorbook-bot/internal/service"
	"github.com/aliskhannn/quiz-errorbook-bot/internal/storage"
)

// OpenKV opens the key-value backend selected by cfg.Storage.Driver.
// The returned close function releases the backend's connections.
func OpenKV(ctx context.Context, cfg *config.Config, logger *zap.Logger) (service.KeyValueStore, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		dsn, err := cfg.DB.DSN()
		if err != nil {
			return nil, nil, err
		}

		pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
			MaxConns:        int32(cfg.DB.MaxConnections),
			MaxConnLifetime: cfg.DB.MaxConnLifetime,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}

		if err := postgres.EnsureSchema(ctx, postgres.NewTransactor(pool)); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres schema: %w", err)
		}

		logger.Info("using postgres storage")
		return postgres.NewKVStore(pool), pool.Close, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite: %w", err)
		}

		logger.Info("using sqlite storage")
		return sqlite.NewKVStore(db), func() { _ = db.Close() }, nil

	default:
		logger.Info("using in-memory storage, error collections are lost on restart")
		return storage.NewMemoryKV(), func() {}, nil
	}
}
