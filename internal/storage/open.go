package storage

import (
	"context"
	"fmt"

	"github.com/aquatrack/aquatrack/internal/config"
)

// Open returns the Storage selected by cfg.StorageDriver.
func Open(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		return NewMemory(), nil
	case config.StorageSQLite:
		return NewSQLite(ctx, cfg.SQLitePath)
	case config.StorageRedis:
		return NewRedis(ctx, cfg.RedisURL, cfg.RedisKeyPrefix)
	case config.StoragePostgres:
		return NewPostgres(ctx, cfg.DatabaseURL, cfg.PostgresTable)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
