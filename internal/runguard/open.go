package runguard

import (
	"context"

	"codeberg.org/mutker/trendalarm/internal/config"
	"codeberg.org/mutker/trendalarm/internal/errors"
)

// Open builds the marker store selected by cfg
func Open(ctx context.Context, cfg config.MarkerConfig) (MarkerStore, error) {
	switch cfg.Backend {
	case "file":
		return NewFileStore(cfg.Path)
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "redis":
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisKey)
	default:
		return nil, errors.New().WithData(errors.ErrInvalidConfig, "unknown marker backend "+cfg.Backend)
	}
}
