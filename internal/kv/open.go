package kv

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/tariff-impact/internal/config"
)

// Open builds the Store selected by cfg.Driver and prepares its schema.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemory(), nil
	case "sqlite":
		st, err := NewSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		zap.L().Debug("kv: opened sqlite store", zap.String("path", cfg.Path))
		return st, nil
	case "postgres":
		st, err := NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		zap.L().Debug("kv: opened postgres store")
		return st, nil
	case "redis":
		st, err := NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		zap.L().Debug("kv: opened redis store")
		return st, nil
	}
	return nil, eris.Errorf("kv: unsupported driver %q", cfg.Driver)
}
