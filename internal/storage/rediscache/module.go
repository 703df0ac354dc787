package rediscache

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/inkwell/coauthor/internal/config"
)

// Module wires the catalog cache; without REDIS_ADDR a no-op cache is used.
var Module = fx.Provide(newCache)

type cacheParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newCache(p cacheParams) (CatalogCache, error) {
	if p.Config.RedisAddr == "" {
		return NoopCache{}, nil
	}

	cache, err := NewRedisCache(p.Config.RedisAddr, p.Config.CatalogCacheTTL, p.Logger)
	if err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return cache.Close()
		},
	})

	return cache, nil
}
