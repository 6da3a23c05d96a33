package idempotency

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/polkiloo/atelier/internal/config"
)

// Module exposes payment idempotency guard to fx graph.
var Module = fx.Options(
	fx.Provide(newGuard),
	fx.Invoke(registerLifecycle),
)

type guardParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newGuard(p guardParams) Guard {
	if p.Config.RedisAddr == "" {
		p.Logger.Info("redis not configured, payment idempotency relies on database only")
		return NopGuard{}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     p.Config.RedisAddr,
		Password: p.Config.RedisPassword,
		DB:       p.Config.RedisDB,
	})
	return NewStore(rdb, p.Config.IdempotencyTTL)
}

func registerLifecycle(lc fx.Lifecycle, guard Guard) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return guard.Close()
		},
	})
}
