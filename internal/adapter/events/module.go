package events

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/atelier/internal/config"
)

// Module exposes the order event publisher to fx graph.
var Module = fx.Options(
	fx.Provide(newPublisher),
	fx.Invoke(registerLifecycle),
)

type publisherParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
	Zap    *zap.Logger
}

func newPublisher(p publisherParams) Publisher {
	if len(p.Config.KafkaBrokers) == 0 {
		p.Logger.Info("kafka brokers not configured, order events disabled")
		return NopPublisher{}
	}
	return NewKafkaPublisher(p.Config.KafkaBrokers, p.Config.KafkaTopic, p.Zap)
}

func registerLifecycle(lc fx.Lifecycle, publisher Publisher) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return publisher.Close()
		},
	})
}
