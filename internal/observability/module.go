package observability

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/atelier/internal/config"
)

// Version is reported as service.version on exported spans.
var Version = "dev"

// Module installs tracing before other components start and flushes it on stop.
var Module = fx.Invoke(registerTracing)

type tracingParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Ctx       context.Context
	Config    *config.Config
	Logger    *slog.Logger
}

func registerTracing(p tracingParams) error {
	shutdown, err := SetupTracing(p.Ctx, TracingConfig{
		Endpoint:    p.Config.OTelEndpoint,
		ServiceName: p.Config.ServiceName,
		Version:     Version,
	})
	if err != nil {
		return err
	}
	if p.Config.OTelEndpoint != "" {
		p.Logger.Info("tracing enabled", slog.String("endpoint", p.Config.OTelEndpoint))
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: shutdown,
	})
	return nil
}
