package logger

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module wires slog and zap loggers for dependency injection.
var Module = fx.Options(
	fx.Provide(New, NewZap),
	fx.Invoke(registerLifecycle),
)

func registerLifecycle(lc fx.Lifecycle, l *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			// stdout sync fails on some terminals; nothing to recover.
			_ = l.Sync()
			return nil
		},
	})
}
