package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/polkiloo/atelier/internal/di"
)

func main() {
	if code, ok := runTool(os.Args[1:], os.Stdout, os.Stderr); ok {
		os.Exit(code)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	app := fx.New(
		fx.Provide(func() context.Context { return ctx }),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l}
		}),
		di.Module(),
	)

	code := run(ctx, app)
	stop()
	os.Exit(code)
}
