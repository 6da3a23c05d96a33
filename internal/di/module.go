package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/atelier/internal/adapter/catalog"
	"github.com/polkiloo/atelier/internal/adapter/events"
	"github.com/polkiloo/atelier/internal/adapter/idempotency"
	"github.com/polkiloo/atelier/internal/app"
	"github.com/polkiloo/atelier/internal/config"
	"github.com/polkiloo/atelier/internal/logger"
	"github.com/polkiloo/atelier/internal/observability"
	"github.com/polkiloo/atelier/internal/pkg/auth"
	"github.com/polkiloo/atelier/internal/server/http/handlers"
	"github.com/polkiloo/atelier/internal/server/http/router"
	"github.com/polkiloo/atelier/internal/storage/postgres"
	"github.com/polkiloo/atelier/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		observability.Module,
		auth.Module,
		postgres.Module,
		catalog.Module,
		events.Module,
		idempotency.Module,
		usecase.Module,
		fx.Provide(
			func(f *app.AtelierFacade) handlers.AtelierFacade { return f },
			func(s *postgres.Storage) handlers.HealthChecker { return s },
		),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
