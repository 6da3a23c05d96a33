package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/atelier/internal/adapter/events"
	"github.com/polkiloo/atelier/internal/config"
	"github.com/polkiloo/atelier/internal/domain/repository"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	newReservationConfig,
	newStateMachine,
	NewReservationUseCase,
	NewSyncCoordinator,
	NewOrderUseCase,
)

func newReservationConfig(cfg *config.Config) ReservationConfig {
	return ReservationConfig{
		HoldTTL:       cfg.HoldTTL,
		CheckoutGrace: cfg.CheckoutGrace,
		SweepOnRead:   cfg.SweepOnRead,
	}
}

type stateMachineParams struct {
	fx.In

	Orders    repository.OrderRepository
	Publisher events.Publisher
	Config    *config.Config
	Logger    *slog.Logger
}

func newStateMachine(p stateMachineParams) *StateMachine {
	return NewStateMachine(p.Orders, p.Publisher, p.Config.StrictTransitions, p.Logger)
}
