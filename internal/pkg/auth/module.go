package auth

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/atelier/internal/config"
)

// Module provides authentication primitives via fx.
var Module = fx.Options(
	fx.Provide(newKeyHasher),
	fx.Provide(newTokenStrategy),
	fx.Provide(newAdminVerifier),
)

func newKeyHasher() KeyHasher {
	return NewBcryptHasher(0)
}

type strategyParams struct {
	fx.In

	Config *config.Config
}

func newTokenStrategy(p strategyParams) Strategy {
	return NewJWTStrategy(p.Config.JWTSecret, Options{})
}

type verifierParams struct {
	fx.In

	Config *config.Config
	Hasher KeyHasher
	Logger *slog.Logger
}

func newAdminVerifier(p verifierParams) AdminVerifier {
	if p.Config.AdminKeyHash == "" {
		p.Logger.Warn("ADMIN_KEY_HASH not set, privileged endpoints are disabled")
	}
	return NewHashedKeyVerifier(p.Config.AdminKeyHash, p.Hasher)
}
