package logger

import (
	"log/slog"
	"os"

	"go.uber.org/zap"
)

// New creates a preconfigured slog.Logger.
func New() *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(handler)
}

// NewZap creates the zap logger used for container events and broker client logs.
func NewZap() (*zap.Logger, error) {
	return zap.NewProduction()
}
