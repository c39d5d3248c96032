package logger

import (
	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-errorbook-bot/internal/config"
)

// New returns a production logger in production and a development logger elsewhere.
func New(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Env == "production" {
		return zap.NewProduction()
	}

	return zap.NewDevelopment()
}
