package redisqueue

import (
	"log/slog"

	"github.com/dmitrymomot/relay/pkg/logger"
)

func nopLogger() *slog.Logger {
	return logger.NewNope()
}
