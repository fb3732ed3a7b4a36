package logger

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/aliskhannn/course-tracker/internal/config"
)

// New builds the process logger: JSON output in production,
// human-readable development output everywhere else.
func New(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Env == "production" {
		return zap.NewProduction()
	}

	return zap.NewDevelopment()
}

// cronLogger routes robfig/cron internals into zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

// Cron adapts l to the cron.Logger interface.
func Cron(l *zap.Logger) cron.Logger {
	return cronLogger{s: l.Named("cron").Sugar()}
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.s.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
