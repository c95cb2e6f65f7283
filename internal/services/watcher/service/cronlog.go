package service

import (
	"marketwatch/internal/platform/logger"

	"github.com/robfig/cron/v3"
)

// cronLogger routes the cron runner's logs into zerolog
type cronLogger struct{ l *logger.Logger }

var _ cron.Logger = cronLogger{}

// Info is the runner's chatter (schedule, wake, run); kept at debug
func (c cronLogger) Info(msg string, kv ...any) {
	c.l.Debug().Fields(kv).Msg(msg)
}

// Error carries recovered job panics and skip notices
func (c cronLogger) Error(err error, msg string, kv ...any) {
	c.l.Error().Err(err).Fields(kv).Msg(msg)
}
