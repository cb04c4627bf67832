package events

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
)

type slogAdapter struct {
	logger *slog.Logger
	fields watermill.LogFields
}

// NewLoggerAdapter routes watermill's internal logging through slog.
func NewLoggerAdapter(logger *slog.Logger) watermill.LoggerAdapter {
	return &slogAdapter{logger: logger, fields: watermill.LogFields{}}
}

func (a *slogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.logger.Log(context.Background(), slog.LevelError, msg, append(a.args(fields), "error", err)...)
}

func (a *slogAdapter) Info(msg string, fields watermill.LogFields) {
	a.logger.Log(context.Background(), slog.LevelInfo, msg, a.args(fields)...)
}

func (a *slogAdapter) Debug(msg string, fields watermill.LogFields) {
	a.logger.Log(context.Background(), slog.LevelDebug, msg, a.args(fields)...)
}

// Trace is mapped below debug so it stays quiet unless explicitly enabled.
func (a *slogAdapter) Trace(msg string, fields watermill.LogFields) {
	a.logger.Log(context.Background(), slog.LevelDebug-4, msg, a.args(fields)...)
}

func (a *slogAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &slogAdapter{logger: a.logger, fields: a.fields.Add(fields)}
}

func (a *slogAdapter) args(fields watermill.LogFields) []any {
	all := a.fields.Add(fields)
	args := make([]any, 0, len(all)*2)
	for k, v := range all {
		args = append(args, k, v)
	}
	return args
}
