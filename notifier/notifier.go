// Package notifier delivers human readable status lines to the operator.
package notifier

import (
	"context"
)

// Severity selects where a message goes.
type Severity int

const (
	// Console messages are operator diagnostics and stay in the process log.
	Console Severity = iota
	// All messages are also posted to chat sinks.
	All
)

func (s Severity) String() string {
	if s == All {
		return "all"
	}
	return "console"
}

// Sink receives notifications. Delivery is fire-and-forget: implementations log their failures and never return
// them.
type Sink interface {
	Notify(ctx context.Context, msg string, severity Severity)
}

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// LogSink writes every notification to the structured log.
type LogSink struct {
	logger Logger
}

func NewLogSink(logger Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(_ context.Context, msg string, severity Severity) {
	s.logger.Info(msg, "severity", severity.String())
}

// Multi fans a notification out to every sink in order.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, msg string, severity Severity) {
	for _, s := range m {
		s.Notify(ctx, msg, severity)
	}
}
