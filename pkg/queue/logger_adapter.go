package queue

import (
	"github.com/rs/zerolog"
)

// ZerologAdapter adapts a zerolog.Logger to the queue logger interface
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter creates a new logger adapter tagged with the queue component.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{
		logger: logger.With().Str("component", "queue").Logger(),
	}
}

// Info returns an info log event
func (l *ZerologAdapter) Info() LogEvent {
	return &ZerologEvent{event: l.logger.Info()}
}

// Error returns an error log event
func (l *ZerologAdapter) Error() LogEvent {
	return &ZerologEvent{event: l.logger.Error()}
}

// Debug returns a debug log event
func (l *ZerologAdapter) Debug() LogEvent {
	return &ZerologEvent{event: l.logger.Debug()}
}

// ZerologEvent adapts *zerolog.Event to the queue log event interface.
// A nil event (disabled level) is safe to use, zerolog treats it as a no-op.
type ZerologEvent struct {
	event *zerolog.Event
}

// Msg logs a message
func (e *ZerologEvent) Msg(msg string) {
	e.event.Msg(msg)
}

// Err adds an error to the log event
func (e *ZerologEvent) Err(err error) LogEvent {
	return &ZerologEvent{event: e.event.Err(err)}
}

// Str adds a string field to the log event
func (e *ZerologEvent) Str(key, value string) LogEvent {
	return &ZerologEvent{event: e.event.Str(key, value)}
}
