package queue

// Logger defines a simple logging interface to avoid circular dependencies
type Logger interface {
	Info() LogEvent
	Error() LogEvent
	Debug() LogEvent
}

// LogEvent defines a simple log event interface
type LogEvent interface {
	Msg(string)
	Err(error) LogEvent
	Str(string, string) LogEvent
}

type (
	nopLogger   struct{}
	nopLogEvent struct{}
)

// NopLogger returns a Logger which discards everything.
func NopLogger() Logger {
	return nopLogger{}
}

func (nopLogger) Info() LogEvent  { return nopLogEvent{} }
func (nopLogger) Error() LogEvent { return nopLogEvent{} }
func (nopLogger) Debug() LogEvent { return nopLogEvent{} }

func (nopLogEvent) Msg(string) {}

func (e nopLogEvent) Err(error) LogEvent { return e }

func (e nopLogEvent) Str(string, string) LogEvent { return e }
