package infrastructure

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/architeacher/svc-queue-client/internal/config"
	"github.com/architeacher/svc-queue-client/pkg/queue"
	"github.com/rs/zerolog"
)

// Logger is the service wide structured logger.
type Logger struct {
	zerolog.Logger
}

func New(cfg config.LoggingConfig) Logger {
	return NewWithWriter(cfg, os.Stdout)
}

func NewWithWriter(cfg config.LoggingConfig, w io.Writer) Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if strings.EqualFold(cfg.Format, "text") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return Logger{
		Logger: zerolog.New(w).Level(level).With().Timestamp().Logger(),
	}
}

// QueueLogger bridges the logger into the queue client.
func (l Logger) QueueLogger() queue.Logger {
	return queue.NewZerologAdapter(l.Logger)
}

// NewTestLogger discards everything.
func NewTestLogger() Logger {
	return Logger{Logger: zerolog.Nop()}
}
