// Package logger builds slog loggers that enrich records with request-scoped
// attributes and optionally forward warnings and errors to Sentry.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// Config describes the logger produced by New.
type Config struct {
	// Output defaults to os.Stdout.
	Output io.Writer
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string
	// Format is json or text. Unknown values mean json.
	Format string
	// SentryDSN enables Sentry fan-out when set.
	SentryDSN         string
	SentryEnvironment string
}

// ContextExtractor pulls one attribute out of a context.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// FlushFunc waits up to timeout for buffered Sentry events to be sent.
type FlushFunc func(timeout time.Duration)

// New creates a logger. The returned FlushFunc is a no-op unless Sentry is
// enabled; call it before the process exits.
func New(cfg Config, extractors ...ContextExtractor) (*slog.Logger, FlushFunc) {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var base slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		base = slog.NewTextHandler(out, opts)
	} else {
		base = slog.NewJSONHandler(out, opts)
	}

	noflush := func(time.Duration) {}

	if cfg.SentryDSN == "" {
		return slog.New(NewLogHandlerDecorator(base, extractors...)), noflush
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		EnableLogs:  true,
	}); err != nil {
		log := slog.New(NewLogHandlerDecorator(base, extractors...))
		log.Error("sentry disabled", slog.String("error", err.Error()))
		return log, noflush
	}

	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
	}.NewSentryHandler(context.Background())

	h := fanout{base, sentryHandler}
	return slog.New(NewLogHandlerDecorator(h, extractors...)), func(timeout time.Duration) {
		sentry.Flush(timeout)
	}
}

// ParseLevel maps a level name to slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
