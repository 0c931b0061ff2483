// Package logger builds the application's structured logger.
package logger

import (
	"io"
	"log/slog"
	"os"

	slogsentry "github.com/samber/slog-sentry/v2"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/avetikov/flowgram/pkg/config"
)

// level is shared by all handlers built by New so the log level can be
// adjusted at runtime on config reload.
var level slog.LevelVar

// SetLevel adjusts the level of every logger built by New.
func SetLevel(name string) {
	level.Set(parseLevel(name))
}

// New constructs a slog.Logger according to the logger configuration:
// text or JSON output, optional lumberjack file rotation, sensitive-field
// masking, and a Sentry fan-out for warnings and above when enabled.
func New(cfg config.Config) *slog.Logger {
	level.Set(parseLevel(cfg.Logger.Level))

	var out io.Writer = os.Stdout
	if cfg.Logger.File != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.Logger.File,
			MaxSize:    cfg.Logger.MaxSizeMB,
			MaxBackups: cfg.Logger.MaxBackups,
			MaxAge:     cfg.Logger.MaxAgeDays,
			Compress:   true,
		}
	}

	opts := &slog.HandlerOptions{Level: &level}

	var handler slog.Handler
	if cfg.Logger.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	handler = NewMaskingHandler(handler)

	if cfg.Sentry.Enabled {
		handler = fanout{
			handlers: []slog.Handler{
				handler,
				slogsentry.Option{Level: slog.LevelWarn}.NewSentryHandler(),
			},
		}
	}

	return slog.New(handler).With(slog.String("env", cfg.AppEnv))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
