package di

import (
	"log/slog"
	"os"

	"github.com/goliatone/backport/pkg/config"
)

// provideLogger creates the fallback structured logger: slog text output on
// stderr at info level.
func provideLogger() Logger {
	return newSlogAdapter("text", slog.LevelInfo)
}

// provideLoggerWithConfig builds the logger from the logging config,
// honouring level, format and the verbose/quiet shortcuts.
func provideLoggerWithConfig(cfg *config.Config) Logger {
	if cfg == nil {
		return provideLogger()
	}
	return newSlogAdapter(cfg.Logging.Format, levelFromConfig(cfg))
}

func levelFromConfig(cfg *config.Config) slog.Level {
	switch {
	case cfg.Logging.Quiet:
		return slog.LevelWarn
	case cfg.Logging.Verbose:
		return slog.LevelDebug
	}
	switch cfg.Logging.Level {
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

func newSlogAdapter(format string, level slog.Level) *slogAdapter {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return &slogAdapter{logger: slog.New(handler)}
}

// slogAdapter bridges slog.Logger to the Logger interface the rest of the
// application consumes.
type slogAdapter struct {
	logger *slog.Logger
}

func (s *slogAdapter) Debug(msg string, args ...any) { s.logger.Debug(msg, args...) }
func (s *slogAdapter) Info(msg string, args ...any)  { s.logger.Info(msg, args...) }
func (s *slogAdapter) Warn(msg string, args ...any)  { s.logger.Warn(msg, args...) }
func (s *slogAdapter) Error(msg string, args ...any) { s.logger.Error(msg, args...) }
