package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var logLevel = new(slog.LevelVar)

// SetupLogging configures the global slog logger based on config. The level
// can later be changed with SetLogLevel without replacing the handler.
func SetupLogging(cfg LoggingConfig) {
	slog.SetDefault(slog.New(newHandler(os.Stdout, cfg)))
}

// SetLogLevel changes the level of the logger installed by SetupLogging.
func SetLogLevel(level string) {
	logLevel.Set(parseLevel(level))
}

func newHandler(w io.Writer, cfg LoggingConfig) slog.Handler {
	logLevel.Set(parseLevel(cfg.Level))
	opts := &slog.HandlerOptions{Level: logLevel}

	if strings.ToLower(cfg.Format) == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
