package logger

import (
	"log/slog"
	"os"
)

// Config selects the level and output format for the process-wide logger.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json (default) or text
}

// Init replaces slog's default logger. Unknown levels fall back to info,
// unknown formats to JSON.
func Init(cfg *Config) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.Format == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func parseLevel(s string) slog.Level {
	switch s {
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
