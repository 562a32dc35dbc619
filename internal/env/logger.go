package environment

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cnorder-bot/internal/config"
)

const serviceName = "cnorder-bot"

func initLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := parseLogLevel(cfg.Logger.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// Локально читаем глазами, на сервере логи собираются в JSON
	var handler slog.Handler
	if cfg.Env == "local" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler).With("service", serviceName, "env", cfg.Env), nil
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown LOGGER_LEVEL %q", level)
	}
}
