// Package logging настраивает структурированный логгер сервиса.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger - минимальный интерфейс, который ожидают сервисы.
// *slog.Logger ему удовлетворяет.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// New создаёт логгер: JSON в production, текст в остальных окружениях
func New(appEnv, level string) *slog.Logger {
	return newWithWriter(os.Stdout, appEnv, level)
}

func newWithWriter(w io.Writer, appEnv, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	if appEnv == "production" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Nop - логгер, который ничего не пишет (для тестов)
func Nop() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
