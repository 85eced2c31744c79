package obs

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LoggerOptions tune NewLogger beyond the environment switch.
type LoggerOptions struct {
	Level string
	// File, when set, receives a rotated copy of every record next to stdout.
	File string
}

// NewLogger configures slog logger with colorful dev output and JSON for production-like envs.
func NewLogger(env string, opts LoggerOptions) *slog.Logger {
	level := ParseLevel(opts.Level)
	if env == "dev" || env == "local" {
		handler := tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
			AddSource:  true,
		})
		if opts.File == "" {
			return slog.New(handler)
		}
		return slog.New(fanout{handler, slog.NewJSONHandler(rotating(opts.File), &slog.HandlerOptions{Level: level})})
	}
	var writer io.Writer = os.Stdout
	if opts.File != "" {
		writer = io.MultiWriter(os.Stdout, rotating(opts.File))
	}
	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	})
	return slog.New(handler)
}

func ParseLevel(raw string) slog.Level {
	switch raw {
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

func rotating(path string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     14,
		Compress:   true,
	}
}
