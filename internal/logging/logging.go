// Package logging configures the process-wide slog logger, with optional
// rotation of log files.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/swayamsankar/intern-app/internal/config"
)

// Init builds a logger from cfg, installs it as the slog default and
// returns it.
func Init(cfg config.LogConfig) (*slog.Logger, error) {
	output, err := writer(cfg)
	if err != nil {
		return nil, err
	}
	logger := New(output, cfg.Level, cfg.Format)
	slog.SetDefault(logger)
	return logger, nil
}

// New returns a logger writing to w. Unknown levels fall back to info and
// any format other than "text" is JSON.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}
	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

func writer(cfg config.LogConfig) (io.Writer, error) {
	switch strings.ToLower(cfg.Output) {
	case "file", "both":
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, err
		}
		rotating := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		if strings.EqualFold(cfg.Output, "both") {
			return io.MultiWriter(os.Stdout, rotating), nil
		}
		return rotating, nil
	case "stderr":
		return os.Stderr, nil
	default:
		return os.Stdout, nil
	}
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
