package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type contextKey struct{}

// ContextWithLogger returns a derived context that carries the provided logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts a logger previously attached to the context.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(contextKey{}).(*slog.Logger)
	return logger
}

// Options controls construction of the process logger.
type Options struct {
	// Level is one of "debug", "info", "warn", "error". Unknown values fall
	// back to info.
	Level string
	// Directory, when non-empty, enables a size-rotated log file alongside
	// stdout output.
	Directory string
	// FileName names the rotated file inside Directory. Defaults to
	// "courseadmin.log".
	FileName string
	// MaxSizeMB caps each log file before rotation. Defaults to 50.
	MaxSizeMB int
	// MaxBackups caps retained rotated files. Defaults to 5.
	MaxBackups int
	// MaxAgeDays caps retention of rotated files. Defaults to 30.
	MaxAgeDays int
}

// NewLogger builds a JSON slog logger writing to stdout and, when a directory
// is configured, to a size-rotated log file as well.
func NewLogger(opts Options) *slog.Logger {
	var out io.Writer = os.Stdout
	if opts.Directory != "" {
		name := opts.FileName
		if name == "" {
			name = "courseadmin.log"
		}
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 50
		}
		maxBackups := opts.MaxBackups
		if maxBackups <= 0 {
			maxBackups = 5
		}
		maxAge := opts.MaxAgeDays
		if maxAge <= 0 {
			maxAge = 30
		}
		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Directory, name),
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			MaxAge:     maxAge,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotator)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: parseLevel(opts.Level)})
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
