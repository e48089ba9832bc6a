package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rebeliceyang/lazyfilter/internal/config"
)

var (
	logFiles   []*lumberjack.Logger
	logFilesMu sync.Mutex
)

// Initialize sets up the global logger based on configuration
func Initialize(cfg config.LoggingConfig) (*slog.Logger, error) {
	logger, err := NewLogger(cfg, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	slog.SetDefault(logger)
	logger.Info("logging initialized",
		"level", cfg.Level,
		"format", cfg.Format,
		"file", filepath.Join(cfg.Dir, cfg.File),
		"console", cfg.Console,
	)
	return logger, nil
}

// NewLogger creates a logger writing to a rotated file and, when console is
// enabled, to console. The terminal belongs to the UI, so console output is
// off unless asked for.
func NewLogger(cfg config.LoggingConfig, console io.Writer) (*slog.Logger, error) {
	level := parseLevel(cfg.Level)
	var handlers []slog.Handler

	if cfg.Dir != "" && cfg.File != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, cfg.File),
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		registerLogFile(file)
		handlers = append(handlers, createHandler(file, cfg.Format, level))
	}

	if cfg.Console && console != nil {
		handlers = append(handlers, NewLevelFilter(createHandler(console, cfg.Format, level), slog.LevelWarn))
	}

	switch len(handlers) {
	case 0:
		return slog.New(slog.NewTextHandler(io.Discard, nil)), nil
	case 1:
		return slog.New(handlers[0]), nil
	default:
		return slog.New(NewMultiHandler(handlers...)), nil
	}
}

// Shutdown closes all log files
func Shutdown() error {
	logFilesMu.Lock()
	defer logFilesMu.Unlock()

	for _, logFile := range logFiles {
		if err := logFile.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
	}

	logFiles = nil
	return nil
}

func registerLogFile(logFile *lumberjack.Logger) {
	logFilesMu.Lock()
	defer logFilesMu.Unlock()
	logFiles = append(logFiles, logFile)
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

func createHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
