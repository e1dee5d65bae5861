// Package logging provides structured JSON logging for todoboard.
// Store round trips and board mutations are logged through zerolog with
// task, store and operation fields; file output rotates via lumberjack.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents a log level.
type Level = zerolog.Level

// Log levels for convenience.
const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
)

// Field names shared by every log line.
const (
	FieldTaskID    = "task_id"
	FieldCommand   = "command"
	FieldOperation = "operation"
	FieldStore     = "store"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level Level

	// JSON selects JSON lines on stderr; otherwise a console writer is used
	JSON bool

	// FilePath is the path to the log file (empty for stderr only)
	FilePath string

	// Rotation limits for FilePath, in megabytes, files and days
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool

	// Console mirrors file output to stderr
	Console bool
}

// DefaultConfig returns the CLI defaults: warnings and errors only, so
// command output stays clean.
func DefaultConfig() *Config {
	return &Config{
		Level:      WarnLevel,
		JSON:       true,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     7,
		Compress:   true,
	}
}

// Logger wraps zerolog.Logger with board-specific context fields.
type Logger struct {
	zl zerolog.Logger
}

var (
	globalLogger *Logger
	globalFile   *lumberjack.Logger
	loggerMu     sync.RWMutex
)

// Init replaces the global logger. If cfg is nil, defaults are used.
func Init(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var (
		writers []io.Writer
		file    *lumberjack.Logger
	)

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return err
		}
		file = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		writers = append(writers, file)
	}

	if cfg.Console || cfg.FilePath == "" {
		if cfg.JSON {
			writers = append(writers, os.Stderr)
		} else {
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		}
	}

	output := writers[0]
	if len(writers) > 1 {
		output = zerolog.MultiLevelWriter(writers...)
	}

	loggerMu.Lock()
	defer loggerMu.Unlock()
	if globalFile != nil {
		_ = globalFile.Close()
	}
	globalLogger = New(output, cfg.Level)
	globalFile = file

	return nil
}

// Close flushes and closes the log file, if any.
func Close() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if globalFile == nil {
		return nil
	}
	err := globalFile.Close()
	globalFile = nil
	return err
}

// New creates a standalone logger writing JSON lines to w.
func New(w io.Writer, level Level) *Logger {
	return &Logger{
		zl: zerolog.New(w).Level(level).With().Timestamp().Logger(),
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Get returns the global logger, initializing with defaults if needed.
func Get() *Logger {
	loggerMu.RLock()
	l := globalLogger
	loggerMu.RUnlock()
	if l != nil {
		return l
	}

	_ = Init(nil)
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return globalLogger
}

func (l *Logger) with(key, value string) *Logger {
	return &Logger{zl: l.zl.With().Str(key, value).Logger()}
}

// WithTaskID returns a new logger with the task_id field set.
func (l *Logger) WithTaskID(taskID string) *Logger { return l.with(FieldTaskID, taskID) }

// WithCommand returns a new logger with the command field set.
func (l *Logger) WithCommand(command string) *Logger { return l.with(FieldCommand, command) }

// WithOperation returns a new logger with the operation field set
// (change_status, reassign_priority, delete, ...).
func (l *Logger) WithOperation(operation string) *Logger { return l.with(FieldOperation, operation) }

// WithStore returns a new logger with the store field set.
func (l *Logger) WithStore(name string) *Logger { return l.with(FieldStore, name) }

// WithFields returns a new logger with additional fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zl.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zl: ctx.Logger()}
}

// WithError returns a new logger with the error field set.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zl: l.zl.With().Err(err).Logger()}
}

// Enabled reports whether messages at level are written.
func (l *Logger) Enabled(level Level) bool {
	return l.zl.GetLevel() <= level
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) { l.zl.Debug().Msg(msg) }

// Info logs an info message.
func (l *Logger) Info(msg string) { l.zl.Info().Msg(msg) }

// Warn logs a warning message.
func (l *Logger) Warn(msg string) { l.zl.Warn().Msg(msg) }

// Error logs an error message.
func (l *Logger) Error(msg string) { l.zl.Error().Msg(msg) }

// Debugf logs a formatted debug message.
func (l *Logger) Debugf(format string, args ...interface{}) { l.zl.Debug().Msgf(format, args...) }

// Warnf logs a formatted warning message.
func (l *Logger) Warnf(format string, args ...interface{}) { l.zl.Warn().Msgf(format, args...) }

// ParseLevel parses a level string into a Level.
func ParseLevel(level string) (Level, error) {
	return zerolog.ParseLevel(level)
}

// WithCommand returns a global logger with command set.
func WithCommand(command string) *Logger {
	return Get().WithCommand(command)
}

// WithError returns a global logger with the error set.
func WithError(err error) *Logger {
	return Get().WithError(err)
}

// LoggingConfig mirrors the logging section of the config file.
type LoggingConfig struct {
	Level      string
	FilePath   string
	JSON       bool
	Console    bool
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// InitFromLogConfig initializes the global logger from the config file
// section. Zero rotation limits keep the defaults.
func InitFromLogConfig(lc LoggingConfig) error {
	cfg := DefaultConfig()

	if lc.Level != "" {
		level, err := ParseLevel(lc.Level)
		if err != nil {
			return err
		}
		cfg.Level = level
	}

	cfg.FilePath = lc.FilePath
	cfg.JSON = lc.JSON
	cfg.Console = lc.Console
	cfg.Compress = lc.Compress
	if lc.MaxSize > 0 {
		cfg.MaxSize = lc.MaxSize
	}
	if lc.MaxBackups > 0 {
		cfg.MaxBackups = lc.MaxBackups
	}
	if lc.MaxAge > 0 {
		cfg.MaxAge = lc.MaxAge
	}

	return Init(cfg)
}
