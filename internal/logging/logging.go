// Package logging provides structured logging with slog for quwei.
//
// Features:
//   - JSON and text output formats
//   - Log levels (debug, info, warn, error), adjustable at runtime
//   - Per-session child loggers
//   - Redaction of typed text below debug level
//   - Size and daily log rotation
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"quwei/internal/config"
)

// Level represents a logging level.
type Level = slog.Level

// Log levels.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Format represents the output format for logs.
type Format int

const (
	// FormatText outputs human-readable text logs.
	FormatText Format = iota
	// FormatJSON outputs JSON-structured logs.
	FormatJSON
)

// Config holds the logging configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level Level

	// Format is the output format (text or JSON).
	Format Format

	// Output specifies where logs are written.
	// Can be "stdout", "stderr", "file", or "both".
	Output string

	// Writer, when set, replaces Output.
	Writer io.Writer

	// FilePath is the path to the log file when Output includes "file".
	FilePath string

	// MaxSize is the maximum size of a log file in megabytes before rotation.
	MaxSize int64

	// MaxAge is the maximum age of log files in days before deletion.
	MaxAge int

	// MaxBackups is the maximum number of rotated log files to keep.
	MaxBackups int

	// Compress determines if rotated logs should be gzip compressed.
	Compress bool

	// Component is the name of the component using this logger.
	Component string
}

// DefaultConfig returns a default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:      LevelInfo,
		Format:     FormatText,
		Output:     "stderr",
		FilePath:   config.DefaultConfig().Logging.FilePath,
		MaxSize:    10,
		MaxAge:     30,
		MaxBackups: 3,
		Compress:   true,
		Component:  "quwei",
	}
}

// FromSettings converts the [logging] section of the configuration file.
func FromSettings(s config.LoggingConfig, component string) (*Config, error) {
	level, err := ParseLevel(s.Level)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Level:      level,
		Format:     FormatText,
		Output:     s.Output,
		FilePath:   s.FilePath,
		MaxSize:    int64(s.MaxSizeMB),
		MaxAge:     s.MaxAgeDays,
		MaxBackups: s.MaxBackups,
		Compress:   s.Compress,
		Component:  component,
	}
	if strings.EqualFold(s.Format, "json") {
		cfg.Format = FormatJSON
	}
	return cfg, nil
}

// Logger wraps slog.Logger with additional functionality.
type Logger struct {
	*slog.Logger
	config  *Config
	level   *slog.LevelVar
	rotator *FileRotator
	mu      sync.Mutex
}

var (
	defaultLogger *Logger
	defaultMu     sync.Mutex
)

// Default returns the default global logger.
func Default() *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultLogger == nil {
		l, err := New(DefaultConfig())
		if err != nil {
			l = &Logger{
				Logger: slog.Default(),
				config: DefaultConfig(),
				level:  new(slog.LevelVar),
			}
		}
		defaultLogger = l
	}
	return defaultLogger
}

// SetDefault sets the default global logger.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
	slog.SetDefault(l.Logger)
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	l, _ := New(&Config{Level: LevelError, Writer: io.Discard})
	return l
}

// New creates a new Logger with the given configuration.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	l := &Logger{
		config: cfg,
		level:  new(slog.LevelVar),
	}
	l.level.Set(cfg.Level)

	w, err := l.setupWriter()
	if err != nil {
		return nil, fmt.Errorf("setup writers: %w", err)
	}

	opts := &slog.HandlerOptions{
		Level: l.level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if shouldRedact(a.Key, l.level.Level()) {
				a.Value = slog.StringValue("[REDACTED]")
			}
			return a
		},
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	if cfg.Component != "" {
		handler = handler.WithAttrs([]slog.Attr{
			slog.String("component", cfg.Component),
		})
	}

	l.Logger = slog.New(handler)
	return l, nil
}

func (l *Logger) setupWriter() (io.Writer, error) {
	if l.config.Writer != nil {
		return l.config.Writer, nil
	}

	switch strings.ToLower(l.config.Output) {
	case "stdout":
		return os.Stdout, nil
	case "file", "both":
		rotator, err := NewFileRotator(l.config)
		if err != nil {
			return nil, err
		}
		l.rotator = rotator
		if strings.EqualFold(l.config.Output, "both") {
			return io.MultiWriter(os.Stderr, rotator), nil
		}
		return rotator, nil
	default:
		return os.Stderr, nil
	}
}

// Text keys carry what the user typed and are only written at debug level.
var textKeys = map[string]bool{
	"text":    true,
	"commit":  true,
	"preedit": true,
	"phrase":  true,
	"input":   true,
}

var secretKeys = []string{"password", "secret", "token", "credential"}

// shouldRedact reports whether an attribute must be masked at the given level.
func shouldRedact(key string, level Level) bool {
	keyLower := strings.ToLower(key)
	if textKeys[keyLower] {
		return level > LevelDebug
	}
	for _, s := range secretKeys {
		if strings.Contains(keyLower, s) {
			return true
		}
	}
	return false
}

// SetLevel changes the minimum level of this logger and all loggers derived
// from it.
func (l *Logger) SetLevel(level Level) {
	l.level.Set(level)
}

// Level returns the current minimum level.
func (l *Logger) Level() Level {
	return l.level.Level()
}

// WithSession returns a child logger tagged with an input context id.
func (l *Logger) WithSession(id string) *Logger {
	return l.derive(l.Logger.With(slog.String("session", id)))
}

// WithComponent returns a new logger with a different component name.
func (l *Logger) WithComponent(name string) *Logger {
	return l.derive(l.Logger.With(slog.String("component", name)))
}

func (l *Logger) derive(sl *slog.Logger) *Logger {
	return &Logger{
		Logger:  sl,
		config:  l.config,
		level:   l.level,
		rotator: l.rotator,
	}
}

// Close closes any open log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}

// Error logs at error level using the default logger.
func Error(msg string, args ...any) {
	Default().Error(msg, args...)
}

// ParseLevel parses a string into a log level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// LevelString returns the string representation of a log level.
func LevelString(level Level) string {
	switch level {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}
