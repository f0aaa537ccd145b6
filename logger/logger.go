package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var slogLevels = map[LogLevel]slog.Level{
	DEBUG: slog.LevelDebug,
	INFO:  slog.LevelInfo,
	WARN:  slog.LevelWarn,
	ERROR: slog.LevelError,
	FATAL: slog.LevelError + 4,
}

// ParseLevel maps a config string to a level. Unknown values fall back to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

// Config describes how the logger should be initialised.
type Config struct {
	Level LogLevel
	// Format is "console" (tint) or "json".
	Format string
	// OutputPath is "stdout", "stderr" or a file path. Ignored when Output is set.
	OutputPath string
	Output     io.Writer
	// UseColor is honoured only when the output is a terminal.
	UseColor bool
	Prefix   string
}

var (
	mu          sync.RWMutex
	base        *slog.Logger
	atomicLevel = new(slog.LevelVar)
	exitFunc    = os.Exit
)

// Initialize builds the process logger. It may be called again to reconfigure.
func Initialize(config Config) error {
	writer := config.Output
	if writer == nil {
		w, err := openOutput(config.OutputPath)
		if err != nil {
			return err
		}
		writer = w
	}

	atomicLevel.Set(slogLevels[config.Level])

	var handler slog.Handler
	if strings.EqualFold(config.Format, "json") {
		handler = slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: atomicLevel})
	} else {
		handler = tint.NewHandler(writer, &tint.Options{
			Level:      atomicLevel,
			TimeFormat: time.DateTime,
			NoColor:    !config.UseColor || !isTerminal(writer),
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == "error" && a.Value.Kind() == slog.KindAny {
					if err, ok := a.Value.Any().(error); ok {
						return tint.Err(err)
					}
				}
				if a.Key == slog.LevelKey && len(groups) == 0 {
					if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == slogLevels[FATAL] {
						return slog.String(slog.LevelKey, "FATAL")
					}
				}
				return a
			},
		})
	}

	l := slog.New(handler)
	if config.Prefix != "" {
		l = l.With("component", config.Prefix)
	}

	mu.Lock()
	base = l
	mu.Unlock()
	return nil
}

func openOutput(path string) (io.Writer, error) {
	switch strings.ToLower(path) {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return file, nil
	}
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// Slog returns the underlying structured logger, creating a console default if needed.
func Slog() *slog.Logger {
	mu.RLock()
	l := base
	mu.RUnlock()
	if l != nil {
		return l
	}

	_ = Initialize(Config{Level: INFO, UseColor: true})
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func logf(level LogLevel, attrs []any, format string, args ...interface{}) {
	l := Slog()
	l.Log(context.Background(), slogLevels[level], fmt.Sprintf(format, args...), attrs...)
	if level == FATAL {
		exitFunc(1)
	}
}

func Debug(format string, args ...interface{}) { logf(DEBUG, nil, format, args...) }

func Info(format string, args ...interface{}) { logf(INFO, nil, format, args...) }

func Warn(format string, args ...interface{}) { logf(WARN, nil, format, args...) }

func Error(format string, args ...interface{}) { logf(ERROR, nil, format, args...) }

// Fatal logs and exits the process.
func Fatal(format string, args ...interface{}) { logf(FATAL, nil, format, args...) }

// WithFields attaches structured fields to the log entry.
func WithFields(fields map[string]interface{}) *LogEntry {
	return &LogEntry{fields: fields}
}

// LogEntry represents a structured log entry builder.
type LogEntry struct {
	fields map[string]interface{}
}

func (e *LogEntry) attrs() []any {
	attrs := make([]any, 0, len(e.fields))
	for k, v := range e.fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

func (e *LogEntry) Debug(format string, args ...interface{}) { e.Log(DEBUG, format, args...) }

func (e *LogEntry) Info(format string, args ...interface{}) { e.Log(INFO, format, args...) }

func (e *LogEntry) Warn(format string, args ...interface{}) { e.Log(WARN, format, args...) }

func (e *LogEntry) Error(format string, args ...interface{}) { e.Log(ERROR, format, args...) }

func (e *LogEntry) Fatal(format string, args ...interface{}) { e.Log(FATAL, format, args...) }

// Log allows emitting a message with an explicit level via the entry.
func (e *LogEntry) Log(level LogLevel, format string, args ...interface{}) {
	logf(level, e.attrs(), format, args...)
}

// SetLevel updates the global logging level.
func SetLevel(level LogLevel) {
	atomicLevel.Set(slogLevels[level])
}

// GetLevel returns the current global logging level.
func GetLevel() LogLevel {
	current := atomicLevel.Level()
	for lvl, s := range slogLevels {
		if s == current {
			return lvl
		}
	}
	return INFO
}
