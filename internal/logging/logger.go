package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level orders log severities; lines below the configured level are dropped.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel maps a LOG_LEVEL value to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

var minLevel atomic.Int32

func init() {
	minLevel.Store(int32(LevelInfo))
}

// SetLevel changes the process-wide minimum level.
func SetLevel(l Level) {
	minLevel.Store(int32(l))
}

// Options configures the process-wide log output.
type Options struct {
	Level      string
	File       string // rotating file sink, stderr only when empty
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup points the standard logger at stderr and, when a file is configured,
// a size-rotated log file. The returned closer releases the file.
func Setup(opts Options) io.Closer {
	SetLevel(ParseLevel(opts.Level))
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if opts.File == "" {
		log.SetOutput(os.Stderr)
		return io.NopCloser(nil)
	}

	if opts.MaxSizeMB == 0 {
		opts.MaxSizeMB = 50
	}
	if opts.MaxBackups == 0 {
		opts.MaxBackups = 5
	}
	if opts.MaxAgeDays == 0 {
		opts.MaxAgeDays = 14
	}

	sink := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, sink))
	return sink
}

type requestIDKey struct{}

// WithRequestID stores a request ID on ctx for loggers built from it.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, rid)
}

// RequestID extracts the request ID stored by WithRequestID.
func RequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}

// Logger provides structured logging for services
type Logger struct {
	component string
	requestID string
}

// New creates a logger for a component with no request context.
func New(component string) *Logger {
	return &Logger{component: component}
}

// FromContext creates a component logger carrying the request ID from ctx.
func FromContext(ctx context.Context, component string) *Logger {
	return &Logger{component: component, requestID: RequestID(ctx)}
}

// With returns a copy bound to the request ID carried by ctx, if any.
func (l *Logger) With(ctx context.Context) *Logger {
	if l == nil {
		return FromContext(ctx, "")
	}
	rid := RequestID(ctx)
	if rid == "" {
		return l
	}
	return &Logger{component: l.component, requestID: rid}
}

func (l *Logger) Debugf(operation string, format string, args ...any) {
	l.output(LevelDebug, operation, fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(operation string, format string, args ...any) {
	l.output(LevelInfo, operation, fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(operation string, format string, args ...any) {
	l.output(LevelWarn, operation, fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(operation string, format string, args ...any) {
	l.output(LevelError, operation, fmt.Sprintf(format, args...))
}

// Error logs err for operation at error level.
func (l *Logger) Error(operation string, err error) {
	l.output(LevelError, operation, "error="+fmt.Sprint(err))
}

func (l *Logger) output(level Level, operation, msg string) {
	if int32(level) < minLevel.Load() {
		return
	}

	var b strings.Builder
	b.WriteString("[")
	b.WriteString(level.String())
	b.WriteString("]")
	if l != nil && l.component != "" {
		b.WriteString(" component=")
		b.WriteString(l.component)
	}
	if l != nil && l.requestID != "" {
		b.WriteString(" request_id=")
		b.WriteString(l.requestID)
	}
	b.WriteString(" operation=")
	b.WriteString(operation)
	b.WriteString(" ")
	b.WriteString(msg)

	_ = log.Output(3, b.String())
}
