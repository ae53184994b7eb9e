package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	ServiceKey   contextKey = "service"
)

// contextFields are copied from the context onto every *Context log line, in this order.
var contextFields = []contextKey{RequestIDKey, UserIDKey, ServiceKey}

// current is swapped by Init and SetOutput while background sends may still be logging.
var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(newJSONLogger(os.Stdout, "info"))
}

func newJSONLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
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

// Init replaces the process logger. Call once from main before serving.
func Init(level string) {
	l := newJSONLogger(os.Stdout, level)
	current.Store(l)
	slog.SetDefault(l)
}

// SetOutput redirects the logger, mainly so tests can capture log lines.
func SetOutput(w io.Writer, level string) {
	current.Store(newJSONLogger(w, level))
}

func Default() *slog.Logger {
	return current.Load()
}

func contextAttrs(ctx context.Context) []any {
	var attrs []any
	for _, key := range contextFields {
		if v := ctx.Value(key); v != nil {
			attrs = append(attrs, string(key), v)
		}
	}
	return attrs
}

// WithContext returns the logger with request_id, user_id and service attached when present.
func WithContext(ctx context.Context) *slog.Logger {
	l := current.Load()
	if attrs := contextAttrs(ctx); len(attrs) > 0 {
		return l.With(attrs...)
	}
	return l
}

func logAt(ctx context.Context, level slog.Level, msg string, args []any) {
	l := current.Load()
	if !l.Enabled(ctx, level) {
		return
	}
	l.Log(ctx, level, msg, append(contextAttrs(ctx), args...)...)
}

func Debug(msg string, args ...any) { logAt(context.Background(), slog.LevelDebug, msg, args) }
func Info(msg string, args ...any) { logAt(context.Background(), slog.LevelInfo, msg, args) }
func Warn(msg string, args ...any) { logAt(context.Background(), slog.LevelWarn, msg, args) }
func Error(msg string, args ...any) { logAt(context.Background(), slog.LevelError, msg, args) }

func DebugContext(ctx context.Context, msg string, args ...any) {
	logAt(ctx, slog.LevelDebug, msg, args)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	logAt(ctx, slog.LevelInfo, msg, args)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	logAt(ctx, slog.LevelWarn, msg, args)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	logAt(ctx, slog.LevelError, msg, args)
}
