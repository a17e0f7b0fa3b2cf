package log

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
)

var (
	levelVar = new(slog.LevelVar)
	loggerMu sync.RWMutex
	logger   = newLogger()
)

func init() {
	levelVar.Set(slog.LevelInfo)
}

type attrsKey struct{}

func newLogger() *slog.Logger {
	return slog.New(newHandler(os.Stdout))
}

func replaceAttr(groups []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "ts"
		if attr.Value.Kind() == slog.KindTime {
			attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339Nano))
		}
	case slog.LevelKey:
		attr.Key = "level"
		attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
	case slog.MessageKey:
		attr.Key = "msg"
	}
	return attr
}

func newHandler(w io.Writer) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: levelVar, ReplaceAttr: replaceAttr})
}

func newJSONHandler(w io.Writer) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: levelVar, ReplaceAttr: replaceAttr})
}

func newPrettyHandler(w io.Writer) slog.Handler {
	return tint.NewHandler(w, &tint.Options{Level: levelVar, TimeFormat: time.TimeOnly})
}

// SetLevel updates the minimum logging level accepted by the global logger.
// Supported levels are "debug", "info", "warn", and "error". Values are case-insensitive.
func SetLevel(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		levelVar.Set(slog.LevelInfo)
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn", "warning":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %s", level)
	}
	return nil
}

// SetFormat switches the output encoding of the global logger. Supported
// formats are "text" (logfmt), "json" and "pretty".
func SetFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text", "logfmt":
		setLogger(slog.New(newHandler(os.Stdout)))
	case "json":
		setLogger(slog.New(newJSONHandler(os.Stdout)))
	case "pretty":
		setLogger(slog.New(newPrettyHandler(os.Stdout)))
	default:
		return fmt.Errorf("unknown log format: %s", format)
	}
	return nil
}

// Logger returns the underlying slog.Logger instance.
func Logger() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

func setLogger(l *slog.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// ReplaceLogger installs a custom slog.Logger.
func ReplaceLogger(l *slog.Logger) {
	if l == nil {
		panic("log: nil logger provided")
	}
	setLogger(l)
}

// WithAttrs returns a context carrying attributes that every log call made
// with it will include, such as a request id.
func WithAttrs(ctx context.Context, args ...any) context.Context {
	ctx = withContext(ctx)
	existing, _ := ctx.Value(attrsKey{}).([]any)
	merged := make([]any, 0, len(existing)+len(args))
	merged = append(merged, existing...)
	merged = append(merged, args...)
	return context.WithValue(ctx, attrsKey{}, merged)
}

func withAttrs(ctx context.Context, args []any) []any {
	existing, _ := ctx.Value(attrsKey{}).([]any)
	if len(existing) == 0 {
		return args
	}
	merged := make([]any, 0, len(existing)+len(args))
	merged = append(merged, existing...)
	return append(merged, args...)
}

// Info logs a message at the info level using the global logger.
func Info(ctx context.Context, msg string, args ...any) {
	ctx = withContext(ctx)
	Logger().InfoContext(ctx, msg, withAttrs(ctx, args)...)
}

// Debug logs a message at the debug level using the global logger.
func Debug(ctx context.Context, msg string, args ...any) {
	ctx = withContext(ctx)
	Logger().DebugContext(ctx, msg, withAttrs(ctx, args)...)
}

// Warn logs a message at the warn level using the global logger.
func Warn(ctx context.Context, msg string, args ...any) {
	ctx = withContext(ctx)
	Logger().WarnContext(ctx, msg, withAttrs(ctx, args)...)
}

// Error logs a message at the error level using the global logger.
func Error(ctx context.Context, msg string, args ...any) {
	ctx = withContext(ctx)
	Logger().ErrorContext(ctx, msg, withAttrs(ctx, args)...)
}

func withContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
