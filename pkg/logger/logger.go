package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	runIDKey         contextKey = "run_id"
	loggerKey        contextKey = "logger"
)

// Output formats accepted by NewWithFormat.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// New logs JSON to stdout, the format the log shipper expects.
func New(serviceName, level string) *slog.Logger {
	return NewWithWriter(serviceName, level, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(serviceName, level string, w io.Writer) *slog.Logger {
	return NewWithFormat(serviceName, level, FormatJSON, w)
}

// NewWithFormat picks the handler by format. catalogctl uses FormatText on
// stderr; anything other than FormatText means JSON. Debug level also
// records the source location.
func NewWithFormat(serviceName, level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	opts.AddSource = opts.Level == slog.LevelDebug

	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if format == FormatText {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With(slog.String("service", serviceName))
}

// ParseLevel accepts debug, info, warn (or warning) and error in any case.
// Anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func stringValue(ctx context.Context, key contextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// WithCorrelationID stores the id of the HTTP request being served.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext returns "" when no id was stored.
func CorrelationIDFromContext(ctx context.Context) string {
	return stringValue(ctx, correlationIDKey)
}

// WithRunID stores the id of the seed or import run in progress.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

func RunIDFromContext(ctx context.Context) string {
	return stringValue(ctx, runIDKey)
}

// NewContext attaches l so handlers further down can log through it.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger attached by NewContext, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// WithContext adds whichever of correlation_id, run_id and the active
// trace_id/span_id pair ctx carries.
func WithContext(ctx context.Context, l *slog.Logger) *slog.Logger {
	var attrs []any
	if id := CorrelationIDFromContext(ctx); id != "" {
		attrs = append(attrs, slog.String("correlation_id", id))
	}
	if id := RunIDFromContext(ctx); id != "" {
		attrs = append(attrs, slog.String("run_id", id))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	if len(attrs) == 0 {
		return l
	}
	return l.With(attrs...)
}
