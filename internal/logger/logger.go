// Package logger is the process-wide structured logger for the billing tool.
// When tracing is on, records logged under an operation carry its trace and
// span ids, and operations are exported as spans.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "brokerage-billing"

var (
	base = slog.New(slog.NewTextHandler(os.Stderr, nil))
	// withSource adds the caller's function, file and line to every record.
	withSource bool
	// tracer is nil while tracing is off.
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level           string    // DEBUG, INFO, WARN, ERROR
	Format          string    // json or text
	DetailedLogging bool      // Add caller source to records
	TracingEnabled  bool      // Export operation spans
	Output          io.Writer // defaults to stdout
	TraceOutput     io.Writer // defaults to stdout
}

// InitWithConfig replaces the logger. A tracer that cannot be built only
// disables tracing.
func InitWithConfig(cfg LogConfig) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	withSource = cfg.DetailedLogging || level <= slog.LevelDebug

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(out, opts)
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(out, opts)
	}
	base = slog.New(h)
	slog.SetDefault(base)

	tracer, provider = nil, nil
	if !cfg.TracingEnabled {
		return nil
	}
	p, err := newTracerProvider(cfg.TraceOutput)
	if err != nil {
		base.Warn("Tracing disabled", "error", err)
		return nil
	}
	otel.SetTracerProvider(p)
	provider, tracer = p, p.Tracer(serviceName)
	return nil
}

func newTracerProvider(w io.Writer) (*sdktrace.TracerProvider, error) {
	opts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
	if w != nil {
		opts = append(opts, stdouttrace.WithWriter(w))
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

// Shutdown flushes pending spans.
func Shutdown(ctx context.Context) error {
	if provider == nil {
		return nil
	}
	return provider.Shutdown(ctx)
}

func Debug(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelDebug, msg, args...)
}

func Info(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelInfo, msg, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelWarn, msg, args...)
}

// ErrorWithErr logs err and marks the operation span in ctx as failed.
func ErrorWithErr(ctx context.Context, msg string, err error, args ...any) {
	if tracer != nil {
		if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	emit(ctx, slog.LevelError, msg, append([]any{"error", err}, args...)...)
}

// emit must be called directly by an exported helper so the caller frame is
// two levels up.
func emit(ctx context.Context, level slog.Level, msg string, args ...any) {
	if !base.Enabled(ctx, level) {
		return
	}
	if tracer != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			args = append([]any{"trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String()}, args...)
		}
	}
	if withSource {
		if pc, file, line, ok := runtime.Caller(2); ok {
			args = append(args, slog.Group("source",
				slog.String("function", runtime.FuncForPC(pc).Name()),
				slog.String("file", file),
				slog.Int("line", line),
			))
		}
	}
	base.Log(ctx, level, msg, args...)
}

// OperationTimer times one use-case call and, with tracing on, owns its span.
type OperationTimer struct {
	ctx    context.Context
	span   trace.Span
	start  time.Time
	fields []any
}

// StartOperation begins an operation named name. fields are repeated on
// every record the timer writes.
func StartOperation(ctx context.Context, name string, fields ...any) *OperationTimer {
	fields = append([]any{"operation", name}, fields...)
	var span trace.Span
	if tracer != nil {
		ctx, span = tracer.Start(ctx, name, trace.WithAttributes(toAttributes(fields)...))
	}

	ot := &OperationTimer{ctx: ctx, span: span, start: time.Now(), fields: fields}
	Debug(ctx, "Operation started", fields...)
	return ot
}

// Context returns the context carrying the operation span.
func (ot *OperationTimer) Context() context.Context {
	return ot.ctx
}

// End logs the operation's duration at info level.
func (ot *OperationTimer) End(fields ...any) {
	elapsed := ot.finish(fields, nil)
	Info(ot.ctx, "Operation completed", ot.record(elapsed, fields)...)
}

// EndWithError logs the failure together with the operation's duration.
func (ot *OperationTimer) EndWithError(err error, fields ...any) {
	elapsed := ot.finish(fields, err)
	emit(ot.ctx, slog.LevelError, "Operation failed", ot.record(elapsed, append([]any{"error", err}, fields...))...)
}

func (ot *OperationTimer) finish(fields []any, err error) time.Duration {
	elapsed := time.Since(ot.start)
	if ot.span == nil {
		return elapsed
	}
	ot.span.SetAttributes(attribute.Int64("duration_ms", elapsed.Milliseconds()))
	ot.span.SetAttributes(toAttributes(fields)...)
	if err != nil {
		ot.span.RecordError(err)
		ot.span.SetStatus(codes.Error, err.Error())
	} else {
		ot.span.SetStatus(codes.Ok, "")
	}
	ot.span.End()
	return elapsed
}

func (ot *OperationTimer) record(elapsed time.Duration, extra []any) []any {
	out := make([]any, 0, len(ot.fields)+len(extra)+2)
	out = append(out, ot.fields...)
	out = append(out, "duration_ms", elapsed.Milliseconds())
	return append(out, extra...)
}

// toAttributes converts key/value pairs to span attributes. Pairs whose key
// is not a string or whose value has no attribute kind are dropped.
func toAttributes(fields []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		switch v := fields[i+1].(type) {
		case string:
			attrs = append(attrs, attribute.String(key, v))
		case int:
			attrs = append(attrs, attribute.Int(key, v))
		case int64:
			attrs = append(attrs, attribute.Int64(key, v))
		case float64:
			attrs = append(attrs, attribute.Float64(key, v))
		case bool:
			attrs = append(attrs, attribute.Bool(key, v))
		}
	}
	return attrs
}
