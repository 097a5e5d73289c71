// Package tracing correlates work across the REST surface, the router,
// and the ledger client. Spans log through zap; trace ids travel in
// X-Trace-ID headers so the popup and page contexts can stitch flows
// together.
package tracing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spendguard/spendguard/internal/shared/id"
)

// TraceID identifies one user-visible flow.
type TraceID string

// SpanID identifies one operation within a flow.
type SpanID string

// Span is a single operation in a trace.
type Span struct {
	TraceID    TraceID
	SpanID     SpanID
	ParentID   SpanID
	Name       string
	StartTime  time.Time
	Duration   time.Duration
	Tags       map[string]string
	Err        error
	StatusCode int
}

// Tracer collects completed spans and logs them.
type Tracer struct {
	service string
	logger  *zap.Logger
	spans   chan *Span
}

// New creates a tracer. Spans queue on a bounded channel; when it fills,
// spans drop rather than block the request path.
func New(service string, logger *zap.Logger) *Tracer {
	t := &Tracer{
		service: service,
		logger:  logger,
		spans:   make(chan *Span, 1000),
	}
	go t.collect()
	return t
}

// StartSpan opens a span, inheriting trace identity from ctx when
// present.
func (t *Tracer) StartSpan(ctx context.Context, name string) (*Span, context.Context) {
	traceID, _ := ctx.Value(traceIDKey).(TraceID)
	if traceID == "" {
		traceID = TraceID(id.NewRequestID())
	}
	parentID, _ := ctx.Value(spanIDKey).(SpanID)

	span := &Span{
		TraceID:   traceID,
		SpanID:    SpanID(id.NewRequestID()),
		ParentID:  parentID,
		Name:      name,
		StartTime: time.Now(),
		Tags:      make(map[string]string),
	}

	ctx = context.WithValue(ctx, traceIDKey, traceID)
	ctx = context.WithValue(ctx, spanIDKey, span.SpanID)
	return span, ctx
}

// SetTag adds a tag.
func (s *Span) SetTag(key, value string) {
	s.Tags[key] = value
}

// SetError records a failure.
func (s *Span) SetError(err error) {
	s.Err = err
}

// SetStatus records the HTTP status.
func (s *Span) SetStatus(code int) {
	s.StatusCode = code
}

// Finish closes the span and hands it to the collector.
func (t *Tracer) Finish(span *Span) {
	span.Duration = time.Since(span.StartTime)
	select {
	case t.spans <- span:
	default:
		t.logger.Warn("span buffer full, dropping span",
			zap.String("trace_id", string(span.TraceID)))
	}
}

func (t *Tracer) collect() {
	for span := range t.spans {
		fields := []zap.Field{
			zap.String("trace_id", string(span.TraceID)),
			zap.String("span_id", string(span.SpanID)),
			zap.String("operation", span.Name),
			zap.String("service", t.service),
			zap.Duration("duration", span.Duration),
		}
		if span.ParentID != "" {
			fields = append(fields, zap.String("parent_id", string(span.ParentID)))
		}
		if span.StatusCode != 0 {
			fields = append(fields, zap.Int("status", span.StatusCode))
		}
		if span.Err != nil {
			fields = append(fields, zap.Error(span.Err))
			t.logger.Error("span completed with error", fields...)
			continue
		}
		t.logger.Debug("span completed", fields...)
	}
}

type contextKey string

const (
	traceIDKey contextKey = "trace_id"
	spanIDKey  contextKey = "span_id"
)

// GetTraceID retrieves the trace ID from context.
func GetTraceID(ctx context.Context) TraceID {
	traceID, _ := ctx.Value(traceIDKey).(TraceID)
	return traceID
}

// WithTrace seeds a context with an existing trace identity.
func WithTrace(ctx context.Context, traceID TraceID, spanID SpanID) context.Context {
	if traceID != "" {
		ctx = context.WithValue(ctx, traceIDKey, traceID)
	}
	if spanID != "" {
		ctx = context.WithValue(ctx, spanIDKey, spanID)
	}
	return ctx
}
