// Package trace provides tracing instrumentation tailored to scrollfx runs.
package trace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/scrollfx/scrollfx/log"
)

const tracerName = "scrollfx"

// Tracer generates spans for engine runs and the per-effect phases. It
// embeds an OTEL tracer; the embedding program decides whether an exporter
// is configured, and a Tracer built from a noop provider costs nothing.
type Tracer struct {
	trace.Tracer

	logger   *log.Logger
	metadata []attribute.KeyValue
}

// NewTracer creates a Tracer from the given TracerProvider. metadata is
// attached to every span.
func NewTracer(logger *log.Logger, tp trace.TracerProvider, metadata map[string]string) *Tracer {
	return &Tracer{
		Tracer:   tp.Tracer(tracerName),
		logger:   logger,
		metadata: buildMetadataAttributes(metadata),
	}
}

// NewNoopTracer returns a Tracer that records nothing.
func NewNoopTracer(logger *log.Logger) *Tracer {
	return NewTracer(logger, noop.NewTracerProvider(), nil)
}

// Start overrides the underlying OTEL tracer method to include the tracer
// metadata.
func (t *Tracer) Start(
	ctx context.Context, spanName string, opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	opts = append(opts, trace.WithAttributes(t.metadata...))
	return t.Tracer.Start(ctx, spanName, opts...)
}

// StartRun opens the root span of one engine run against the given page
// path.
func (t *Tracer) StartRun(ctx context.Context, pagePath string) (context.Context, trace.Span) {
	t.logger.Debugf("trace", "starting run span for %q", pagePath)
	return t.Start(ctx, "scrollfx.run",
		trace.WithAttributes(attribute.String("page.path", pagePath)))
}

// StartPhase opens a child span for one effect phase (reveal, counter,
// tracker) with the number of targets it owns.
func (t *Tracer) StartPhase(ctx context.Context, phase string, targets int) (context.Context, trace.Span) {
	return t.Start(ctx, "scrollfx."+phase,
		trace.WithAttributes(attribute.Int("targets", targets)))
}

func buildMetadataAttributes(metadata map[string]string) []attribute.KeyValue {
	meta := make([]attribute.KeyValue, 0, len(metadata))
	for mk, mv := range metadata {
		meta = append(meta, attribute.String(mk, mv))
	}
	return meta
}
