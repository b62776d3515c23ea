package listener

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/srag/observability"
	"github.com/kbukum/srag/transform"
)

const tracerName = "github.com/kbukum/srag/listener"

// Tracing opens a span when a node is entered and ends it on exit. Spans
// of owned nodes are children of their owner's span.
type Tracing struct {
	transform.BaseListener
	tracer trace.Tracer
	spans  inflight[trace.Span]
}

// NewTracing returns a tracing listener. A nil tracer uses the global
// provider.
func NewTracing(tracer trace.Tracer) *Tracing {
	if tracer == nil {
		tracer = observability.Tracer(tracerName)
	}
	return &Tracing{tracer: tracer}
}

func (t *Tracing) OnTransformEnter(ctx context.Context, n *transform.Node, s *transform.State) error {
	name := n.Name()
	runID := stateRunID(s)

	// The listener context is cancelled once the broadcast returns.
	parent := context.WithoutCancel(ctx)
	if owner := parentName(name); owner != "" {
		if span, ok := t.spans.peek(entryKey(runID, owner)); ok {
			parent = trace.ContextWithSpan(parent, span)
		}
	}

	_, span := t.tracer.Start(parent, observability.SpanTransform+" "+name,
		trace.WithAttributes(
			attribute.String(observability.AttrPipeline, rootName(name)),
			attribute.String(observability.AttrNode, name),
			attribute.String(observability.AttrRunID, runID),
		),
	)
	if keys := n.InputKeys(); len(keys) > 0 {
		span.SetAttributes(attribute.StringSlice("srag.input_keys", keys))
	}
	t.spans.push(entryKey(runID, name), span)
	return nil
}

func (t *Tracing) OnTransformExit(_ context.Context, n *transform.Node, s *transform.State) error {
	span, ok := t.spans.pop(entryKey(stateRunID(s), n.Name()))
	if !ok {
		return nil
	}
	if s != nil && s.Cost != nil {
		observability.SetAttribute(span, "srag.cost.total_tokens", s.Cost.TotalTokens)
	}
	span.SetStatus(codes.Ok, "")
	span.End()
	return nil
}

// Flush ends every span whose node never exited, marking it as failed.
func (t *Tracing) Flush(context.Context) {
	for _, spans := range t.spans.drain() {
		for _, span := range spans {
			span.SetAttributes(attribute.String(observability.AttrStatus, "incomplete"))
			span.SetStatus(codes.Error, "transform did not complete")
			span.End()
		}
	}
}

// Pending reports how many spans are still open.
func (t *Tracing) Pending() int { return t.spans.len() }
