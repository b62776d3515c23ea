package listener

import (
	"context"
	"time"

	"github.com/kbukum/srag/observability"
	"github.com/kbukum/srag/transform"
)

const operationTransform = "transform"

// Metrics records an operation per node execution: the active gauge moves
// on entry, and count and duration are recorded on exit.
type Metrics struct {
	transform.BaseListener
	metrics *observability.Metrics
	starts  inflight[time.Time]
}

// NewMetrics returns a metrics listener over m.
func NewMetrics(m *observability.Metrics) *Metrics {
	return &Metrics{metrics: m}
}

func (m *Metrics) OnTransformEnter(ctx context.Context, n *transform.Node, s *transform.State) error {
	name := n.Name()
	m.starts.push(entryKey(stateRunID(s), name), time.Now())
	m.metrics.RecordStart(ctx, rootName(name))
	return nil
}

func (m *Metrics) OnTransformExit(ctx context.Context, n *transform.Node, s *transform.State) error {
	name := n.Name()
	start, ok := m.starts.pop(entryKey(stateRunID(s), name))
	if !ok {
		return nil
	}
	m.metrics.RecordOperation(ctx, rootName(name), name, "ok", time.Since(start))
	return nil
}

// Flush records every node that entered but never exited as a failed
// operation.
func (m *Metrics) Flush(ctx context.Context) {
	for key, starts := range m.starts.drain() {
		name := nodeOf(key)
		for _, start := range starts {
			m.metrics.RecordOperation(ctx, rootName(name), name, "error", time.Since(start))
			m.metrics.RecordError(ctx, operationTransform, name)
		}
	}
}

// Pending reports how many node executions have not exited.
func (m *Metrics) Pending() int { return m.starts.len() }
