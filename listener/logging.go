package listener

import (
	"context"
	"time"

	"github.com/kbukum/srag/logger"
	"github.com/kbukum/srag/transform"
)

// Logging logs every node execution. Entry is logged at debug level with
// the node's declared input keys; exit at info level with its output keys
// and the elapsed time.
type Logging struct {
	transform.BaseListener
	log    *logger.Logger
	starts inflight[time.Time]
}

// NewLogging returns a logging listener. A nil log uses the global logger.
func NewLogging(log *logger.Logger) *Logging {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Logging{log: log.WithComponent("transform")}
}

func (l *Logging) OnTransformEnter(ctx context.Context, n *transform.Node, s *transform.State) error {
	name := n.Name()
	l.starts.push(entryKey(stateRunID(s), name), time.Now())

	fields := logger.Fields(
		logger.FieldNode, name,
		logger.FieldRunID, stateRunID(s),
		logger.FieldEvent, string(transform.EventTransformEnter),
	)
	if keys := n.InputKeys(); len(keys) > 0 {
		fields["input"] = s.Slice(keys...)
	}
	l.log.WithContext(ctx).Debug("transform started", fields)
	return nil
}

func (l *Logging) OnTransformExit(ctx context.Context, n *transform.Node, s *transform.State) error {
	name := n.Name()
	fields := logger.Fields(
		logger.FieldNode, name,
		logger.FieldRunID, stateRunID(s),
		logger.FieldEvent, string(transform.EventTransformExit),
		logger.FieldStatus, "ok",
	)
	if start, ok := l.starts.pop(entryKey(stateRunID(s), name)); ok {
		fields[logger.FieldDuration] = time.Since(start).Milliseconds()
	}
	if keys := n.OutputKeys(); len(keys) > 0 {
		fields["output"] = s.Slice(keys...)
	}
	l.log.WithContext(ctx).Info("transform completed", fields)
	return nil
}

func (l *Logging) OnEnter(ctx context.Context) error {
	l.log.WithContext(ctx).Debug("pipeline call started", logger.Fields(
		logger.FieldEvent, string(transform.EventEnter),
	))
	return nil
}

func (l *Logging) OnExit(ctx context.Context) error {
	l.log.WithContext(ctx).Debug("pipeline call finished", logger.Fields(
		logger.FieldEvent, string(transform.EventExit),
	))
	return nil
}

// Flush logs a warning for every node that entered but never exited and
// forgets them.
func (l *Logging) Flush(ctx context.Context) {
	for key, starts := range l.starts.drain() {
		for _, start := range starts {
			fields := logger.DurationFields("transform", time.Since(start))
			fields[logger.FieldNode] = nodeOf(key)
			fields[logger.FieldStatus] = "incomplete"
			l.log.WithContext(ctx).Warn("transform did not complete", fields)
		}
	}
}

// Pending reports how many node executions have not exited.
func (l *Logging) Pending() int { return l.starts.len() }
