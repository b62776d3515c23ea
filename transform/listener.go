package transform

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"github.com/kbukum/srag/errors"
)

// Event names a lifecycle notification.
type Event string

const (
	EventTransformEnter Event = "onTransformEnter"
	EventTransformExit  Event = "onTransformExit"
	// EventEnter and EventExit bracket a whole pipeline call. Nodes never
	// fire them; Pipeline does when built WithLifecycleEvents.
	EventEnter Event = "onEnter"
	EventExit  Event = "onExit"
)

// Listener observes node execution. Handlers run concurrently with the other
// listeners for the same event; a returned error aborts the step.
type Listener interface {
	OnTransformEnter(ctx context.Context, n *Node, s *State) error
	OnTransformExit(ctx context.Context, n *Node, s *State) error
	OnEnter(ctx context.Context) error
	OnExit(ctx context.Context) error
}

// BaseListener implements Listener with no-op handlers. Embed it to
// override only the events of interest.
type BaseListener struct{}

func (BaseListener) OnTransformEnter(context.Context, *Node, *State) error { return nil }
func (BaseListener) OnTransformExit(context.Context, *Node, *State) error  { return nil }
func (BaseListener) OnEnter(context.Context) error                         { return nil }
func (BaseListener) OnExit(context.Context) error                          { return nil }

type invoker func(ctx context.Context, l Listener, n *Node, s *State) error

// Dispatcher fans lifecycle events out to a fixed set of listeners.
type Dispatcher struct {
	listeners []Listener
	handlers  map[Event]invoker
}

// NewDispatcher returns a dispatcher over listeners. Nil entries are dropped.
func NewDispatcher(listeners ...Listener) *Dispatcher {
	d := &Dispatcher{
		handlers: map[Event]invoker{
			EventTransformEnter: func(ctx context.Context, l Listener, n *Node, s *State) error {
				return l.OnTransformEnter(ctx, n, s)
			},
			EventTransformExit: func(ctx context.Context, l Listener, n *Node, s *State) error {
				return l.OnTransformExit(ctx, n, s)
			},
			EventEnter: func(ctx context.Context, l Listener, _ *Node, _ *State) error {
				return l.OnEnter(ctx)
			},
			EventExit: func(ctx context.Context, l Listener, _ *Node, _ *State) error {
				return l.OnExit(ctx)
			},
		},
	}
	for _, l := range listeners {
		if l != nil {
			d.listeners = append(d.listeners, l)
		}
	}
	return d
}

// Listeners returns a copy of the registered listeners.
func (d *Dispatcher) Listeners() []Listener {
	if d == nil {
		return nil
	}
	return append([]Listener(nil), d.listeners...)
}

// Broadcast delivers event to every listener concurrently and returns once
// all of them have returned. The first failure cancels the context seen by
// the others and is reported as a listener error after they finish.
// n and s are nil for EventEnter and EventExit.
func (d *Dispatcher) Broadcast(ctx context.Context, event Event, n *Node, s *State) error {
	if d == nil {
		return nil
	}
	invoke, ok := d.handlers[event]
	if !ok {
		return errors.InvalidInput("event", fmt.Sprintf("unknown event %q", event))
	}
	if len(d.listeners) == 0 {
		return nil
	}

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	for _, l := range d.listeners {
		p.Go(func(ctx context.Context) error {
			return invoke(ctx, l, n, s)
		})
	}
	if err := p.Wait(); err != nil {
		var name string
		if n != nil {
			name = n.Name()
		}
		return errors.Listener(string(event), name, err)
	}
	return nil
}
