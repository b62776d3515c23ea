package component

import (
	"context"

	"github.com/kbukum/srag/errors"
	"github.com/kbukum/srag/provider"
)

// HealthStatus is the health of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// Health is the result of a health check.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a resource with a start and stop.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Hook is one lifecycle step.
type Hook func(ctx context.Context) error

// Func is a Component assembled from hooks. Missing hooks do nothing and a
// component without a health hook is always healthy.
type Func struct {
	name   string
	start  Hook
	stop   Hook
	health Hook
}

// Option sets a hook on a Func.
type Option func(*Func)

// WithStart sets the start hook.
func WithStart(h Hook) Option { return func(f *Func) { f.start = h } }

// WithStop sets the stop hook.
func WithStop(h Hook) Option { return func(f *Func) { f.stop = h } }

// WithHealth sets the health check. A non-nil error reports unhealthy.
func WithHealth(h Hook) Option { return func(f *Func) { f.health = h } }

// New returns a component named name.
func New(name string, opts ...Option) *Func {
	f := &Func{name: name}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Func) Name() string { return f.name }

func (f *Func) Start(ctx context.Context) error { return run(ctx, f.start) }

func (f *Func) Stop(ctx context.Context) error { return run(ctx, f.stop) }

func (f *Func) Health(ctx context.Context) Health {
	if err := run(ctx, f.health); err != nil {
		return Health{Name: f.name, Status: StatusUnhealthy, Message: err.Error()}
	}
	return Health{Name: f.name, Status: StatusHealthy}
}

func run(ctx context.Context, h Hook) error {
	if h == nil {
		return nil
	}
	return h(ctx)
}

// FromProvider adapts a provider to a component. Health reports the
// provider's availability; opts may add start and stop hooks.
func FromProvider(name string, p provider.Provider, opts ...Option) *Func {
	health := func(ctx context.Context) error {
		if !p.IsAvailable(ctx) {
			return errors.ServiceUnavailable(p.Name())
		}
		return nil
	}
	return New(name, append([]Option{WithHealth(health)}, opts...)...)
}
