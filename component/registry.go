package component

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/srag/logger"
)

// StopTimeout bounds each component's Stop.
const StopTimeout = 10 * time.Second

type entry struct {
	component Component
	started   bool
}

// Registry starts components in registration order and stops the started
// ones in reverse order.
type Registry struct {
	mu      sync.Mutex
	entries []*entry
	lookup  map[string]*entry
	log     *logger.Logger
}

// NewRegistry creates an empty registry. A nil log uses the global logger.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Registry{
		lookup: make(map[string]*entry),
		log:    log.WithComponent("component"),
	}
}

// Register adds c. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.lookup[name]; exists {
		return fmt.Errorf("component %s already registered", name)
	}
	e := &entry{component: c}
	r.entries = append(r.entries, e)
	r.lookup[name] = e
	return nil
}

// StartAll starts every component not yet started, stopping at the first
// failure. Components started before the failure stay started until
// StopAll.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.started {
			continue
		}
		name := e.component.Name()
		if err := e.component.Start(ctx); err != nil {
			r.log.Error("component start failed", logger.Fields("component", name, "error", err.Error()))
			return fmt.Errorf("start %s: %w", name, err)
		}
		e.started = true
		r.log.Debug("component started", logger.Fields("component", name))
	}
	return nil
}

// StopAll stops the started components in reverse order and joins their
// errors.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if !e.started {
			continue
		}
		name := e.component.Name()
		stopCtx, cancel := context.WithTimeout(ctx, StopTimeout)
		if err := e.component.Stop(stopCtx); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", name, err))
			r.log.Warn("component stop failed", logger.Fields("component", name, "error", err.Error()))
		} else {
			r.log.Debug("component stopped", logger.Fields("component", name))
		}
		cancel()
		e.started = false
	}
	return stderrors.Join(errs...)
}

// HealthAll checks every component in registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.Lock()
	components := make([]Component, len(r.entries))
	for i, e := range r.entries {
		components[i] = e.component
	}
	r.mu.Unlock()

	out := make([]Health, len(components))
	for i, c := range components {
		out[i] = c.Health(ctx)
		if out[i].Name == "" {
			out[i].Name = c.Name()
		}
	}
	return out
}

// Get returns the component registered as name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.lookup[name]; ok {
		return e.component
	}
	return nil
}
