package llm

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kbukum/srag/errors"
)

// Factory builds a Provider from config.
type Factory func(cfg Config) (Provider, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{}
)

// RegisterFactory adds a backend to the global registry. Typically called
// from init() in backend packages:
//
//	func init() {
//	    llm.RegisterFactory("ollama", factory)
//	}
func RegisterFactory(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// New builds the provider named by cfg.Provider.
func New(cfg Config) (Provider, error) {
	cfg.ApplyDefaults()

	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, errors.Configuration(fmt.Sprintf("llm: unknown provider %q (registered: %s)",
			cfg.Provider, strings.Join(Providers(), ", ")))
	}
	return f(cfg)
}

// Providers returns the names of all registered backends.
func Providers() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
