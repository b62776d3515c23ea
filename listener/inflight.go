package listener

import (
	"strings"
	"sync"

	"github.com/kbukum/srag/transform"
)

// inflight tracks per-node values between enter and exit. A node entered
// more than once before exiting (retries, repeated names) stacks its values.
type inflight[T any] struct {
	mu sync.Mutex
	m  map[string][]T
}

func (f *inflight[T]) push(key string, v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.m == nil {
		f.m = make(map[string][]T)
	}
	f.m[key] = append(f.m[key], v)
}

func (f *inflight[T]) pop(key string) (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var zero T
	stack := f.m[key]
	if len(stack) == 0 {
		return zero, false
	}
	v := stack[len(stack)-1]
	if len(stack) == 1 {
		delete(f.m, key)
	} else {
		f.m[key] = stack[:len(stack)-1]
	}
	return v, true
}

func (f *inflight[T]) peek(key string) (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var zero T
	stack := f.m[key]
	if len(stack) == 0 {
		return zero, false
	}
	return stack[len(stack)-1], true
}

// drain removes and returns every pending value keyed by its entry.
func (f *inflight[T]) drain() map[string][]T {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.m
	f.m = nil
	return out
}

func (f *inflight[T]) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int
	for _, stack := range f.m {
		n += len(stack)
	}
	return n
}

const keySep = "\x00"

func entryKey(runID, node string) string {
	return runID + keySep + node
}

func stateRunID(s *transform.State) string {
	if s == nil {
		return ""
	}
	return s.RunID
}

// nodeOf extracts the node name from an entry key.
func nodeOf(key string) string {
	_, node, _ := strings.Cut(key, keySep)
	return node
}

// parentName returns the name of the node owning name, or "" for a root.
func parentName(name string) string {
	i := strings.LastIndex(name, "::")
	if i < 0 {
		return ""
	}
	return name[:i]
}

// rootName returns the pipeline segment of a node path.
func rootName(name string) string {
	if i := strings.Index(name, "::"); i >= 0 {
		return name[:i]
	}
	return name
}
