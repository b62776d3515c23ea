package transform

import "context"

// Generator is the generation service shared by a pipeline. Generate
// returns the state with at least the response filled in; GenerateStream
// emits partial states as the response grows.
type Generator interface {
	Generate(ctx context.Context, s *State) (*State, error)
	GenerateStream(ctx context.Context, s *State) (Stream, error)
}

// SharedResource is built once by the pipeline root and referenced by every
// node in its tree. It must not be modified after construction.
type SharedResource struct {
	Generator  Generator
	Dispatcher *Dispatcher
}

// NewSharedResource bundles gen with a dispatcher over listeners.
func NewSharedResource(gen Generator, listeners ...Listener) *SharedResource {
	return &SharedResource{
		Generator:  gen,
		Dispatcher: NewDispatcher(listeners...),
	}
}
