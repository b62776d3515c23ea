package provider

import "context"

// Provider is the base interface all providers must implement.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
	// IsAvailable checks if the provider is ready to handle requests.
	IsAvailable(ctx context.Context) bool
}

// RequestResponse represents a provider that takes one input and returns one output.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}

// Streamable is a RequestResponse that can also deliver its output as chunks.
// The channel is closed when the stream ends; errors arrive as chunk values.
type Streamable[I, O, C any] interface {
	RequestResponse[I, O]
	Stream(ctx context.Context, input I) (<-chan C, error)
}

// Func adapts a plain function into a RequestResponse provider.
func Func[I, O any](name string, fn func(ctx context.Context, input I) (O, error)) RequestResponse[I, O] {
	return &funcRR[I, O]{name: name, fn: fn}
}

type funcRR[I, O any] struct {
	name string
	fn   func(ctx context.Context, input I) (O, error)
}

func (f *funcRR[I, O]) Name() string                       { return f.name }
func (f *funcRR[I, O]) IsAvailable(_ context.Context) bool { return true }
func (f *funcRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return f.fn(ctx, input)
}
