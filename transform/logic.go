package transform

import "context"

// Logic is a node's own work, run after its children.
// Returning a nil state keeps the input state.
type Logic interface {
	Transform(ctx context.Context, s *State) (*State, error)
}

// StreamLogic is implemented by logic that can emit intermediate states.
// Nodes whose logic lacks it stream the single result of Transform.
type StreamLogic interface {
	StreamTransform(ctx context.Context, s *State) Stream
}

// Func adapts a function to Logic.
type Func func(ctx context.Context, s *State) (*State, error)

// Transform calls f.
func (f Func) Transform(ctx context.Context, s *State) (*State, error) {
	return f(ctx, s)
}

// StreamFunc adapts a streaming function to Logic and StreamLogic.
// Transform drains the stream and returns its last state.
type StreamFunc func(ctx context.Context, s *State) Stream

// StreamTransform calls f.
func (f StreamFunc) StreamTransform(ctx context.Context, s *State) Stream {
	return f(ctx, s)
}

// Transform returns the last state f emits, or s when it emits nothing.
func (f StreamFunc) Transform(ctx context.Context, s *State) (*State, error) {
	last, err := Last(ctx, f(ctx, s))
	if err != nil {
		return nil, err
	}
	if last == nil {
		return s, nil
	}
	return last, nil
}

// Identity returns its input unchanged.
var Identity Logic = Func(func(_ context.Context, s *State) (*State, error) {
	return s, nil
})

// streamOf returns the stream form of logic, deferring Transform until the
// first pull.
func streamOf(logic Logic, s *State) func(ctx context.Context) Stream {
	if sl, ok := logic.(StreamLogic); ok {
		return func(ctx context.Context) Stream { return sl.StreamTransform(ctx, s) }
	}
	return func(context.Context) Stream {
		var pulled bool
		return NewStream(func(ctx context.Context) (*State, bool, error) {
			if pulled {
				return nil, false, nil
			}
			pulled = true
			out, err := logic.Transform(ctx, s)
			if err != nil {
				return nil, false, err
			}
			if out == nil {
				out = s
			}
			return out, true, nil
		}, nil)
	}
}
