package transform

import (
	"context"

	"github.com/kbukum/srag/provider"
)

// Stream is a single-pass, pull-based sequence of states. Next returns
// (nil, false, nil) once exhausted. Close releases resources and may be
// called at any point; a closed stream yields nothing more.
//
// Consecutive values may be the same *State mutated in place.
type Stream = provider.Iterator[*State]

// FromStates returns a stream over states.
func FromStates(states ...*State) Stream {
	return &sliceStream{items: states}
}

// Single returns a stream yielding s once.
func Single(s *State) Stream {
	return FromStates(s)
}

// Fail returns a stream whose first Next reports err.
func Fail(err error) Stream {
	return &funcStream{next: func(context.Context) (*State, bool, error) {
		return nil, false, err
	}}
}

// NewStream builds a stream from a next function and an optional closer.
func NewStream(next func(ctx context.Context) (*State, bool, error), closer func() error) Stream {
	return &funcStream{next: next, closer: closer}
}

// Collect drains st and returns every value. The stream is closed.
func Collect(ctx context.Context, st Stream) ([]*State, error) {
	return provider.Collect(ctx, st)
}

// Last drains st and returns its final value, or nil if it was empty.
func Last(ctx context.Context, st Stream) (*State, error) {
	defer st.Close()
	var last *State
	for {
		s, ok, err := st.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return last, nil
		}
		last = s
	}
}

type sliceStream struct {
	items []*State
	index int
}

func (it *sliceStream) Next(_ context.Context) (*State, bool, error) {
	if it.index >= len(it.items) {
		return nil, false, nil
	}
	s := it.items[it.index]
	it.index++
	return s, true, nil
}

func (it *sliceStream) Close() error {
	it.index = len(it.items)
	return nil
}

type funcStream struct {
	next   func(ctx context.Context) (*State, bool, error)
	closer func() error
	done   bool
}

func (it *funcStream) Next(ctx context.Context) (*State, bool, error) {
	if it.done {
		return nil, false, nil
	}
	s, ok, err := it.next(ctx)
	if err != nil || !ok {
		it.done = true
	}
	return s, ok, err
}

func (it *funcStream) Close() error {
	if it.done && it.closer == nil {
		return nil
	}
	it.done = true
	if c := it.closer; c != nil {
		it.closer = nil
		return c()
	}
	return nil
}
