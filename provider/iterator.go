package provider

import "context"

// Iterator is a pull-based, single-pass sequence of values. Next returns
// (zero, false, nil) once exhausted. Close releases resources and may be
// called at any point.
type Iterator[T any] interface {
	Next(ctx context.Context) (T, bool, error)
	Close() error
}

// Collect drains it and closes it. Values read before an error are
// returned with the error.
func Collect[T any](ctx context.Context, it Iterator[T]) ([]T, error) {
	defer it.Close()
	var out []T
	for {
		v, ok, err := it.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}
