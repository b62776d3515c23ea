package provider_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/srag/provider"
)

type sliceIterator struct {
	items  []string
	err    error
	closed bool
}

func (it *sliceIterator) Next(context.Context) (string, bool, error) {
	if len(it.items) == 0 {
		return "", false, it.err
	}
	v := it.items[0]
	it.items = it.items[1:]
	return v, true, nil
}

func (it *sliceIterator) Close() error {
	it.closed = true
	return nil
}

func TestCollect(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		it      *sliceIterator
		want    []string
		wantErr error
	}{
		{"all values", &sliceIterator{items: []string{"a", "b"}}, []string{"a", "b"}, nil},
		{"empty", &sliceIterator{}, nil, nil},
		{"error keeps prefix", &sliceIterator{items: []string{"a"}, err: boom}, []string{"a"}, boom},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := provider.Collect[string](context.Background(), tc.it)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("values mismatch (-want +got):\n%s", diff)
			}
			if !tc.it.closed {
				t.Error("expected iterator to be closed")
			}
		})
	}
}
