package retrieval

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/srag/errors"
	"github.com/kbukum/srag/schema"
)

func contents(chunks []schema.Chunk) []string {
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, c.Content)
	}
	return out
}

func newTestIndex() (*MemoryIndex, *schema.Document, *schema.Document) {
	ix := NewMemoryIndex()
	go1 := ix.AddTexts("go.md",
		"Go has goroutines and channels.",
		"The Go scheduler multiplexes goroutines.",
		"Nothing relevant here.",
	)
	rust := ix.AddTexts("rust.md",
		"Rust has ownership and borrowing.",
		"Channels exist in Rust too.",
	)
	return ix, go1, rust
}

func TestRetrieveRanksByOverlap(t *testing.T) {
	ix, _, _ := newTestIndex()

	got, err := ix.Retrieve(context.Background(), Request{Query: "goroutines channels"})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	want := []string{
		"Go has goroutines and channels.",
		"The Go scheduler multiplexes goroutines.",
		"Channels exist in Rust too.",
	}
	if diff := cmp.Diff(want, contents(got)); diff != "" {
		t.Errorf("ranking mismatch (-want +got):\n%s", diff)
	}
	if got[0].Score != 1 || got[1].Score != 0.5 {
		t.Errorf("unexpected scores %v, %v", got[0].Score, got[1].Score)
	}
}

func TestRetrieveFilters(t *testing.T) {
	ix, _, rust := newTestIndex()

	tests := []struct {
		name string
		req  Request
		want []string
	}{
		{
			name: "doc ids",
			req:  Request{Query: "channels", DocIDs: []string{rust.ID}},
			want: []string{"Channels exist in Rust too."},
		},
		{
			name: "repeated doc ids",
			req:  Request{Query: "channels", DocIDs: []string{rust.ID, rust.ID}},
			want: []string{"Channels exist in Rust too."},
		},
		{
			name: "top k",
			req:  Request{Query: "goroutines channels", TopK: 1},
			want: []string{"Go has goroutines and channels."},
		},
		{
			name: "rewritten queries",
			req:  Request{Query: "ownership", Queries: []string{"scheduler"}},
			want: []string{"The Go scheduler multiplexes goroutines.", "Rust has ownership and borrowing."},
		},
		{
			name: "unknown doc",
			req:  Request{Query: "channels", DocIDs: []string{"missing"}},
			want: []string{},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ix.Retrieve(context.Background(), tc.req)
			if err != nil {
				t.Fatalf("Retrieve: %v", err)
			}
			if diff := cmp.Diff(tc.want, contents(got)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRetrieveEmptyQuery(t *testing.T) {
	ix, _, _ := newTestIndex()
	_, err := ix.Retrieve(context.Background(), Request{Query: "  ?! "})
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRetrieveCancelled(t *testing.T) {
	ix, _, _ := newTestIndex()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ix.Retrieve(ctx, Request{Query: "go"}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestMinScoreAndRemove(t *testing.T) {
	ix := NewMemoryIndex(WithMinScore(0.75))
	d := ix.AddTexts("a", "alpha beta", "alpha")

	got, err := ix.Retrieve(context.Background(), Request{Query: "alpha beta"})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if diff := cmp.Diff([]string{"alpha beta"}, contents(got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	ix.Remove(d.ID)
	if ix.Len() != 0 {
		t.Errorf("expected empty index, got %d", ix.Len())
	}
	if _, ok := ix.Document(d.ID); ok {
		t.Error("expected removed document to be gone")
	}
}

func TestContainerChunksAreFlattened(t *testing.T) {
	ix := NewMemoryIndex()
	d := schema.NewDocument("tables.md")
	d.AddChunk(schema.NewContainer(schema.NewChunk("first row"), schema.NewChunk("second row")))
	ix.Add(d)

	got, err := ix.Retrieve(context.Background(), Request{Query: "second"})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 || got[0].DocID != d.ID || got[0].ParentChunkID == "" {
		t.Fatalf("expected flattened child chunk, got %+v", got)
	}
}
