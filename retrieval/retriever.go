package retrieval

import (
	"context"

	"github.com/kbukum/srag/schema"
)

// DefaultTopK is the number of chunks returned when a request sets none.
const DefaultTopK = 5

// Request describes one retrieval.
type Request struct {
	// Query is the user query.
	Query string
	// Queries are alternative phrasings searched alongside Query.
	Queries []string
	// DocIDs restricts the search to these documents when non-empty.
	DocIDs []string
	// TopK bounds the number of chunks returned.
	TopK int
}

// Retriever returns chunks ordered by descending relevance, each with its
// Score set.
type Retriever interface {
	Retrieve(ctx context.Context, req Request) ([]schema.Chunk, error)
}

// Func adapts a function to Retriever.
type Func func(ctx context.Context, req Request) ([]schema.Chunk, error)

// Retrieve calls f.
func (f Func) Retrieve(ctx context.Context, req Request) ([]schema.Chunk, error) {
	return f(ctx, req)
}
