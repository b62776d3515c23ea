package retrieval

import (
	"context"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/kbukum/srag/errors"
	"github.com/kbukum/srag/schema"
	"github.com/kbukum/srag/util"
)

// MemoryIndex keeps documents in memory and scores their chunks by term
// overlap with the query. It is safe for concurrent use.
type MemoryIndex struct {
	mu      sync.RWMutex
	docs    map[string]*indexedDoc
	order   []string
	minimum float64
}

type indexedDoc struct {
	doc    *schema.Document
	chunks []indexedChunk
}

type indexedChunk struct {
	chunk schema.Chunk
	terms map[string]struct{}
}

// IndexOption configures a MemoryIndex.
type IndexOption func(*MemoryIndex)

// WithMinScore drops chunks scoring below score. The default keeps every
// chunk sharing at least one term with the query.
func WithMinScore(score float64) IndexOption {
	return func(ix *MemoryIndex) { ix.minimum = score }
}

// NewMemoryIndex returns an empty index.
func NewMemoryIndex(opts ...IndexOption) *MemoryIndex {
	ix := &MemoryIndex{docs: make(map[string]*indexedDoc)}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Add indexes docs. Re-adding a document replaces its chunks.
func (ix *MemoryIndex) Add(docs ...*schema.Document) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, d := range docs {
		if d == nil {
			continue
		}
		entry := &indexedDoc{doc: d}
		for _, c := range d.Chunks() {
			entry.chunks = append(entry.chunks, indexedChunk{
				chunk: c,
				terms: termSet(c.ContentToEmbed()),
			})
		}
		if _, exists := ix.docs[d.ID]; !exists {
			ix.order = append(ix.order, d.ID)
		}
		ix.docs[d.ID] = entry
	}
}

// AddTexts creates a document from source whose chunks are texts, indexes
// it and returns it.
func (ix *MemoryIndex) AddTexts(source string, texts ...string) *schema.Document {
	d := schema.NewDocument(source)
	for _, t := range texts {
		c := schema.NewChunk(t)
		c.Source = source
		d.AddChunk(c)
	}
	ix.Add(d)
	return d
}

// Remove drops a document.
func (ix *MemoryIndex) Remove(docID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.docs[docID]; !ok {
		return
	}
	delete(ix.docs, docID)
	ix.order = slices.DeleteFunc(ix.order, func(id string) bool { return id == docID })
}

// Len returns the number of indexed documents.
func (ix *MemoryIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Document returns an indexed document by ID.
func (ix *MemoryIndex) Document(id string) (*schema.Document, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	d, ok := ix.docs[id]
	if !ok {
		return nil, false
	}
	return d.doc, true
}

// Retrieve scores every chunk of the selected documents against each query
// phrasing and keeps its best score. Ties keep index order.
func (ix *MemoryIndex) Retrieve(ctx context.Context, req Request) ([]schema.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var queries []map[string]struct{}
	for _, q := range append([]string{req.Query}, req.Queries...) {
		if terms := termSet(q); len(terms) > 0 {
			queries = append(queries, terms)
		}
	}
	if len(queries) == 0 {
		return nil, errors.InvalidInput("query", "no searchable terms")
	}
	topK := req.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	ids := ix.order
	if len(req.DocIDs) > 0 {
		ids = util.Unique(req.DocIDs)
	}

	var hits []schema.Chunk
	for _, id := range ids {
		d, ok := ix.docs[id]
		if !ok {
			continue
		}
		for _, c := range d.chunks {
			var best float64
			for _, q := range queries {
				best = max(best, overlap(q, c.terms))
			}
			if best == 0 || best < ix.minimum {
				continue
			}
			hit := c.chunk
			hit.Score = best
			hits = append(hits, hit)
		}
	}

	slices.SortStableFunc(hits, func(a, b schema.Chunk) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// overlap is the fraction of query terms present in the chunk.
func overlap(query, chunk map[string]struct{}) float64 {
	var n int
	for t := range query {
		if _, ok := chunk[t]; ok {
			n++
		}
	}
	return float64(n) / float64(len(query))
}

func termSet(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}

var _ Retriever = (*MemoryIndex)(nil)
