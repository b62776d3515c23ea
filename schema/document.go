package schema

import (
	"time"

	"github.com/google/uuid"
)

// ChunkType classifies chunk content.
type ChunkType string

const (
	ChunkText      ChunkType = "text"
	ChunkImage     ChunkType = "image"
	ChunkMarkdown  ChunkType = "markdown"
	ChunkTableMD   ChunkType = "table_md"
	ChunkCode      ChunkType = "code"
	ChunkTableDesc ChunkType = "table_desc"
	// ChunkContainer groups child chunks and carries no content of its own.
	ChunkContainer ChunkType = "container"
)

// Document is a source split into chunks.
type Document struct {
	ID            string         `json:"id"`
	Source        string         `json:"source,omitempty"`
	Description   string         `json:"description,omitempty"`
	NumChunks     int            `json:"num_chunks"`
	ChildChunkIDs []string       `json:"child_chunk_ids,omitempty"`
	IndexName     string         `json:"index_name,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Metadata      map[string]any `json:"metadata,omitempty"`

	chunks []Chunk
}

// Chunk is a unit of retrievable content.
type Chunk struct {
	ID            string         `json:"id"`
	Index         int            `json:"index"`
	ParentChunkID string         `json:"parent_chunk_id,omitempty"`
	ChildChunkIDs []string       `json:"child_chunk_ids,omitempty"`
	DocID         string         `json:"doc_id,omitempty"`
	Type          ChunkType      `json:"chunk_type"`
	Content       string         `json:"content,omitempty"`
	NumTokens     int            `json:"num_tokens,omitempty"`
	Score         float64        `json:"score,omitempty"`
	Source        string         `json:"source,omitempty"`
	Description   string         `json:"description,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Children      []Chunk        `json:"children,omitempty"`
}

// NewDocument returns a document with a fresh ID and timestamps.
func NewDocument(source string) *Document {
	now := time.Now().UTC()
	return &Document{
		ID:        uuid.NewString(),
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewChunk returns a text chunk with a fresh ID and timestamps.
func NewChunk(content string) Chunk {
	now := time.Now().UTC()
	return Chunk{
		ID:        uuid.NewString(),
		Type:      ChunkText,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewContainer returns a container chunk owning children. Each child's
// parent ID is set to the container.
func NewContainer(children ...Chunk) Chunk {
	c := NewChunk("")
	c.Type = ChunkContainer
	c.Children = make([]Chunk, len(children))
	c.ChildChunkIDs = make([]string, len(children))
	for i, child := range children {
		child.ParentChunkID = c.ID
		c.Children[i] = child
		c.ChildChunkIDs[i] = child.ID
	}
	return c
}

// AddChunk appends a top-level chunk and refreshes the chunk bookkeeping.
func (d *Document) AddChunk(c Chunk) {
	c.DocID = d.ID
	c.Index = len(d.chunks)
	for i := range c.Children {
		c.Children[i].DocID = d.ID
	}
	d.chunks = append(d.chunks, c)
	d.NumChunks = len(d.chunks)
	d.ChildChunkIDs = append(d.ChildChunkIDs, c.ID)
	d.UpdatedAt = time.Now().UTC()
}

// Chunks returns the retrievable chunks: containers are replaced by their
// children, everything else is returned as is.
func (d *Document) Chunks() []Chunk {
	out := make([]Chunk, 0, len(d.chunks))
	for _, c := range d.chunks {
		if len(c.Children) > 0 {
			out = append(out, c.Children...)
			continue
		}
		out = append(out, c)
	}
	return out
}

// ContentToEmbed returns the text an index should embed for c.
func (c Chunk) ContentToEmbed() string {
	return c.Content
}
