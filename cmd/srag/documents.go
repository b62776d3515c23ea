package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kbukum/srag/schema"
)

var textExtensions = map[string]schema.ChunkType{
	".txt":      schema.ChunkText,
	".md":       schema.ChunkMarkdown,
	".markdown": schema.ChunkMarkdown,
	".go":       schema.ChunkCode,
	".py":       schema.ChunkCode,
}

// loadDocuments reads every path, descending into directories, and splits
// each file into chunks of at most chunkSize characters.
func loadDocuments(paths []string, chunkSize int) ([]*schema.Document, error) {
	var docs []*schema.Document
	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			typ, ok := textExtensions[strings.ToLower(filepath.Ext(path))]
			if !ok && path != root {
				return nil
			}
			if !ok {
				typ = schema.ChunkText
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if doc := newDocument(path, string(data), typ, chunkSize); doc != nil {
				docs = append(docs, doc)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", root, err)
		}
	}
	return docs, nil
}

func newDocument(source, text string, typ schema.ChunkType, chunkSize int) *schema.Document {
	parts := splitText(text, chunkSize)
	if len(parts) == 0 {
		return nil
	}
	doc := schema.NewDocument(source)
	for _, p := range parts {
		c := schema.NewChunk(p)
		c.Type = typ
		doc.AddChunk(c)
	}
	return doc
}

// splitText groups paragraphs into pieces of at most size characters.
// A paragraph longer than size is cut at word boundaries.
func splitText(text string, size int) []string {
	var (
		parts []string
		cur   strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			parts = append(parts, s)
		}
		cur.Reset()
	}
	add := func(s string, sep string) {
		if size > 0 && cur.Len() > 0 && cur.Len()+len(sep)+len(s) > size {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString(sep)
		}
		cur.WriteString(s)
	}

	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if size <= 0 || len(para) <= size {
			add(para, "\n\n")
			continue
		}
		flush()
		for _, w := range strings.Fields(para) {
			add(w, " ")
		}
		flush()
	}
	flush()
	return parts
}
