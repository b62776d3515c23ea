package rag

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/kbukum/srag/errors"
	"github.com/kbukum/srag/retrieval"
	"github.com/kbukum/srag/transform"
)

// Node names.
const (
	NameGeneration    = "Generation"
	NameTextProcessor = "TextProcessor"
	NameRetrieval     = "Retrieval"
	NameCached        = "Cached"
	NameRetry         = "Retry"
)

// NewGeneration returns a node that hands the state to the pipeline's
// Generator. It streams when the Generator streams.
func NewGeneration(opts ...transform.Option) *transform.Node {
	opts = append([]transform.Option{
		transform.WithInputKeys(transform.KeyFinalPrompt, transform.KeyHistory),
		transform.WithOutputKeys(transform.KeyResponse, transform.KeyCost),
	}, opts...)
	return transform.NewBound(NameGeneration, func(n *transform.Node) transform.Logic {
		return &generation{node: n}
	}, opts...)
}

type generation struct {
	node *transform.Node
}

func (g *generation) generator() (transform.Generator, error) {
	gen := g.node.Generator()
	if gen == nil {
		return nil, errors.Configuration(fmt.Sprintf("transform %s: pipeline has no generator", g.node.Name()))
	}
	return gen, nil
}

func (g *generation) Transform(ctx context.Context, s *transform.State) (*transform.State, error) {
	gen, err := g.generator()
	if err != nil {
		return nil, err
	}
	return gen.Generate(ctx, s)
}

func (g *generation) StreamTransform(ctx context.Context, s *transform.State) transform.Stream {
	gen, err := g.generator()
	if err != nil {
		return transform.Fail(err)
	}
	st, err := gen.GenerateStream(ctx, s)
	if err != nil {
		return transform.Fail(err)
	}
	return st
}

// DefaultPromptTemplate is the TextProcessor prompt. It is executed with
// the fields of PromptData.
const DefaultPromptTemplate = `Answer the question using only the context below. If the context does not contain the answer, say that you don't know.

Context:
{{.Context}}

Question: {{.Query}}
Answer:`

// PromptData is the data a prompt template is executed with.
type PromptData struct {
	Query            string
	Context          string
	RewrittenQueries []string
	DocIDs           []string
}

type processorConfig struct {
	template string
	sep      string
	nodeOpts []transform.Option
}

// ProcessorOption configures a TextProcessor.
type ProcessorOption func(*processorConfig)

// WithPromptTemplate replaces DefaultPromptTemplate.
func WithPromptTemplate(tmpl string) ProcessorOption {
	return func(c *processorConfig) { c.template = tmpl }
}

// WithChunkSeparator sets the text placed between chunks in the context.
func WithChunkSeparator(sep string) ProcessorOption {
	return func(c *processorConfig) { c.sep = sep }
}

// WithProcessorNodeOptions passes options to the underlying node.
func WithProcessorNodeOptions(opts ...transform.Option) ProcessorOption {
	return func(c *processorConfig) { c.nodeOpts = append(c.nodeOpts, opts...) }
}

// NewTextProcessor returns a node that renders the retrieved chunks into
// the context and the prompt template into the final prompt.
func NewTextProcessor(opts ...ProcessorOption) (*transform.Node, error) {
	cfg := processorConfig{template: DefaultPromptTemplate, sep: "\n\n"}
	for _, opt := range opts {
		opt(&cfg)
	}
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(cfg.template)
	if err != nil {
		return nil, errors.Configuration(fmt.Sprintf("prompt template: %v", err)).WithCause(err)
	}

	p := &processor{tmpl: tmpl, sep: cfg.sep}
	nodeOpts := append([]transform.Option{
		transform.WithInputKeys(transform.KeyQuery, transform.KeyChunks),
		transform.WithOutputKeys(transform.KeyContext, transform.KeyFinalPrompt),
	}, cfg.nodeOpts...)
	return transform.New(NameTextProcessor, p, nodeOpts...), nil
}

type processor struct {
	tmpl *template.Template
	sep  string
}

func (p *processor) Transform(_ context.Context, s *transform.State) (*transform.State, error) {
	parts := make([]string, 0, len(s.Chunks))
	for i, c := range s.Chunks {
		text := strings.TrimSpace(c.ContentToEmbed())
		if text == "" {
			continue
		}
		if c.Source != "" {
			parts = append(parts, fmt.Sprintf("[%d] (%s) %s", i+1, c.Source, text))
		} else {
			parts = append(parts, fmt.Sprintf("[%d] %s", i+1, text))
		}
	}
	s.Context = strings.Join(parts, p.sep)

	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, PromptData{
		Query:            s.Query,
		Context:          s.Context,
		RewrittenQueries: s.RewrittenQueries,
		DocIDs:           s.DocIDs,
	}); err != nil {
		return nil, err
	}
	s.FinalPrompt = buf.String()
	return s, nil
}

// NewRetrieval returns a node that fills the state's chunks from r using
// the query, its rewrites and the document filter. topK <= 0 uses
// retrieval.DefaultTopK.
func NewRetrieval(r retrieval.Retriever, topK int, opts ...transform.Option) *transform.Node {
	opts = append([]transform.Option{
		transform.WithInputKeys(transform.KeyQuery, transform.KeyRewrittenQueries, transform.KeyDocIDs),
		transform.WithOutputKeys(transform.KeyChunks),
	}, opts...)
	return transform.New(NameRetrieval, transform.Func(func(ctx context.Context, s *transform.State) (*transform.State, error) {
		chunks, err := r.Retrieve(ctx, retrieval.Request{
			Query:   s.Query,
			Queries: s.RewrittenQueries,
			DocIDs:  s.DocIDs,
			TopK:    topK,
		})
		if err != nil {
			return nil, err
		}
		s.Chunks = chunks
		return s, nil
	}), opts...)
}
