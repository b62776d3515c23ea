package rag

import (
	"time"

	"github.com/kbukum/srag/cache"
	"github.com/kbukum/srag/errors"
	"github.com/kbukum/srag/logger"
	"github.com/kbukum/srag/resilience"
	"github.com/kbukum/srag/retrieval"
	"github.com/kbukum/srag/transform"
	"github.com/kbukum/srag/util"
)

// VanillaConfig assembles the standard pipeline. Retriever and Generator
// are required; the rest is optional.
type VanillaConfig struct {
	Name      string
	Retriever retrieval.Retriever
	TopK      int
	Generator transform.Generator

	// PromptTemplate overrides DefaultPromptTemplate.
	PromptTemplate string

	// Cache, when set, memoizes generation per final prompt.
	Cache    cache.Store[CachedResponse]
	CacheTTL time.Duration

	// Retry, when set, retries generation on transient failures.
	Retry *resilience.RetryConfig

	// Pre runs before retrieval, e.g. a query rewriter.
	Pre []*transform.Node

	Listeners       []transform.Listener
	LifecycleEvents bool
	Logger          *logger.Logger
}

// VanillaTransforms returns retrieval, text processing and generation
// nodes, with generation wrapped in Retry and then Cached when configured.
func VanillaTransforms(cfg VanillaConfig) ([]*transform.Node, error) {
	if cfg.Retriever == nil {
		return nil, errors.Configuration("vanilla pipeline: retriever is required")
	}
	processor, err := NewTextProcessor(WithPromptTemplate(util.Coalesce(cfg.PromptTemplate, DefaultPromptTemplate)))
	if err != nil {
		return nil, err
	}

	gen := NewGeneration()
	if cfg.Retry != nil {
		gen = NewRetry(gen, *cfg.Retry, cfg.Logger)
	}
	if cfg.Cache != nil {
		gen = NewCached(gen, cfg.Cache, cfg.CacheTTL, cfg.Logger)
	}

	nodes := append([]*transform.Node{}, cfg.Pre...)
	return append(nodes, NewRetrieval(cfg.Retriever, cfg.TopK), processor, gen), nil
}

// BuildVanilla returns the standard retrieval-augmented pipeline.
func BuildVanilla(cfg VanillaConfig) (*transform.Pipeline, error) {
	nodes, err := VanillaTransforms(cfg)
	if err != nil {
		return nil, err
	}
	opts := []transform.PipelineOption{
		transform.WithName(util.Coalesce(cfg.Name, "VanillaRAG")),
		transform.WithGenerator(cfg.Generator),
		transform.WithListeners(cfg.Listeners...),
		transform.WithTransforms(nodes...),
	}
	if cfg.LifecycleEvents {
		opts = append(opts, transform.WithLifecycleEvents())
	}
	return transform.NewPipeline(opts...), nil
}
