package rag

import (
	"context"
	"time"

	"github.com/kbukum/srag/cache"
	"github.com/kbukum/srag/llm"
	"github.com/kbukum/srag/logger"
	"github.com/kbukum/srag/transform"
)

// KeyCacheHit is the scratch key Cached sets to true when it answered from
// the store.
const KeyCacheHit = "cache_hit"

// CachedResponse is what Cached stores per prompt.
type CachedResponse struct {
	Response string `json:"response"`
}

// CacheKey derives the store key for a state: the final prompt when set,
// otherwise the query, together with the conversation history.
func CacheKey(s *transform.State) string {
	parts := []string{s.FinalPrompt}
	if s.FinalPrompt == "" {
		parts[0] = s.Query
	}
	for _, m := range s.History {
		parts = append(parts, m.Role, m.Content)
	}
	return cache.Key(parts...)
}

// NewCached returns a node that answers from store when it holds a response
// for the state and otherwise runs inner and stores its response for ttl.
// Store failures are logged and treated as misses.
func NewCached(inner *transform.Node, store cache.Store[CachedResponse], ttl time.Duration, log *logger.Logger) *transform.Node {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	c := &cached{inner: inner, store: store, ttl: ttl, log: log.WithComponent("cache")}
	return transform.New(NameCached, c,
		transform.WithEmbedded(inner),
		transform.WithInputKeys(inner.InputKeys()...),
		transform.WithOutputKeys(transform.KeyResponse),
	)
}

type cached struct {
	inner *transform.Node
	store cache.Store[CachedResponse]
	ttl   time.Duration
	log   *logger.Logger
}

func (c *cached) lookup(ctx context.Context, key string) *CachedResponse {
	v, err := c.store.Load(ctx, key)
	if err != nil {
		c.log.WithContext(ctx).Warn("cache load failed", logger.ErrorFields("load", err))
		return nil
	}
	return v
}

func (c *cached) save(ctx context.Context, key string, s *transform.State) {
	if s.Response == "" {
		return
	}
	if err := c.store.Save(ctx, key, &CachedResponse{Response: s.Response}, c.ttl); err != nil {
		c.log.WithContext(ctx).Warn("cache save failed", logger.ErrorFields("save", err))
	}
}

// hit answers s from v. A hit spends nothing, so Cost is only initialized
// for callers that report it.
func hit(s *transform.State, v *CachedResponse) *transform.State {
	s.Response = v.Response
	if s.Cost == nil {
		s.Cost = &llm.Cost{}
	}
	_ = s.Set(KeyCacheHit, true)
	return s
}

func (c *cached) Transform(ctx context.Context, s *transform.State) (*transform.State, error) {
	key := CacheKey(s)
	if v := c.lookup(ctx, key); v != nil {
		return hit(s, v), nil
	}
	out, err := c.inner.Run(ctx, s)
	if err != nil {
		return nil, err
	}
	c.save(ctx, key, out)
	return out, nil
}

// StreamTransform streams inner on a miss and stores the final state once
// the inner stream is exhausted.
func (c *cached) StreamTransform(ctx context.Context, s *transform.State) transform.Stream {
	key := CacheKey(s)
	if v := c.lookup(ctx, key); v != nil {
		return transform.Single(hit(s, v))
	}
	inner := c.inner.RunStream(s)
	last := s
	return transform.NewStream(func(ctx context.Context) (*transform.State, bool, error) {
		out, ok, err := inner.Next(ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			c.save(ctx, key, last)
			return nil, false, nil
		}
		last = out
		return out, true, nil
	}, inner.Close)
}
