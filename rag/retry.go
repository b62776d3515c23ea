package rag

import (
	"context"
	"time"

	"github.com/kbukum/srag/logger"
	"github.com/kbukum/srag/resilience"
	"github.com/kbukum/srag/transform"
)

// NewRetry returns a node that runs inner and, when it fails with a
// transient error, runs it again with backoff. cfg.RetryIf defaults to
// resilience.RetryIfTransient. Every attempt sees the same state, including
// whatever a failed attempt wrote to it.
//
// Streamed, an attempt is retried only while it has emitted nothing; a
// failure after the first emitted state ends the stream.
func NewRetry(inner *transform.Node, cfg resilience.RetryConfig, log *logger.Logger) *transform.Node {
	if cfg.RetryIf == nil {
		cfg.RetryIf = resilience.RetryIfTransient
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	r := &retry{inner: inner, cfg: cfg, log: log.WithComponent("retry")}
	return transform.New(NameRetry, r,
		transform.WithEmbedded(inner),
		transform.WithInputKeys(inner.InputKeys()...),
		transform.WithOutputKeys(inner.OutputKeys()...),
	)
}

type retry struct {
	inner *transform.Node
	cfg   resilience.RetryConfig
	log   *logger.Logger
}

// config returns cfg with an OnRetry that logs the attempt for s.
func (r *retry) config(ctx context.Context, s *transform.State) resilience.RetryConfig {
	cfg := r.cfg
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		r.log.WithContext(ctx).Warn("retrying transform", logger.Fields(
			logger.FieldNode, r.inner.Name(),
			logger.FieldRunID, s.RunID,
			"attempt", attempt,
			"backoff_ms", backoff.Milliseconds(),
			logger.FieldError, err.Error(),
		))
		if r.cfg.OnRetry != nil {
			r.cfg.OnRetry(attempt, err, backoff)
		}
	}
	return cfg
}

func (r *retry) Transform(ctx context.Context, s *transform.State) (*transform.State, error) {
	return resilience.Retry(ctx, r.config(ctx, s), func() (*transform.State, error) {
		return r.inner.Run(ctx, s)
	})
}

// opened is an inner stream that has produced its first result.
type opened struct {
	st    transform.Stream
	first *transform.State
	ok    bool
}

func (r *retry) open(ctx context.Context, s *transform.State) (opened, error) {
	return resilience.Retry(ctx, r.config(ctx, s), func() (opened, error) {
		st := r.inner.RunStream(s)
		first, ok, err := st.Next(ctx)
		if err != nil {
			_ = st.Close()
			return opened{}, err
		}
		return opened{st: st, first: first, ok: ok}, nil
	})
}

func (r *retry) StreamTransform(_ context.Context, s *transform.State) transform.Stream {
	var cur opened
	started := false
	return transform.NewStream(func(ctx context.Context) (*transform.State, bool, error) {
		if !started {
			started = true
			var err error
			if cur, err = r.open(ctx, s); err != nil {
				return nil, false, err
			}
			return cur.first, cur.ok, nil
		}
		if cur.st == nil || !cur.ok {
			return nil, false, nil
		}
		return cur.st.Next(ctx)
	}, func() error {
		if cur.st == nil {
			return nil
		}
		return cur.st.Close()
	})
}
