package rag_test

import (
	"context"
	"testing"
	"time"

	"github.com/kbukum/srag/errors"
	"github.com/kbukum/srag/logger"
	"github.com/kbukum/srag/rag"
	"github.com/kbukum/srag/resilience"
	"github.com/kbukum/srag/transform"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2,
	}
}

func TestRetryNode(t *testing.T) {
	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantCode  errors.ErrorCode
	}{
		{
			name:      "recovers from transient failures",
			failures:  []error{errors.ServiceUnavailable("llm"), errors.Timeout("generate")},
			wantCalls: 3,
		},
		{
			name:      "gives up after max attempts",
			failures:  []error{errors.ServiceUnavailable("llm"), errors.ServiceUnavailable("llm"), errors.ServiceUnavailable("llm")},
			wantCalls: 3,
			wantCode:  errors.ErrCodeServiceUnavailable,
		},
		{
			name:      "does not retry invalid input",
			failures:  []error{errors.InvalidInput("prompt", "too long")},
			wantCalls: 1,
			wantCode:  errors.ErrCodeInvalidInput,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := newFakeLLM("ok")
			fake.failures = tc.failures

			var retries int
			cfg := fastRetry()
			cfg.OnRetry = func(int, error, time.Duration) { retries++ }

			p := transform.NewPipeline(
				transform.WithGenerator(rag.NewGenerator(fake)),
				transform.WithTransforms(rag.NewRetry(rag.NewGeneration(), cfg, logger.NewNop())),
			)
			got, err := p.Call(context.Background(), transform.Query("q"))

			if fake.Calls() != tc.wantCalls {
				t.Errorf("expected %d calls, got %d", tc.wantCalls, fake.Calls())
			}
			if retries != tc.wantCalls-1 {
				t.Errorf("expected %d retries, got %d", tc.wantCalls-1, retries)
			}
			if tc.wantCode == "" {
				if err != nil || got != "ok" {
					t.Fatalf("Call = (%v, %v)", got, err)
				}
				return
			}
			if !errors.HasCode(err, errors.ErrCodeNodeExecution) {
				t.Fatalf("expected the node execution error, got %v", err)
			}
			if !errors.HasCode(err, tc.wantCode) {
				t.Errorf("expected %s in the chain, got %v", tc.wantCode, err)
			}
		})
	}
}

func TestRetryNodeStreams(t *testing.T) {
	fake := newFakeLLM("Redis ", "is fast")
	fake.failures = []error{errors.ServiceUnavailable("llm")}

	var retries int
	cfg := fastRetry()
	cfg.OnRetry = func(int, error, time.Duration) { retries++ }
	p := transform.NewPipeline(
		transform.WithGenerator(rag.NewGenerator(fake)),
		transform.WithTransforms(rag.NewRetry(rag.NewGeneration(), cfg, logger.NewNop())),
	)

	states, err := transform.Collect(context.Background(), p.Stream(transform.Query("q")))
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(states) < 2 {
		t.Fatalf("expected incremental states after the retry, got %d", len(states))
	}
	if last := states[len(states)-1].Response; last != "Redis is fast" {
		t.Errorf("unexpected final response %q", last)
	}
	if fake.Calls() != 2 || retries != 1 {
		t.Errorf("expected one retry, got %d calls and %d retries", fake.Calls(), retries)
	}
}

func TestRetryNodeStreamGivesUp(t *testing.T) {
	fake := newFakeLLM("ok")
	fake.failures = []error{errors.InvalidInput("prompt", "too long")}
	p := transform.NewPipeline(
		transform.WithGenerator(rag.NewGenerator(fake)),
		transform.WithTransforms(rag.NewRetry(rag.NewGeneration(), fastRetry(), logger.NewNop())),
	)

	_, err := transform.Collect(context.Background(), p.Stream(transform.Query("q")))
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if fake.Calls() != 1 {
		t.Errorf("expected no retry, got %d calls", fake.Calls())
	}
}
