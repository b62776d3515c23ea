package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/kbukum/srag/errors"
)

func fastConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		BackoffFactor:  2.0,
	}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	callCount := 0
	result, err := Retry(context.Background(), DefaultRetryConfig(), func() (string, error) {
		callCount++
		return "success", nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "success" {
		t.Errorf("expected 'success', got %s", result)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestRetry_SucceedsAfterRetry(t *testing.T) {
	callCount := 0
	result, err := Retry(context.Background(), fastConfig(3), func() (string, error) {
		callCount++
		if callCount < 3 {
			return "", errors.New("temporary error")
		}
		return "success", nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "success" {
		t.Errorf("expected 'success', got %s", result)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestRetry_ExceedsMaxAttempts(t *testing.T) {
	callCount := 0
	testErr := errors.New("persistent error")

	_, err := Retry(context.Background(), fastConfig(3), func() (string, error) {
		callCount++
		return "", testErr
	})

	if !errors.Is(err, testErr) {
		t.Errorf("expected testErr, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestRetry_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxAttempts: 5, InitialBackoff: time.Hour}

	callCount := 0
	_, err := Retry(ctx, cfg, func() (int, error) {
		callCount++
		cancel()
		return 0, errors.New("fail")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestRetry_RetryIfFilter(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCalls int
	}{
		{"plain error retried", errors.New("boom"), 3},
		{"retryable app error retried", apperrors.ServiceUnavailable("ollama"), 3},
		{"non-retryable app error stops", apperrors.InvalidInput("prompt", "empty"), 1},
		{"configuration error stops", apperrors.Configuration("no resource"), 1},
		{"cancellation stops", context.Canceled, 1},
		{"node failure with plain cause retried", apperrors.NodeExecution("Pipeline::Generation", errors.New("eof")), 3},
		{"node failure with invalid input stops", apperrors.NodeExecution("Pipeline::Generation", apperrors.InvalidInput("q", "empty")), 1},
		{"listener failure stops", apperrors.Listener("onTransformEnter", "Pipeline", errors.New("x")), 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := fastConfig(3)
			cfg.RetryIf = RetryIfTransient

			calls := 0
			_, err := Retry(context.Background(), cfg, func() (string, error) {
				calls++
				return "", tc.err
			})
			if err == nil {
				t.Fatal("expected error")
			}
			if calls != tc.wantCalls {
				t.Errorf("expected %d calls, got %d", tc.wantCalls, calls)
			}
		})
	}
}

func TestRetry_OnRetryCallback(t *testing.T) {
	cfg := fastConfig(3)
	var attempts []int
	cfg.OnRetry = func(attempt int, _ error, _ time.Duration) {
		attempts = append(attempts, attempt)
	}

	_, _ = Retry(context.Background(), cfg, func() (string, error) {
		return "", errors.New("fail")
	})

	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("expected OnRetry for attempts [1 2], got %v", attempts)
	}
}

func TestRetryFunc(t *testing.T) {
	calls := 0
	err := RetryFunc(context.Background(), fastConfig(2), func() error {
		calls++
		if calls == 1 {
			return errors.New("first")
		}
		return nil
	})
	if err != nil {
		t.Errorf("expected success, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		BackoffFactor:  2.0,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{5, time.Second},
	}
	for _, tc := range tests {
		if got := calculateBackoff(tc.attempt, cfg); got != tc.want {
			t.Errorf("attempt %d: expected %v, got %v", tc.attempt, tc.want, got)
		}
	}
}
