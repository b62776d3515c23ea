// Package redistest starts in-memory Redis servers for tests.
package redistest

import (
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/srag/logger"
	"github.com/kbukum/srag/redis"
)

// NewClient starts a miniredis server and returns a client connected to
// it. Both are closed when the test ends.
func NewClient(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mini.Close)

	client, err := redis.New(redis.Config{Enabled: true, Addr: mini.Addr()}, logger.NewNop())
	if err != nil {
		t.Fatalf("failed to create redis client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, mini
}
