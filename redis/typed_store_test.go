package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/kbukum/srag/errors"
	"github.com/kbukum/srag/logger"
	"github.com/kbukum/srag/redis"
	"github.com/kbukum/srag/redis/redistest"
)

type cachedAnswer struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources"`
}

func TestTypedStore_SaveAndLoad(t *testing.T) {
	client, _ := redistest.NewClient(t)
	store := redis.NewTypedStore[cachedAnswer](client, "test")
	ctx := context.Background()

	val := cachedAnswer{Response: "42", Sources: []string{"a", "b"}}
	if err := store.Save(ctx, "k1", &val, 0); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load(ctx, "k1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got == nil || got.Response != "42" || len(got.Sources) != 2 {
		t.Fatalf("unexpected value %+v", got)
	}
}

func TestTypedStore_LoadMissing(t *testing.T) {
	client, _ := redistest.NewClient(t)
	store := redis.NewTypedStore[cachedAnswer](client, "test")

	got, err := store.Load(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing key, got %+v", got)
	}
}

func TestTypedStore_Delete(t *testing.T) {
	client, _ := redistest.NewClient(t)
	store := redis.NewTypedStore[cachedAnswer](client, "test")
	ctx := context.Background()

	_ = store.Save(ctx, "k1", &cachedAnswer{Response: "x"}, 0)
	if err := store.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if got, err := store.Load(ctx, "k1"); err != nil || got != nil {
		t.Fatalf("expected nil after delete, got %+v, %v", got, err)
	}
}

func TestTypedStore_TTL(t *testing.T) {
	client, mini := redistest.NewClient(t)
	store := redis.NewTypedStore[cachedAnswer](client, "test")
	ctx := context.Background()

	if err := store.Save(ctx, "k1", &cachedAnswer{Response: "x"}, 2*time.Second); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if got, err := store.Load(ctx, "k1"); err != nil || got == nil {
		t.Fatalf("expected value before TTL, got %v, err %v", got, err)
	}

	mini.FastForward(3 * time.Second)

	if got, err := store.Load(ctx, "k1"); err != nil || got != nil {
		t.Fatalf("expected nil after TTL expiration, got %+v, %v", got, err)
	}
}

func TestTypedStore_KeyPrefix(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"myprefix", "myprefix:k1"},
		{"", "k1"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			client, mini := redistest.NewClient(t)
			store := redis.NewTypedStore[cachedAnswer](client, tc.prefix)
			_ = store.Save(context.Background(), "k1", &cachedAnswer{Response: "x"}, 0)

			raw, err := mini.Get(tc.want)
			if err != nil || raw == "" {
				t.Fatalf("expected value at %q, err: %v", tc.want, err)
			}
		})
	}
}

func TestTypedStore_CorruptValue(t *testing.T) {
	client, mini := redistest.NewClient(t)
	store := redis.NewTypedStore[cachedAnswer](client, "test")
	_ = mini.Set("test:bad", "{not json")

	_, err := store.Load(context.Background(), "bad")
	if !errors.HasCode(err, errors.ErrCodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestTypedStore_ServerDown(t *testing.T) {
	client, mini := redistest.NewClient(t)
	store := redis.NewTypedStore[cachedAnswer](client, "test")
	mini.Close()

	_, err := store.Load(context.Background(), "k1")
	if !errors.HasCode(err, errors.ErrCodeExternalService) {
		t.Fatalf("expected external service error, got %v", err)
	}
}

func TestClient_NameAndAvailability(t *testing.T) {
	client, _ := redistest.NewClient(t)
	ctx := context.Background()

	if client.Name() != "redis" {
		t.Errorf("expected default name, got %q", client.Name())
	}
	if !client.IsAvailable(ctx) {
		t.Error("expected client to be available")
	}
	if err := client.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}

	_ = client.Close()
	_ = client.Close()
	if client.IsAvailable(ctx) {
		t.Error("expected closed client to be unavailable")
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  redis.Config
	}{
		{"disabled", redis.Config{Addr: "localhost:6379"}},
		{"missing addr", redis.Config{Enabled: true}},
		{"bad timeout", redis.Config{Enabled: true, Addr: "localhost:6379", DialTimeout: "soon"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := redis.New(tc.cfg, logger.NewNop())
			if !errors.HasCode(err, errors.ErrCodeConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}
