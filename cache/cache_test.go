package cache

import (
	"context"
	"testing"
	"time"
)

type entry struct {
	Response string
}

func TestMemoryStoreSaveLoadDelete(t *testing.T) {
	s := NewMemoryStore[entry]()
	ctx := context.Background()

	if got, err := s.Load(ctx, "missing"); err != nil || got != nil {
		t.Fatalf("Load(missing) = (%v, %v), want (nil, nil)", got, err)
	}

	if err := s.Save(ctx, "k", &entry{Response: "hi"}, 0); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx, "k")
	if err != nil || got == nil || got.Response != "hi" {
		t.Fatalf("Load(k) = (%v, %v)", got, err)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d", s.Len())
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	s := NewMemoryStore[entry]()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_ = s.Save(ctx, "k", &entry{Response: "short"}, time.Minute)

	now = now.Add(30 * time.Second)
	if got, _ := s.Load(ctx, "k"); got == nil {
		t.Fatal("expected entry before expiry")
	}

	now = now.Add(time.Minute)
	if got, _ := s.Load(ctx, "k"); got != nil {
		t.Fatal("expected entry to expire")
	}
	if s.Len() != 0 {
		t.Error("expected expired entry to be removed")
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		name  string
		a, b  []string
		equal bool
	}{
		{"same parts", []string{"prompt", "hello"}, []string{"prompt", "hello"}, true},
		{"different content", []string{"hello"}, []string{"world"}, false},
		{"shifted boundary", []string{"ab", "c"}, []string{"a", "bc"}, false},
		{"order matters", []string{"a", "b"}, []string{"b", "a"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Key(tc.a...) == Key(tc.b...); got != tc.equal {
				t.Errorf("Key(%v) == Key(%v) is %v, want %v", tc.a, tc.b, got, tc.equal)
			}
		})
	}
}
