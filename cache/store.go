package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Store provides typed persistence keyed by opaque strings.
// A TTL of 0 means no expiration.
type Store[V any] interface {
	// Load returns (nil, nil) when the key does not exist.
	Load(ctx context.Context, key string) (*V, error)
	Save(ctx context.Context, key string, val *V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Key hashes parts into a compact cache key. Parts are length-prefixed so
// ("ab", "c") and ("a", "bc") differ.
func Key(parts ...string) string {
	d := xxhash.New()
	var buf [20]byte
	for _, p := range parts {
		_, _ = d.Write(strconv.AppendInt(buf[:0], int64(len(p)), 10))
		_, _ = d.WriteString(":")
		_, _ = d.WriteString(p)
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
