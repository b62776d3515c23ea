// Package cache defines the typed key-value store used to memoize
// generation results, with an in-memory implementation. The Redis-backed
// implementation lives in package redis.
//
//	store := cache.NewMemoryStore[rag.CachedResponse]()
//	key := cache.Key("prompt", s.FinalPrompt)
package cache
