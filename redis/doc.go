// Package redis wraps go-redis with the module's logging and configuration
// conventions and provides TypedStore, a JSON-serialized cache.Store.
//
//	client, err := redis.New(redis.Config{Enabled: true, Addr: "localhost:6379"}, log)
//	store := redis.NewTypedStore[rag.CachedResponse](client, "srag:responses")
//
// Package redistest starts an in-memory server for tests.
package redis
