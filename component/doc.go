// Package component manages the lifecycle of the external resources an srag
// process holds: telemetry exporters, the Redis cache and the LLM backend.
//
// Components start in registration order and stop in reverse order:
//
//	reg := component.NewRegistry(log)
//	_ = reg.Register(component.New("redis",
//	    component.WithStart(client.Ping),
//	    component.WithStop(func(context.Context) error { return client.Close() }),
//	    component.WithHealth(client.Ping),
//	))
//	if err := reg.StartAll(ctx); err != nil { ... }
//	defer reg.StopAll(ctx)
package component
