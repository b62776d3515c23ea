// Package transform is the execution engine behind srag pipelines.
//
// A pipeline is a tree of [Node] values that process one shared, mutable
// [State]. Each node announces itself to the listeners, runs its children
// (sequentially, threading the state, or in parallel on the same state),
// runs its own [Logic], and announces its exit. Nodes can also be consumed
// as a [Stream] of intermediate states.
//
// A [SharedResource] carrying the generation service and the listener
// [Dispatcher] is built once by the root [Pipeline] and handed down to every
// node during [Node.Initialize].
//
//	p := transform.NewPipeline(
//	    transform.WithGenerator(gen),
//	    transform.WithListeners(listener.NewLogging(log)),
//	    transform.WithTransforms(retrieve, prompt, generate),
//	)
//	answer, err := p.Call(ctx, transform.Query("what is srag?"))
//
// # Concurrency
//
// Parallel children share the same *State. Writes through [State.Get] and
// [State.Set] are serialized, but the engine does not merge results: two
// parallel children writing the same key race, and the last write wins.
package transform
