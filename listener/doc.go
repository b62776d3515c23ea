// Package listener provides transform.Listener implementations for
// structured logging, OpenTelemetry tracing, and OpenTelemetry metrics.
//
// Listeners correlate the enter and exit events of a node by run id and
// node name. A node that fails never announces its exit; Flush closes out
// whatever is still pending after a failed call.
//
//	p := transform.NewPipeline(
//	    transform.WithListeners(
//	        listener.NewLogging(log),
//	        listener.NewTracing(nil),
//	    ),
//	)
package listener
