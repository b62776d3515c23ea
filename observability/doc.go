// Package observability provides OpenTelemetry tracing and metrics for srag
// pipelines.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("srag"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, "transform.Pipeline::Generation")
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("srag"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("srag"))
//	metrics.RecordOperation(ctx, "Pipeline", "Pipeline::Generation", "ok", duration)
package observability
