package listener_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"

	"github.com/kbukum/srag/listener"
	"github.com/kbukum/srag/logger"
	"github.com/kbukum/srag/observability"
	"github.com/kbukum/srag/transform"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func setResponse(name, resp string) *transform.Node {
	return transform.New(name, transform.Func(func(_ context.Context, s *transform.State) (*transform.State, error) {
		s.Response = resp
		return s, nil
	}), transform.WithInputKeys(transform.KeyQuery), transform.WithOutputKeys(transform.KeyResponse))
}

func failing(name string) *transform.Node {
	return transform.New(name, transform.Func(func(context.Context, *transform.State) (*transform.State, error) {
		return nil, stderrors.New("boom")
	}))
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			t.Fatalf("invalid log line %q: %v", sc.Text(), err)
		}
		out = append(out, entry)
	}
	return out
}

func TestLoggingListener(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)
	l := listener.NewLogging(log)

	p := transform.NewPipeline(
		transform.WithListeners(l),
		transform.WithLifecycleEvents(),
		transform.WithTransforms(setResponse("answer", "42")),
	)
	if _, err := p.Call(context.Background(), transform.Query("q"), transform.RunID("run-1")); err != nil {
		t.Fatalf("Call: %v", err)
	}

	entries := decodeLines(t, &buf)
	var completed map[string]any
	for _, e := range entries {
		if e["message"] == "transform completed" && e[logger.FieldNode] == "Pipeline::answer" {
			completed = e
		}
	}
	if completed == nil {
		t.Fatalf("no completion entry for Pipeline::answer in %v", entries)
	}
	if completed[logger.FieldRunID] != "run-1" {
		t.Errorf("expected run id, got %v", completed[logger.FieldRunID])
	}
	if _, ok := completed[logger.FieldDuration]; !ok {
		t.Error("expected duration field")
	}
	output, _ := completed["output"].(map[string]any)
	if output[transform.KeyResponse] != "42" {
		t.Errorf("expected output slice with response, got %v", completed["output"])
	}
	if got := len(entries); got != 6 {
		t.Errorf("expected 6 log entries (2 lifecycle, 4 transform), got %d", got)
	}
	if l.Pending() != 0 {
		t.Errorf("expected no pending entries, got %d", l.Pending())
	}
}

func TestLoggingFlushAfterFailure(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "warn", Format: "json"}, "test", &buf)
	l := listener.NewLogging(log)

	p := transform.NewPipeline(transform.WithListeners(l), transform.WithTransforms(failing("bad")))
	if _, err := p.Call(context.Background()); err == nil {
		t.Fatal("expected failure")
	}
	if l.Pending() != 2 {
		t.Fatalf("expected root and failing node pending, got %d", l.Pending())
	}

	listener.FlushAll(context.Background(), l)
	if l.Pending() != 0 {
		t.Error("expected Flush to clear pending entries")
	}
	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(entries))
	}
	for _, e := range entries {
		if e[logger.FieldStatus] != "incomplete" {
			t.Errorf("unexpected entry %v", e)
		}
	}
}

func TestTracingListener(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())

	l := listener.NewTracing(tp.Tracer("test"))
	p := transform.NewPipeline(
		transform.WithListeners(l),
		transform.WithTransforms(
			transform.New("group", nil, transform.Parallel(), transform.WithChildren(
				setResponse("a", "x"),
				setResponse("b", "x"),
			)),
		),
	)
	if _, err := p.Call(context.Background(), transform.Query("q")); err != nil {
		t.Fatalf("Call: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 4 {
		t.Fatalf("expected 4 spans, got %d", len(spans))
	}

	byNode := make(map[string]tracetest.SpanStub)
	for _, s := range spans {
		for _, kv := range s.Attributes {
			if kv.Key == attribute.Key(observability.AttrNode) {
				byNode[kv.Value.AsString()] = s
			}
		}
		if s.Status.Code != codes.Ok {
			t.Errorf("span %s: expected ok status, got %v", s.Name, s.Status.Code)
		}
	}

	root := byNode["Pipeline"]
	group := byNode["Pipeline::group"]
	a := byNode["Pipeline::group::a"]
	if group.Parent.SpanID() != root.SpanContext.SpanID() {
		t.Error("expected group span to be a child of the pipeline span")
	}
	if a.Parent.SpanID() != group.SpanContext.SpanID() {
		t.Error("expected leaf span to be a child of the group span")
	}
	if a.SpanContext.TraceID() != root.SpanContext.TraceID() {
		t.Error("expected a single trace per run")
	}
}

func TestTracingFlushEndsOpenSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())

	l := listener.NewTracing(tp.Tracer("test"))
	p := transform.NewPipeline(transform.WithListeners(l), transform.WithTransforms(failing("bad")))
	if _, err := p.Call(context.Background()); err == nil {
		t.Fatal("expected failure")
	}
	if got := len(exporter.GetSpans()); got != 0 {
		t.Fatalf("expected no ended spans before flush, got %d", got)
	}

	l.Flush(context.Background())
	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 flushed spans, got %d", len(spans))
	}
	for _, s := range spans {
		if s.Status.Code != codes.Error {
			t.Errorf("span %s: expected error status", s.Name)
		}
	}
	if l.Pending() != 0 {
		t.Error("expected no open spans after flush")
	}
}

func collectOperations(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "srag.operation.total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected data type %T", m.Data)
			}
			for _, dp := range sum.DataPoints {
				op, _ := dp.Attributes.Value(attribute.Key("operation"))
				status, _ := dp.Attributes.Value(attribute.Key("status"))
				out[op.AsString()+"/"+status.AsString()] += dp.Value
			}
		}
	}
	return out
}

func TestMetricsListener(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := observability.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	l := listener.NewMetrics(m)

	ok := transform.NewPipeline(transform.WithListeners(l), transform.WithTransforms(setResponse("answer", "42")))
	if _, err := ok.Call(context.Background()); err != nil {
		t.Fatalf("Call: %v", err)
	}
	bad := transform.NewPipeline(transform.WithName("Bad"), transform.WithListeners(l), transform.WithTransforms(failing("step")))
	if _, err := bad.Call(context.Background()); err == nil {
		t.Fatal("expected failure")
	}
	l.Flush(context.Background())

	got := collectOperations(t, reader)
	want := map[string]int64{
		"Pipeline/ok":         1,
		"Pipeline::answer/ok": 1,
		"Bad/error":           1,
		"Bad::step/error":     1,
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: expected %d, got %d (all: %v)", k, v, got[k], got)
		}
	}
}
