package provider_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/srag/logger"
	"github.com/kbukum/srag/observability"
	"github.com/kbukum/srag/provider"
)

type echoProvider struct {
	name string
}

func (p *echoProvider) Name() string                       { return p.name }
func (p *echoProvider) IsAvailable(_ context.Context) bool { return true }
func (p *echoProvider) Execute(_ context.Context, in string) (string, error) {
	return "echo:" + in, nil
}

var _ provider.RequestResponse[string, string] = (*echoProvider)(nil)

type failingProvider struct {
	calls int
}

func (p *failingProvider) Name() string                       { return "fail" }
func (p *failingProvider) IsAvailable(_ context.Context) bool { return false }
func (p *failingProvider) Execute(_ context.Context, _ string) (string, error) {
	p.calls++
	return "", errors.New("intentional failure")
}

func TestChain_Empty(t *testing.T) {
	wrapped := provider.Chain[string, string]()(&echoProvider{name: "test"})
	if wrapped.Name() != "test" {
		t.Fatalf("expected 'test', got %q", wrapped.Name())
	}
	result, err := wrapped.Execute(context.Background(), "hello")
	if err != nil || result != "echo:hello" {
		t.Fatalf("expected echo:hello, got %q, err %v", result, err)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(tag string) provider.Middleware[string, string] {
		return func(inner provider.RequestResponse[string, string]) provider.RequestResponse[string, string] {
			return provider.Func(inner.Name(), func(ctx context.Context, in string) (string, error) {
				order = append(order, tag+":before")
				out, err := inner.Execute(ctx, in)
				order = append(order, tag+":after")
				return out, err
			})
		}
	}

	wrapped := provider.Chain(mw("A"), mw("B"), mw("C"))(&echoProvider{name: "test"})
	if _, err := wrapped.Execute(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}

	want := []string{"A:before", "B:before", "C:before", "C:after", "B:after", "A:after"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, order)
	}
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)

	ok := provider.WithLogging[string, string](log)(&echoProvider{name: "log-test"})
	if result, err := ok.Execute(context.Background(), "hello"); err != nil || result != "echo:hello" {
		t.Fatalf("unexpected result %q, err %v", result, err)
	}
	if !strings.Contains(buf.String(), "provider execute ok") {
		t.Errorf("expected success log, got %q", buf.String())
	}

	buf.Reset()
	failing := provider.WithLogging[string, string](log)(&failingProvider{})
	if _, err := failing.Execute(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(buf.String(), "intentional failure") {
		t.Errorf("expected error log, got %q", buf.String())
	}
	if failing.IsAvailable(context.Background()) {
		t.Error("expected IsAvailable to delegate")
	}
}

func TestWithTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	wrapped := provider.WithTracing[string, string]("srag")(&failingProvider{})
	if _, err := wrapped.Execute(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != "srag.fail" {
		t.Fatalf("expected one span named srag.fail, got %v", spans)
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected recorded error")
	}
}

func TestWithMetrics(t *testing.T) {
	metrics, err := observability.NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	ok := provider.WithMetrics[string, string](metrics)(&echoProvider{name: "m"})
	if result, err := ok.Execute(context.Background(), "x"); err != nil || result != "echo:x" {
		t.Fatalf("unexpected result %q, err %v", result, err)
	}
	failing := provider.WithMetrics[string, string](metrics)(&failingProvider{})
	if _, err := failing.Execute(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestFunc(t *testing.T) {
	p := provider.Func("upper", func(_ context.Context, in string) (string, error) {
		return strings.ToUpper(in), nil
	})
	if p.Name() != "upper" || !p.IsAvailable(context.Background()) {
		t.Errorf("unexpected provider metadata")
	}
	if out, _ := p.Execute(context.Background(), "abc"); out != "ABC" {
		t.Errorf("expected ABC, got %q", out)
	}
}
