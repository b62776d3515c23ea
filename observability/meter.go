package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/srag/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string        `yaml:"service_name" mapstructure:"service_name"`
	ServiceVersion string        `yaml:"service_version" mapstructure:"service_version"`
	Environment    string        `yaml:"environment" mapstructure:"environment"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval       time.Duration `yaml:"interval" mapstructure:"interval"`
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded around pipeline execution.
type Metrics struct {
	operationTotal    metric.Int64Counter
	operationDuration metric.Float64Histogram
	operationActive   metric.Int64UpDownCounter
	errorTotal        metric.Int64Counter
	tokenTotal        metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	operationTotal, err := meter.Int64Counter("srag.operation.total",
		metric.WithDescription("Total number of transform executions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating srag.operation.total counter: %w", err)
	}

	operationDuration, err := meter.Float64Histogram("srag.operation.duration",
		metric.WithDescription("Duration of transform executions in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating srag.operation.duration histogram: %w", err)
	}

	operationActive, err := meter.Int64UpDownCounter("srag.operation.active",
		metric.WithDescription("Number of transforms currently executing"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating srag.operation.active gauge: %w", err)
	}

	errorTotal, err := meter.Int64Counter("srag.error.total",
		metric.WithDescription("Total errors by type and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating srag.error.total counter: %w", err)
	}

	tokenTotal, err := meter.Int64Counter("srag.llm.tokens",
		metric.WithDescription("Tokens consumed by generation"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating srag.llm.tokens counter: %w", err)
	}

	return &Metrics{
		operationTotal:    operationTotal,
		operationDuration: operationDuration,
		operationActive:   operationActive,
		errorTotal:        errorTotal,
		tokenTotal:        tokenTotal,
	}, nil
}

// RecordStart increments the active operation count.
func (m *Metrics) RecordStart(ctx context.Context, pipeline string) {
	m.operationActive.Add(ctx, 1, metric.WithAttributes(attribute.String("pipeline", pipeline)))
}

// RecordOperation decrements the active count and records a completed execution.
func (m *Metrics) RecordOperation(ctx context.Context, pipeline, operation, status string, duration time.Duration) {
	m.operationActive.Add(ctx, -1, metric.WithAttributes(attribute.String("pipeline", pipeline)))
	m.operationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pipeline", pipeline),
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
	m.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("pipeline", pipeline),
		attribute.String("operation", operation),
	))
}

// RecordError records an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}

// RecordTokens records prompt and completion token usage for a model.
func (m *Metrics) RecordTokens(ctx context.Context, model string, prompt, completion int) {
	m.tokenTotal.Add(ctx, int64(prompt), metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("kind", "prompt"),
	))
	m.tokenTotal.Add(ctx, int64(completion), metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("kind", "completion"),
	))
}
