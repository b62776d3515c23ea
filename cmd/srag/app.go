package main

import (
	"context"

	"github.com/spf13/cobra"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/srag/agent"
	"github.com/kbukum/srag/cache"
	"github.com/kbukum/srag/component"
	"github.com/kbukum/srag/config"
	"github.com/kbukum/srag/errors"
	"github.com/kbukum/srag/listener"
	"github.com/kbukum/srag/llm"
	_ "github.com/kbukum/srag/llm/ollama"
	"github.com/kbukum/srag/logger"
	"github.com/kbukum/srag/observability"
	"github.com/kbukum/srag/provider"
	"github.com/kbukum/srag/rag"
	"github.com/kbukum/srag/redis"
	"github.com/kbukum/srag/retrieval"
	"github.com/kbukum/srag/schema"
	"github.com/kbukum/srag/transform"
)

// app is a configured pipeline and the components it holds.
type app struct {
	cfg        config.App
	log        *logger.Logger
	pipeline   *transform.Pipeline
	index      *retrieval.MemoryIndex
	listeners  []transform.Listener
	components *component.Registry
}

// newApp starts the components cfg asks for and wires the pipeline over
// docs.
func newApp(ctx context.Context, cfg config.App, docs []*schema.Document) (_ *app, err error) {
	logger.Init(cfg.Logging)
	logger.RegisterDefaults("srag", "llm", "cache")
	a := &app{cfg: cfg, log: logger.Get("srag")}
	a.components = component.NewRegistry(a.log)
	defer func() {
		if err != nil {
			_ = a.Close(context.WithoutCancel(ctx))
		}
	}()

	if cfg.Observability.Metrics {
		if err := a.components.Register(meterComponent(cfg.Observability.Meter)); err != nil {
			return nil, err
		}
	}
	if cfg.Observability.Tracing {
		if err := a.components.Register(tracerComponent(cfg.Observability.Tracer)); err != nil {
			return nil, err
		}
	}

	p, err := llm.New(cfg.LLM)
	if err != nil {
		return nil, err
	}
	if err := a.components.Register(component.FromProvider("llm", p)); err != nil {
		return nil, err
	}

	store, err := a.cacheStore()
	if err != nil {
		return nil, err
	}
	if err := a.components.StartAll(ctx); err != nil {
		return nil, err
	}

	var metrics *observability.Metrics
	if cfg.Observability.Metrics {
		if metrics, err = observability.NewMetrics(observability.Meter(cfg.Name)); err != nil {
			return nil, err
		}
		a.listeners = append(a.listeners, listener.NewMetrics(metrics))
	}
	if cfg.Observability.Tracing {
		a.listeners = append(a.listeners, listener.NewTracing(nil))
	}
	a.listeners = append(a.listeners, listener.NewLogging(a.log))

	a.index = retrieval.NewMemoryIndex(retrieval.WithMinScore(cfg.Retrieval.MinScore))
	a.index.Add(docs...)

	vc := rag.VanillaConfig{
		Name:            cfg.Pipeline.Name,
		Retriever:       a.index,
		TopK:            cfg.Retrieval.TopK,
		Generator:       a.generator(p, metrics),
		PromptTemplate:  cfg.Pipeline.PromptTemplate,
		CacheTTL:        cfg.Cache.TTL,
		Listeners:       a.listeners,
		LifecycleEvents: cfg.Pipeline.LifecycleEvents,
		Logger:          a.log,
	}
	if store != nil {
		vc.Cache = store
	}
	if cfg.Pipeline.Retry {
		retry := cfg.Retry
		vc.Retry = &retry
	}
	if cfg.Pipeline.Rewrite {
		rewrite, err := agent.NewRewrite(cfg.Pipeline.RewriteCount)
		if err != nil {
			return nil, err
		}
		vc.Pre = append(vc.Pre, rewrite)
	}

	if a.pipeline, err = rag.BuildVanilla(vc); err != nil {
		return nil, err
	}
	a.log.Debug("pipeline ready", logger.Fields(
		"pipeline", a.pipeline.Name(),
		"documents", a.index.Len(),
		"cache", cfg.Cache.Backend,
		"model", cfg.LLM.Model,
	))
	return a, nil
}

func meterComponent(cfg observability.MeterConfig) component.Component {
	var mp *sdkmetric.MeterProvider
	return component.New("meter",
		component.WithStart(func(ctx context.Context) (err error) {
			mp, err = observability.InitMeter(ctx, &cfg)
			return err
		}),
		component.WithStop(func(ctx context.Context) error { return mp.Shutdown(ctx) }),
	)
}

func tracerComponent(cfg observability.TracerConfig) component.Component {
	var tp *sdktrace.TracerProvider
	return component.New("tracer",
		component.WithStart(func(ctx context.Context) (err error) {
			tp, err = observability.InitTracer(ctx, cfg)
			return err
		}),
		component.WithStop(func(ctx context.Context) error { return tp.Shutdown(ctx) }),
	)
}

func (a *app) generator(p llm.Provider, metrics *observability.Metrics) *rag.LLMGenerator {
	mws := []provider.Middleware[llm.CompletionRequest, llm.CompletionResponse]{
		provider.WithLogging[llm.CompletionRequest, llm.CompletionResponse](logger.Get("llm")),
	}
	if a.cfg.Observability.Tracing {
		mws = append(mws, provider.WithTracing[llm.CompletionRequest, llm.CompletionResponse](a.cfg.Name))
	}
	if metrics != nil {
		mws = append(mws, provider.WithMetrics[llm.CompletionRequest, llm.CompletionResponse](metrics))
	}

	opts := []rag.GeneratorOption{
		rag.WithModel(a.cfg.LLM.Model),
		rag.WithTemperature(a.cfg.LLM.Temperature),
		rag.WithMaxTokens(a.cfg.LLM.MaxTokens),
		rag.WithPricing(a.cfg.LLM.Pricing),
	}
	if metrics != nil {
		opts = append(opts, rag.WithTokenMetrics(metrics))
	}
	return rag.NewGenerator(llm.Wrap(p, mws...), opts...)
}

// cacheStore returns nil when caching is off. A Redis store registers the
// client as a component so StartAll checks the connection.
func (a *app) cacheStore() (cache.Store[rag.CachedResponse], error) {
	switch a.cfg.Cache.Backend {
	case config.CacheMemory:
		return cache.NewMemoryStore[rag.CachedResponse](), nil
	case config.CacheRedis:
		client, err := redis.New(a.cfg.Redis, logger.Get("cache"))
		if err != nil {
			return nil, err
		}
		err = a.components.Register(component.FromProvider(client.Name(), client,
			component.WithStart(client.Ping),
			component.WithStop(func(context.Context) error { return client.Close() }),
		))
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return redis.NewTypedStore[rag.CachedResponse](client, a.cfg.Cache.KeyPrefix), nil
	default:
		return nil, nil
	}
}

// fail flushes the listeners after a failed run so no span or timer is
// left open.
func (a *app) fail(ctx context.Context, err error) error {
	listener.FlushAll(context.WithoutCancel(ctx), a.listeners...)
	a.log.Error("run failed", logger.Fields("error", err.Error()))
	return err
}

// Close stops the components in reverse order of registration.
func (a *app) Close(ctx context.Context) error {
	return a.components.StopAll(ctx)
}

// setup loads the configuration and the documents named on the command
// line and builds the app.
func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if len(rootFlags.docs) == 0 {
		return nil, errors.InvalidInput("doc", "at least one --doc is required")
	}
	docs, err := loadDocuments(rootFlags.docs, cfg.Retrieval.ChunkSize)
	if err != nil {
		return nil, err
	}
	return newApp(cmd.Context(), cfg, docs)
}
