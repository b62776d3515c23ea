package config

import (
	"time"

	"github.com/kbukum/srag/llm"
	"github.com/kbukum/srag/observability"
	"github.com/kbukum/srag/redis"
	"github.com/kbukum/srag/resilience"
	"github.com/kbukum/srag/util"
	"github.com/kbukum/srag/validation"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// App is the configuration of the srag CLI.
type App struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	LLM           llm.Config             `yaml:"llm" mapstructure:"llm"`
	Redis         redis.Config           `yaml:"redis" mapstructure:"redis"`
	Cache         CacheConfig            `yaml:"cache" mapstructure:"cache"`
	Retrieval     RetrievalConfig        `yaml:"retrieval" mapstructure:"retrieval"`
	Pipeline      PipelineConfig         `yaml:"pipeline" mapstructure:"pipeline"`
	Retry         resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
	Observability ObservabilityConfig    `yaml:"observability" mapstructure:"observability"`
}

// CacheConfig selects where generated responses are cached.
type CacheConfig struct {
	Backend   string        `yaml:"backend" mapstructure:"backend" validate:"oneof=none memory redis"`
	TTL       time.Duration `yaml:"ttl" mapstructure:"ttl" validate:"gte=0"`
	KeyPrefix string        `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// RetrievalConfig configures the document index.
type RetrievalConfig struct {
	TopK     int     `yaml:"top_k" mapstructure:"top_k" validate:"gte=1"`
	MinScore float64 `yaml:"min_score" mapstructure:"min_score" validate:"gte=0,lte=1"`
	// ChunkSize caps the characters per chunk when loading plain files.
	ChunkSize int `yaml:"chunk_size" mapstructure:"chunk_size" validate:"gte=0"`
}

// PipelineConfig shapes the RAG pipeline.
type PipelineConfig struct {
	Name            string `yaml:"name" mapstructure:"name"`
	PromptTemplate  string `yaml:"prompt_template" mapstructure:"prompt_template"`
	Rewrite         bool   `yaml:"rewrite" mapstructure:"rewrite"`
	RewriteCount    int    `yaml:"rewrite_count" mapstructure:"rewrite_count" validate:"gte=0"`
	LifecycleEvents bool   `yaml:"lifecycle_events" mapstructure:"lifecycle_events"`
	// Retry wraps generation in a retry node using the retry section.
	Retry bool `yaml:"retry" mapstructure:"retry"`
}

// ObservabilityConfig turns the tracing and metrics listeners on.
type ObservabilityConfig struct {
	Tracing bool                       `yaml:"tracing" mapstructure:"tracing"`
	Metrics bool                       `yaml:"metrics" mapstructure:"metrics"`
	Tracer  observability.TracerConfig `yaml:"tracer" mapstructure:"tracer"`
	Meter   observability.MeterConfig  `yaml:"meter" mapstructure:"meter"`
}

// ApplyDefaults fills every unset field.
func (c *App) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.LLM.ApplyDefaults()
	c.Redis.ApplyDefaults()

	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheMemory
		if c.Redis.Enabled {
			c.Cache.Backend = CacheRedis
		}
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = time.Hour
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = c.Name + ":response"
	}

	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 4
	}
	if c.Retrieval.ChunkSize == 0 {
		c.Retrieval.ChunkSize = 1000
	}

	if c.Pipeline.Name == "" {
		c.Pipeline.Name = "VanillaRAG"
	}
	if c.Pipeline.RewriteCount == 0 {
		c.Pipeline.RewriteCount = 3
	}

	def := resilience.DefaultRetryConfig()
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = def.MaxAttempts
	}
	if c.Retry.InitialBackoff == 0 {
		c.Retry.InitialBackoff = def.InitialBackoff
	}
	if c.Retry.MaxBackoff == 0 {
		c.Retry.MaxBackoff = def.MaxBackoff
	}
	if c.Retry.BackoffFactor == 0 {
		c.Retry.BackoffFactor = def.BackoffFactor
	}

	applyTracerDefaults(&c.Observability.Tracer, c.ServiceConfig)
	applyMeterDefaults(&c.Observability.Meter, c.ServiceConfig)
}

func applyTracerDefaults(t *observability.TracerConfig, svc ServiceConfig) {
	def := observability.DefaultTracerConfig(svc.Name)
	if t.ServiceName == "" {
		t.ServiceName = def.ServiceName
	}
	if t.ServiceVersion == "" {
		t.ServiceVersion = util.Coalesce(svc.Version, def.ServiceVersion)
	}
	if t.Environment == "" {
		t.Environment = svc.Environment
	}
	if t.Endpoint == "" {
		t.Endpoint = def.Endpoint
		t.Insecure = def.Insecure
	}
	if t.SampleRate == 0 {
		t.SampleRate = def.SampleRate
	}
}

func applyMeterDefaults(m *observability.MeterConfig, svc ServiceConfig) {
	def := observability.DefaultMeterConfig(svc.Name)
	if m.ServiceName == "" {
		m.ServiceName = def.ServiceName
	}
	if m.ServiceVersion == "" {
		m.ServiceVersion = util.Coalesce(svc.Version, def.ServiceVersion)
	}
	if m.Environment == "" {
		m.Environment = svc.Environment
	}
	if m.Endpoint == "" {
		m.Endpoint = def.Endpoint
		m.Insecure = def.Insecure
	}
	if m.Interval == 0 {
		m.Interval = def.Interval
	}
}


// Validate checks struct tags, then the rules spanning sections.
func (c *App) Validate() error {
	v := validation.New()
	c.ServiceConfig.check(v)
	v.Merge("", validation.Struct(c))
	v.Merge("llm", c.LLM.Validate())
	v.Merge("redis", c.Redis.Validate())
	v.Custom(c.Cache.Backend != CacheRedis || c.Redis.Enabled,
		"cache.backend", "redis backend requires redis.enabled")
	return v.Err()
}
