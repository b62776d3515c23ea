package rag

import (
	"context"
	"strings"

	"github.com/kbukum/srag/errors"
	"github.com/kbukum/srag/llm"
	"github.com/kbukum/srag/observability"
	"github.com/kbukum/srag/transform"
)

// LLMGenerator implements transform.Generator over an llm.Provider. The
// prompt is the state's final prompt, or its query when no prompt was
// built, sent after the conversation history.
type LLMGenerator struct {
	provider    llm.Provider
	model       string
	system      string
	temperature float64
	maxTokens   int
	pricing     llm.Pricing
	metrics     *observability.Metrics
}

// GeneratorOption configures an LLMGenerator.
type GeneratorOption func(*LLMGenerator)

// WithModel overrides the provider's default model.
func WithModel(model string) GeneratorOption {
	return func(g *LLMGenerator) { g.model = model }
}

// WithSystemPrompt sets the system prompt sent with every request.
func WithSystemPrompt(prompt string) GeneratorOption {
	return func(g *LLMGenerator) { g.system = prompt }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) GeneratorOption {
	return func(g *LLMGenerator) { g.temperature = t }
}

// WithMaxTokens bounds the response length.
func WithMaxTokens(n int) GeneratorOption {
	return func(g *LLMGenerator) { g.maxTokens = n }
}

// WithPricing sets the prices used for cost accounting.
func WithPricing(p llm.Pricing) GeneratorOption {
	return func(g *LLMGenerator) { g.pricing = p }
}

// WithTokenMetrics records token usage on m.
func WithTokenMetrics(m *observability.Metrics) GeneratorOption {
	return func(g *LLMGenerator) { g.metrics = m }
}

// NewGenerator returns a generator over p.
func NewGenerator(p llm.Provider, opts ...GeneratorOption) *LLMGenerator {
	g := &LLMGenerator{provider: p}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *LLMGenerator) request(s *transform.State) (llm.CompletionRequest, error) {
	prompt := s.FinalPrompt
	if prompt == "" {
		prompt = s.Query
	}
	if prompt == "" {
		return llm.CompletionRequest{}, errors.InvalidInput(transform.KeyFinalPrompt, "nothing to generate from: final_prompt and query are empty")
	}
	return llm.CompletionRequest{
		Model:        g.model,
		Messages:     llm.Messages(s.History, prompt),
		SystemPrompt: g.system,
		Temperature:  g.temperature,
		MaxTokens:    g.maxTokens,
	}, nil
}

func (g *LLMGenerator) account(ctx context.Context, s *transform.State, model string, u llm.Usage) {
	if s.Cost == nil {
		s.Cost = &llm.Cost{}
	}
	s.Cost.Add(u, g.pricing)
	if g.metrics != nil {
		if model == "" {
			model = g.model
		}
		g.metrics.RecordTokens(ctx, model, u.PromptTokens, u.CompletionTokens)
	}
}

// Generate sets the response and adds the call's usage to the state cost.
func (g *LLMGenerator) Generate(ctx context.Context, s *transform.State) (*transform.State, error) {
	req, err := g.request(s)
	if err != nil {
		return nil, err
	}
	resp, err := g.provider.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	s.Response = resp.Content
	g.account(ctx, s, resp.Model, resp.Usage)
	return s, nil
}

// GenerateStream yields the state once per received chunk with the
// response accumulated so far. Usage is accounted when the final chunk
// arrives.
func (g *LLMGenerator) GenerateStream(ctx context.Context, s *transform.State) (transform.Stream, error) {
	req, err := g.request(s)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	ch, err := g.provider.Stream(ctx, req)
	if err != nil {
		cancel()
		return nil, err
	}

	var sb strings.Builder
	next := func(nextCtx context.Context) (*transform.State, bool, error) {
		for {
			select {
			case <-nextCtx.Done():
				return nil, false, nextCtx.Err()
			case chunk, ok := <-ch:
				if !ok {
					return nil, false, nil
				}
				if chunk.Err != nil {
					return nil, false, chunk.Err
				}
				if chunk.Done {
					sb.WriteString(chunk.Content)
					s.Response = sb.String()
					g.account(ctx, s, g.model, chunk.Usage)
					return s, true, nil
				}
				if chunk.Content == "" {
					continue
				}
				sb.WriteString(chunk.Content)
				s.Response = sb.String()
				return s, true, nil
			}
		}
	}
	closer := func() error {
		cancel()
		for range ch {
		}
		return nil
	}
	return transform.NewStream(next, closer), nil
}

var _ transform.Generator = (*LLMGenerator)(nil)
