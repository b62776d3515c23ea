package agent

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/kbukum/srag/errors"
	"github.com/kbukum/srag/rag"
	"github.com/kbukum/srag/transform"
)

// ParseFunc turns a model response into the value stored under
// parsed_response. It may also update s.
type ParseFunc func(s *transform.State, response string) (any, error)

type config struct {
	name      string
	inputKeys []string
	outKeys   []string
	parse     ParseFunc
	generator transform.Generator
	listeners []transform.Listener
	nodeOpts  []transform.Option
	blocking  bool
}

// Option configures an agent.
type Option func(*config)

// WithName overrides the agent's node name.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithInputKeys sets the state keys exposed to the prompt template.
func WithInputKeys(keys ...string) Option {
	return func(c *config) { c.inputKeys = keys }
}

// WithOutputKeys declares additional keys the parser writes.
func WithOutputKeys(keys ...string) Option {
	return func(c *config) { c.outKeys = append(c.outKeys, keys...) }
}

// WithParser sets the response parser. Without one the parsed response is
// the raw response text.
func WithParser(p ParseFunc) Option {
	return func(c *config) { c.parse = p }
}

// WithGenerator sets the generator used when the agent runs on its own.
func WithGenerator(g transform.Generator) Option {
	return func(c *config) { c.generator = g }
}

// WithListeners gives the agent its own resource with these listeners.
// A parent pipeline's resource replaces it unless the agent has already run
// standalone.
func WithListeners(listeners ...transform.Listener) Option {
	return func(c *config) { c.listeners = append(c.listeners, listeners...) }
}

// WithoutStreaming makes the agent emit one state when streamed instead of
// the generation's partial states.
func WithoutStreaming() Option {
	return func(c *config) { c.blocking = true }
}

// WithNodeOptions passes options to the underlying node.
func WithNodeOptions(opts ...transform.Option) Option {
	return func(c *config) { c.nodeOpts = append(c.nodeOpts, opts...) }
}

// NewPrompt returns a prompt agent for prompt, a text/template executed
// with a map from each input key to its state value. Absent keys render
// as empty.
func NewPrompt(prompt string, opts ...Option) (*transform.Node, error) {
	cfg := config{name: "PromptAgent", inputKeys: []string{transform.KeyQuery}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.parse == nil {
		cfg.parse = func(_ *transform.State, response string) (any, error) { return response, nil }
	}

	tmpl, err := template.New(cfg.name).Option("missingkey=zero").Parse(prompt)
	if err != nil {
		return nil, errors.Configuration(fmt.Sprintf("agent %s: prompt template: %v", cfg.name, err)).WithCause(err)
	}

	gen := rag.NewGeneration()
	nodeOpts := []transform.Option{
		transform.WithEmbedded(gen),
		transform.WithInputKeys(cfg.inputKeys...),
		transform.WithOutputKeys(append([]string{
			transform.KeyFinalPrompt, transform.KeyResponse, transform.KeyParsedResponse,
		}, cfg.outKeys...)...),
	}
	if cfg.generator != nil || len(cfg.listeners) > 0 {
		nodeOpts = append(nodeOpts, transform.WithShared(transform.NewSharedResource(cfg.generator, cfg.listeners...)))
	}
	nodeOpts = append(nodeOpts, cfg.nodeOpts...)

	a := &promptAgent{tmpl: tmpl, inputKeys: cfg.inputKeys, parse: cfg.parse, gen: gen}
	if cfg.blocking {
		return transform.New(cfg.name, transform.Func(a.Transform), nodeOpts...), nil
	}
	return transform.New(cfg.name, a, nodeOpts...), nil
}

type promptAgent struct {
	tmpl      *template.Template
	inputKeys []string
	parse     ParseFunc
	gen       *transform.Node
}

func (a *promptAgent) formPrompt(s *transform.State) error {
	data := make(map[string]any, len(a.inputKeys))
	for _, k := range a.inputKeys {
		if v, ok := s.Get(k); ok {
			data[k] = v
		} else {
			data[k] = ""
		}
	}
	var buf bytes.Buffer
	if err := a.tmpl.Execute(&buf, data); err != nil {
		return err
	}
	s.FinalPrompt = buf.String()
	return nil
}

func (a *promptAgent) finish(s *transform.State) (*transform.State, error) {
	out, err := a.parse(s, s.Response)
	if err != nil {
		return nil, err
	}
	if err := s.Set(transform.KeyParsedResponse, out); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *promptAgent) Transform(ctx context.Context, s *transform.State) (*transform.State, error) {
	if err := a.formPrompt(s); err != nil {
		return nil, err
	}
	out, err := a.gen.Run(ctx, s)
	if err != nil {
		return nil, err
	}
	return a.finish(out)
}

// StreamTransform streams the generation's partial states, then yields the
// state once more with the parsed response.
func (a *promptAgent) StreamTransform(ctx context.Context, s *transform.State) transform.Stream {
	if err := a.formPrompt(s); err != nil {
		return transform.Fail(err)
	}
	inner := a.gen.RunStream(s)
	last := s
	var finished bool
	return transform.NewStream(func(ctx context.Context) (*transform.State, bool, error) {
		if finished {
			return nil, false, nil
		}
		out, ok, err := inner.Next(ctx)
		if err != nil {
			return nil, false, err
		}
		if ok {
			last = out
			return out, true, nil
		}
		finished = true
		final, err := a.finish(last)
		if err != nil {
			return nil, false, err
		}
		return final, true, nil
	}, inner.Close)
}
