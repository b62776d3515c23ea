package transform

import (
	"context"

	"github.com/google/uuid"

	"github.com/kbukum/srag/llm"
	"github.com/kbukum/srag/schema"
)

// DefaultPipelineName is the root node name when none is given.
const DefaultPipelineName = "Pipeline"

// Pipeline is the root of a transform tree. It builds the shared resource,
// turns call arguments into a State, and projects the configured output key.
type Pipeline struct {
	*Node

	outputKey string
	lifecycle bool
}

type pipelineConfig struct {
	name       string
	transforms []*Node
	generator  Generator
	listeners  []Listener
	inputKeys  []string
	outputKey  string
	lifecycle  bool
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*pipelineConfig)

// WithName sets the root node name.
func WithName(name string) PipelineOption {
	return func(c *pipelineConfig) { c.name = name }
}

// WithTransforms appends nodes run in order by the root.
func WithTransforms(nodes ...*Node) PipelineOption {
	return func(c *pipelineConfig) { c.transforms = append(c.transforms, nodes...) }
}

// WithGenerator sets the generation service shared by the tree.
func WithGenerator(g Generator) PipelineOption {
	return func(c *pipelineConfig) { c.generator = g }
}

// WithListeners registers lifecycle listeners.
func WithListeners(listeners ...Listener) PipelineOption {
	return func(c *pipelineConfig) { c.listeners = append(c.listeners, listeners...) }
}

// WithInput declares the keys a caller is expected to provide.
func WithInput(keys ...string) PipelineOption {
	return func(c *pipelineConfig) { c.inputKeys = keys }
}

// WithOutput sets the key Call returns.
func WithOutput(key string) PipelineOption {
	return func(c *pipelineConfig) { c.outputKey = key }
}

// WithLifecycleEvents makes every call announce EventEnter before the tree
// runs and EventExit after it succeeds.
func WithLifecycleEvents() PipelineOption {
	return func(c *pipelineConfig) { c.lifecycle = true }
}

// NewPipeline builds a pipeline and its shared resource.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	cfg := pipelineConfig{
		name:      DefaultPipelineName,
		inputKeys: []string{KeyQuery, KeyHistory, KeyDocIDs},
		outputKey: KeyResponse,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	root := New(cfg.name, passThrough{},
		WithChildren(cfg.transforms...),
		WithInputKeys(cfg.inputKeys...),
		WithOutputKeys(cfg.outputKey),
		WithShared(NewSharedResource(cfg.generator, cfg.listeners...)),
	)
	return &Pipeline{
		Node:      root,
		outputKey: cfg.outputKey,
		lifecycle: cfg.lifecycle,
	}
}

// OutputKey returns the key Call projects.
func (p *Pipeline) OutputKey() string { return p.outputKey }

// Call runs the pipeline on a state built from fields and returns the value
// under the output key, or nil when the run left it unset.
func (p *Pipeline) Call(ctx context.Context, fields ...Field) (any, error) {
	s, err := p.CallState(ctx, fields...)
	if err != nil {
		return nil, err
	}
	return s.Project(p.outputKey), nil
}

// CallState runs the pipeline on a state built from fields and returns the
// full resulting state.
func (p *Pipeline) CallState(ctx context.Context, fields ...Field) (*State, error) {
	s, err := p.newState(fields)
	if err != nil {
		return nil, err
	}
	if err := p.Initialize(ctx, nil); err != nil {
		return nil, err
	}
	dispatcher := p.Shared().Dispatcher

	if p.lifecycle {
		if err := dispatcher.Broadcast(ctx, EventEnter, nil, nil); err != nil {
			return nil, err
		}
	}
	out, err := p.Run(ctx, s)
	if err != nil {
		return nil, err
	}
	if p.lifecycle {
		if err := dispatcher.Broadcast(ctx, EventExit, nil, nil); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Stream runs the pipeline lazily and yields the states emitted by its
// nodes. When no node emits anything the final state is yielded once.
func (p *Pipeline) Stream(fields ...Field) Stream {
	s, err := p.newState(fields)
	if err != nil {
		return Fail(err)
	}
	return &pipelineStream{p: p, state: s}
}

func (p *Pipeline) newState(fields []Field) (*State, error) {
	s := NewState()
	for _, f := range fields {
		if err := f(s); err != nil {
			return nil, err
		}
	}
	if s.RunID == "" {
		s.RunID = uuid.NewString()
	}
	return s, nil
}

type pipelineStream struct {
	p       *Pipeline
	state   *State
	inner   Stream
	emitted bool
	done    bool
}

func (st *pipelineStream) Next(ctx context.Context) (*State, bool, error) {
	if st.done {
		return nil, false, nil
	}
	if st.inner == nil {
		if err := st.p.Initialize(ctx, nil); err != nil {
			return st.fail(err)
		}
		if st.p.lifecycle {
			if err := st.p.Shared().Dispatcher.Broadcast(ctx, EventEnter, nil, nil); err != nil {
				return st.fail(err)
			}
		}
		st.inner = st.p.RunStream(st.state)
	}

	s, ok, err := st.inner.Next(ctx)
	if err != nil {
		return st.fail(err)
	}
	if ok {
		st.emitted = true
		st.state = s
		return s, true, nil
	}

	st.done = true
	if st.p.lifecycle {
		if err := st.p.Shared().Dispatcher.Broadcast(ctx, EventExit, nil, nil); err != nil {
			return nil, false, err
		}
	}
	if !st.emitted {
		return st.state, true, nil
	}
	return nil, false, nil
}

func (st *pipelineStream) fail(err error) (*State, bool, error) {
	st.done = true
	return nil, false, err
}

func (st *pipelineStream) Close() error {
	st.done = true
	if st.inner != nil {
		return st.inner.Close()
	}
	return nil
}

// passThrough is the root logic: it keeps the state and emits nothing of
// its own when streaming.
type passThrough struct{}

func (passThrough) Transform(_ context.Context, s *State) (*State, error) { return s, nil }
func (passThrough) StreamTransform(context.Context, *State) Stream       { return FromStates() }

// Field sets one value on the initial state of a call.
type Field func(*State) error

// Query sets the user query.
func Query(q string) Field {
	return func(s *State) error { s.Query = q; return nil }
}

// DocIDs restricts retrieval to the given documents.
func DocIDs(ids ...string) Field {
	return func(s *State) error { s.DocIDs = ids; return nil }
}

// History sets the prior conversation.
func History(msgs ...llm.Message) Field {
	return func(s *State) error { s.History = msgs; return nil }
}

// RewrittenQueries sets precomputed query rewrites.
func RewrittenQueries(qs ...string) Field {
	return func(s *State) error { s.RewrittenQueries = qs; return nil }
}

// Chunks seeds the state with already retrieved chunks.
func Chunks(chunks ...schema.Chunk) Field {
	return func(s *State) error { s.Chunks = chunks; return nil }
}

// RunID overrides the generated run identifier.
func RunID(id string) Field {
	return func(s *State) error { s.RunID = id; return nil }
}

// Scratch stores an arbitrary key.
func Scratch(key string, value any) Field {
	return func(s *State) error { return s.Set(key, value) }
}
