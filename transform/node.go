package transform

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/srag/errors"
)

// Node is one unit of a transform tree. It owns its children (run before
// its own logic) and any embedded nodes (initialized with the tree but
// only run by the node's logic).
type Node struct {
	mu     sync.RWMutex
	name   string
	shared *SharedResource

	logic      Logic
	members    []member
	parallel   bool
	inputKeys  []string
	outputKeys []string

	initMu      sync.Mutex
	initialized bool
	renamed     bool
}

type member struct {
	node *Node
	run  bool
}

// Option configures a Node.
type Option func(*Node)

// WithChildren appends children, run in order before the node's logic.
func WithChildren(children ...*Node) Option {
	return func(n *Node) {
		for _, c := range children {
			n.members = append(n.members, member{node: c, run: true})
		}
	}
}

// WithEmbedded registers nodes the logic calls itself. They share the
// node's resource and naming but are skipped by the child loop.
func WithEmbedded(nodes ...*Node) Option {
	return func(n *Node) {
		for _, c := range nodes {
			n.members = append(n.members, member{node: c})
		}
	}
}

// Parallel runs the children concurrently on the same state.
func Parallel() Option {
	return func(n *Node) { n.parallel = true }
}

// WithInputKeys declares the keys the node reads.
func WithInputKeys(keys ...string) Option {
	return func(n *Node) { n.inputKeys = keys }
}

// WithOutputKeys declares the keys the node writes.
func WithOutputKeys(keys ...string) Option {
	return func(n *Node) { n.outputKeys = keys }
}

// WithShared assigns a resource up front, so the node can run without a
// parent pipeline. A parent's resource replaces it only if the node is
// nested before its first successful initialization; after that the node
// keeps its resource and names.
func WithShared(res *SharedResource) Option {
	return func(n *Node) { n.shared = res }
}

// New returns a node named name. A nil logic is the identity.
func New(name string, logic Logic, opts ...Option) *Node {
	if logic == nil {
		logic = Identity
	}
	n := &Node{name: name, logic: logic}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NewBound returns a node whose logic is built from the node itself, so the
// logic can reach the node's shared resource and embedded nodes at run time.
func NewBound(name string, build func(n *Node) Logic, opts ...Option) *Node {
	n := New(name, nil, opts...)
	if logic := build(n); logic != nil {
		n.logic = logic
	}
	return n
}

// Generator returns the generation service of the node's resource, or nil
// before initialization.
func (n *Node) Generator() Generator {
	if res := n.Shared(); res != nil {
		return res.Generator
	}
	return nil
}

// Name returns the node's display name. After initialization it is the
// path from the root, joined with "::".
func (n *Node) Name() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.name
}

func (n *Node) setName(name string) {
	n.mu.Lock()
	n.name = name
	n.mu.Unlock()
}

// Shared returns the node's resource, or nil before initialization.
func (n *Node) Shared() *SharedResource {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.shared
}

// Logic returns the node's own logic.
func (n *Node) Logic() Logic { return n.logic }

// Children returns the nodes run by the child loop.
func (n *Node) Children() []*Node {
	var out []*Node
	for _, m := range n.members {
		if m.run {
			out = append(out, m.node)
		}
	}
	return out
}

// Embedded returns the nodes owned but not run by the child loop.
func (n *Node) Embedded() []*Node {
	var out []*Node
	for _, m := range n.members {
		if !m.run {
			out = append(out, m.node)
		}
	}
	return out
}

// IsParallel reports whether children run concurrently.
func (n *Node) IsParallel() bool { return n.parallel }

// InputKeys returns the declared input keys.
func (n *Node) InputKeys() []string { return n.inputKeys }

// OutputKeys returns the declared output keys.
func (n *Node) OutputKeys() []string { return n.outputKeys }

// Initialized reports whether Initialize has completed.
func (n *Node) Initialized() bool {
	n.initMu.Lock()
	defer n.initMu.Unlock()
	return n.initialized
}

// Initialize assigns the shared resource to n and every node it owns,
// renaming each owned node to "parent::child". res takes precedence over a
// resource given WithShared; with neither, Initialize fails with a
// configuration error. The first successful call fixes the resource and the
// names of the whole subtree: later calls do nothing, even from a parent
// with another resource. A failed attempt may be retried.
func (n *Node) Initialize(ctx context.Context, res *SharedResource) error {
	n.initMu.Lock()
	defer n.initMu.Unlock()
	if n.initialized {
		return nil
	}

	n.mu.Lock()
	if res == nil {
		res = n.shared
	}
	if res == nil {
		name := n.name
		n.mu.Unlock()
		return errors.Configuration(fmt.Sprintf("transform %s: no shared resource provided", name))
	}
	n.shared = res
	name := n.name
	n.mu.Unlock()

	if !n.renamed {
		for _, m := range n.members {
			m.node.setName(name + "::" + m.node.Name())
		}
		n.renamed = true
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, m := range n.members {
		g.Go(func() error {
			return m.node.Initialize(gctx, res)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	n.initialized = true
	return nil
}

// Run executes the node: initialize, announce entry, run the children, run
// the logic, announce exit. It returns the resulting state; on failure it
// returns a nil state and the error of the node where the failure began.
func (n *Node) Run(ctx context.Context, s *State) (*State, error) {
	if err := n.Initialize(ctx, nil); err != nil {
		return nil, err
	}
	dispatcher := n.Shared().Dispatcher

	if err := dispatcher.Broadcast(ctx, EventTransformEnter, n, s); err != nil {
		return nil, err
	}

	s, err := n.runChildren(ctx, s)
	if err != nil {
		return nil, err
	}

	out, err := n.logic.Transform(ctx, s)
	if err != nil {
		return nil, wrapLogicError(n, err, s)
	}
	if out == nil {
		out = s
	}

	if err := dispatcher.Broadcast(ctx, EventTransformExit, n, out); err != nil {
		return nil, err
	}
	return out, nil
}

// runChildren threads s through the children in order, or runs them all
// on s at once when the node is parallel.
func (n *Node) runChildren(ctx context.Context, s *State) (*State, error) {
	children := n.Children()
	if len(children) == 0 {
		return s, nil
	}

	if !n.parallel {
		for _, c := range children {
			out, err := c.Run(ctx, s)
			if err != nil {
				return nil, err
			}
			s = out
		}
		return s, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range children {
		g.Go(func() error {
			_, err := c.Run(gctx, s)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}

// RunStream returns a lazy stream over the states emitted while running
// the node. Sequential children stream their states in order, each child
// starting from the last state emitted before it. Parallel children run to
// completion and contribute one state. The node's own logic streams last.
// No work happens until the first Next.
func (n *Node) RunStream(s *State) Stream {
	return &nodeStream{node: n, state: s}
}

type streamPhase int

const (
	phaseStart streamPhase = iota
	phaseChildren
	phaseOwn
	phaseExit
	phaseDone
)

type nodeStream struct {
	node     *Node
	state    *State
	phase    streamPhase
	children []*Node
	next     int
	cur      Stream
	ownIn    *State
	err      error
}

func (st *nodeStream) Next(ctx context.Context) (*State, bool, error) {
	for {
		if st.err != nil {
			return nil, false, st.err
		}

		switch st.phase {
		case phaseStart:
			if err := st.start(ctx); err != nil {
				return st.fail(err)
			}
			if st.node.parallel && len(st.children) > 0 {
				out, err := st.node.runChildren(ctx, st.state)
				if err != nil {
					return st.fail(err)
				}
				st.state = out
				st.phase = phaseOwn
				return out, true, nil
			}
			st.phase = phaseChildren

		case phaseChildren:
			if st.cur == nil {
				if st.next >= len(st.children) {
					st.phase = phaseOwn
					continue
				}
				st.cur = st.children[st.next].RunStream(st.state)
				st.next++
			}
			s, ok, err := st.cur.Next(ctx)
			if err != nil {
				return st.fail(err)
			}
			if !ok {
				st.closeCurrent()
				continue
			}
			st.state = s
			return s, true, nil

		case phaseOwn:
			if st.cur == nil {
				st.ownIn = st.state
				st.cur = streamOf(st.node.logic, st.state)(ctx)
			}
			s, ok, err := st.cur.Next(ctx)
			if err != nil {
				return st.fail(wrapLogicError(st.node, err, st.ownIn))
			}
			if !ok {
				st.closeCurrent()
				st.phase = phaseExit
				continue
			}
			st.state = s
			return s, true, nil

		case phaseExit:
			st.phase = phaseDone
			if err := st.node.Shared().Dispatcher.Broadcast(ctx, EventTransformExit, st.node, st.state); err != nil {
				return st.fail(err)
			}

		case phaseDone:
			return nil, false, nil
		}
	}
}

func (st *nodeStream) start(ctx context.Context) error {
	if err := st.node.Initialize(ctx, nil); err != nil {
		return err
	}
	st.children = st.node.Children()
	return st.node.Shared().Dispatcher.Broadcast(ctx, EventTransformEnter, st.node, st.state)
}

func (st *nodeStream) fail(err error) (*State, bool, error) {
	st.closeCurrent()
	st.err = err
	st.phase = phaseDone
	return nil, false, err
}

func (st *nodeStream) closeCurrent() {
	if st.cur != nil {
		_ = st.cur.Close()
		st.cur = nil
	}
}

// Close stops the stream. The exit event is not announced for a node
// whose stream is closed before it is exhausted.
func (st *nodeStream) Close() error {
	var err error
	if st.cur != nil {
		err = st.cur.Close()
		st.cur = nil
	}
	st.phase = phaseDone
	return err
}
