package transform

import (
	"fmt"
	"sync"

	"github.com/kbukum/srag/errors"
	"github.com/kbukum/srag/llm"
	"github.com/kbukum/srag/schema"
)

// State keys.
const (
	KeyQuery            = "query"
	KeyDocIDs           = "doc_ids"
	KeyRewrittenQueries = "rewritten_queries"
	KeyHistory          = "history"
	KeyChunks           = "chunks"
	KeyContext          = "context"
	KeyFinalPrompt      = "final_prompt"
	KeyResponse         = "response"
	KeyCost             = "cost"
	KeyRunID            = "run_id"
	KeyParsedResponse   = "parsed_response"
)

// State is the record threaded through a pipeline run. The fixed fields
// cover the retrieval-augmented vocabulary; anything else lives in a
// scratch map reachable through Get and Set.
//
// A fixed field holding its zero value is reported as absent.
type State struct {
	mu sync.RWMutex

	Query            string
	DocIDs           []string
	RewrittenQueries []string
	History          []llm.Message
	Chunks           []schema.Chunk
	Context          string
	FinalPrompt      string
	Response         string
	Cost             *llm.Cost
	RunID            string

	scratch map[string]any
}

// NewState returns an empty state.
func NewState() *State {
	return &State{}
}

// Get returns the value stored under key. Unknown and unset keys report
// (nil, false).
func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(key)
}

func (s *State) get(key string) (any, bool) {
	switch key {
	case KeyQuery:
		return s.Query, s.Query != ""
	case KeyDocIDs:
		return s.DocIDs, len(s.DocIDs) > 0
	case KeyRewrittenQueries:
		return s.RewrittenQueries, len(s.RewrittenQueries) > 0
	case KeyHistory:
		return s.History, len(s.History) > 0
	case KeyChunks:
		return s.Chunks, len(s.Chunks) > 0
	case KeyContext:
		return s.Context, s.Context != ""
	case KeyFinalPrompt:
		return s.FinalPrompt, s.FinalPrompt != ""
	case KeyResponse:
		return s.Response, s.Response != ""
	case KeyCost:
		return s.Cost, s.Cost != nil
	case KeyRunID:
		return s.RunID, s.RunID != ""
	}
	v, ok := s.scratch[key]
	return v, ok
}

// Set stores value under key. Fixed keys require the field's type and a
// nil value clears them; any other key is kept in the scratch map.
func (s *State) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ok bool
	switch key {
	case KeyQuery:
		ok = assign(&s.Query, value)
	case KeyDocIDs:
		ok = assign(&s.DocIDs, value)
	case KeyRewrittenQueries:
		ok = assign(&s.RewrittenQueries, value)
	case KeyHistory:
		ok = assign(&s.History, value)
	case KeyChunks:
		ok = assign(&s.Chunks, value)
	case KeyContext:
		ok = assign(&s.Context, value)
	case KeyFinalPrompt:
		ok = assign(&s.FinalPrompt, value)
	case KeyResponse:
		ok = assign(&s.Response, value)
	case KeyCost:
		ok = assign(&s.Cost, value)
	case KeyRunID:
		ok = assign(&s.RunID, value)
	default:
		if s.scratch == nil {
			s.scratch = make(map[string]any)
		}
		s.scratch[key] = value
		return nil
	}
	if !ok {
		return errors.InvalidInput(key, fmt.Sprintf("cannot store %T under %q", value, key))
	}
	return nil
}

// assign stores v into dst when v is a T. A nil v stores the zero value.
func assign[T any](dst *T, v any) bool {
	if v == nil {
		var zero T
		*dst = zero
		return true
	}
	t, ok := v.(T)
	if ok {
		*dst = t
	}
	return ok
}

// Value returns the value stored under key, or nil.
func (s *State) Value(key string) any {
	v, _ := s.Get(key)
	return v
}

// Project returns the single field a caller asked for, or nil when absent.
func (s *State) Project(key string) any {
	v, ok := s.Get(key)
	if !ok {
		return nil
	}
	return v
}

// Slice returns the requested keys. Absent keys map to nil.
func (s *State) Slice(keys ...string) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		v, ok := s.get(k)
		if !ok {
			v = nil
		}
		out[k] = v
	}
	return out
}

// Snapshot returns every present key and its value.
func (s *State) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any)
	for _, k := range []string{
		KeyQuery, KeyDocIDs, KeyRewrittenQueries, KeyHistory, KeyChunks,
		KeyContext, KeyFinalPrompt, KeyResponse, KeyCost, KeyRunID,
	} {
		if v, ok := s.get(k); ok {
			out[k] = v
		}
	}
	for k, v := range s.scratch {
		out[k] = v
	}
	return out
}

// Lookup returns the value under key when it is present and of type T.
func Lookup[T any](s *State, key string) (T, bool) {
	var zero T
	v, ok := s.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
