package llm

import (
	"context"

	"github.com/kbukum/srag/provider"
)

// Provider is the interface that LLM backends implement: a single-shot
// Execute and a chunked Stream over the same request.
type Provider interface {
	provider.Streamable[CompletionRequest, CompletionResponse, StreamChunk]
}

// Wrap applies middlewares to p's Execute path. Stream is delegated to p
// unchanged.
func Wrap(p Provider, middlewares ...provider.Middleware[CompletionRequest, CompletionResponse]) Provider {
	if len(middlewares) == 0 {
		return p
	}
	return &wrapped{
		RequestResponse: provider.Chain(middlewares...)(p),
		stream:          p,
	}
}

type wrapped struct {
	provider.RequestResponse[CompletionRequest, CompletionResponse]
	stream Provider
}

func (w *wrapped) Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	return w.stream.Stream(ctx, req)
}
