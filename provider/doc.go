// Package provider defines the request/response contract shared by srag
// backends (LLM providers, caches, retrievers) and the middleware used to
// decorate them.
//
// # Middleware
//
// Middleware[I, O] wraps a RequestResponse provider. Use Chain to compose:
//
//	wrapped := provider.Chain(
//	    provider.WithLogging[llm.CompletionRequest, llm.CompletionResponse](log),
//	    provider.WithTracing[llm.CompletionRequest, llm.CompletionResponse]("srag"),
//	    provider.WithMetrics[llm.CompletionRequest, llm.CompletionResponse](metrics),
//	)(base)
//
// The first middleware is outermost.
package provider
