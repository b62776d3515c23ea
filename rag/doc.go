// Package rag provides the transform nodes of a retrieval-augmented
// generation pipeline and a builder for the standard one:
//
//	retrieval -> text processing -> generation
//
// Generation talks to the pipeline's shared Generator; LLMGenerator adapts
// an llm.Provider to that interface and keeps the run's token cost on the
// state. Cached and Retry wrap any node with response caching and
// retry-on-transient-failure.
package rag
