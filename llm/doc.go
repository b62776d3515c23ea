// Package llm defines the universal chat-completion types used by srag and
// the Provider contract that LLM backends implement.
//
// # Architecture
//
// The llm package provides:
//   - Universal types: [CompletionRequest], [CompletionResponse], [StreamChunk], [Message], [Usage]
//   - Cost accounting: [Cost] accumulates [Usage] priced with [Pricing]
//   - [Provider]: a provider.Streamable over the universal types
//   - [Wrap]: applies provider middleware to Execute while keeping Stream
//   - JSON helpers for model output: [DecodeJSON], [ExtractJSON]
//
// Backends live in sub-packages (see llm/ollama):
//
//	import _ "github.com/kbukum/srag/llm/ollama"
//
//	p, err := llm.New(llm.Config{Provider: "ollama", Model: "llama3"})
package llm
