package agent

import (
	"github.com/kbukum/srag/transform"
)

// ChatPrompt is the ChatAgent template.
const ChatPrompt = `User question: {{.query}}
Your answer:`

// NewChat returns an agent answering the query directly. Its parsed
// response is an empty map.
func NewChat(opts ...Option) (*transform.Node, error) {
	opts = append([]Option{
		WithName("ChatAgent"),
		WithParser(func(*transform.State, string) (any, error) {
			return map[string]any{}, nil
		}),
	}, opts...)
	return NewPrompt(ChatPrompt, opts...)
}
