package agent

import (
	"strconv"
	"strings"

	"github.com/kbukum/srag/llm"
	"github.com/kbukum/srag/transform"
	"github.com/kbukum/srag/util"
)

// RewritePrompt asks the model for alternative phrasings of the query.
const RewritePrompt = `Rewrite the search query below into up to {{.count}} alternative queries that could retrieve relevant documents.
Respond with a JSON object of the form {"queries": ["..."]}.

Query: {{.query}}`

type rewriteResult struct {
	Queries []string `json:"queries"`
}

// NewRewrite returns an agent that fills rewritten_queries with up to
// count alternative phrasings of the query. The parsed response is the
// list of rewrites. The agent does not stream and clears response, so a
// later generation starts from an empty answer.
func NewRewrite(count int, opts ...Option) (*transform.Node, error) {
	if count <= 0 {
		count = 3
	}
	prompt := strings.ReplaceAll(RewritePrompt, "{{.count}}", strconv.Itoa(count))
	opts = append([]Option{
		WithName("RewriteAgent"),
		WithoutStreaming(),
		WithOutputKeys(transform.KeyRewrittenQueries),
		WithParser(func(s *transform.State, response string) (any, error) {
			var res rewriteResult
			if err := llm.DecodeJSON(response, &res); err != nil {
				return nil, err
			}
			queries := make([]string, 0, len(res.Queries))
			for _, q := range res.Queries {
				if q = strings.TrimSpace(q); q != "" && q != s.Query {
					queries = append(queries, q)
				}
			}
			queries = util.Unique(queries)
			if len(queries) > count {
				queries = queries[:count]
			}
			s.RewrittenQueries = queries
			s.Response = ""
			return queries, nil
		}),
	}, opts...)
	return NewPrompt(prompt, opts...)
}
