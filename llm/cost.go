package llm

// Pricing is the price of one thousand tokens for a model.
type Pricing struct {
	InputPer1K  float64 `yaml:"input_per_1k" mapstructure:"input_per_1k" validate:"gte=0"`
	OutputPer1K float64 `yaml:"output_per_1k" mapstructure:"output_per_1k" validate:"gte=0"`
}

// Cost accumulates token usage and spend across generation calls in one run.
type Cost struct {
	TotalTokens  int     `json:"total_tokens"`
	TotalCost    float64 `json:"total_cost"`
	InputTokens  int     `json:"input_tokens"`
	InputCost    float64 `json:"input_cost"`
	OutputTokens int     `json:"output_tokens"`
	OutputCost   float64 `json:"output_cost"`
}

// Add folds one call's usage into c.
func (c *Cost) Add(u Usage, p Pricing) {
	in := float64(u.PromptTokens) / 1000 * p.InputPer1K
	out := float64(u.CompletionTokens) / 1000 * p.OutputPer1K

	c.InputTokens += u.PromptTokens
	c.OutputTokens += u.CompletionTokens
	c.TotalTokens += u.PromptTokens + u.CompletionTokens
	c.InputCost += in
	c.OutputCost += out
	c.TotalCost += in + out
}
