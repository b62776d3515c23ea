package llm

import (
	"fmt"
	"time"
)

// Config selects and configures the LLM backend.
type Config struct {
	// Provider must match a factory registered via RegisterFactory (e.g. "ollama").
	Provider    string        `yaml:"provider" mapstructure:"provider" validate:"required"`
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
	Model       string        `yaml:"model" mapstructure:"model" validate:"required"`
	Temperature float64       `yaml:"temperature" mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens" validate:"gte=0"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Pricing     Pricing       `yaml:"pricing" mapstructure:"pricing"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = "ollama"
	}
	if c.Model == "" {
		c.Model = "llama3"
	}
	if c.Timeout == 0 {
		c.Timeout = 120 * time.Second
	}
}

// Validate checks the fields a factory cannot default.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("llm.provider is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("llm.timeout must be positive (got: %s)", c.Timeout)
	}
	return nil
}
