package config

import (
	"github.com/kbukum/srag/logger"
	"github.com/kbukum/srag/validation"
)

// ServiceConfig holds the fields every srag binary needs. App embeds it.
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// GetServiceConfig returns the embedded ServiceConfig.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}

// ApplyDefaults fills unset fields. Development turns on debug.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "srag"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
}

// Validate checks the service fields.
func (c *ServiceConfig) Validate() error {
	v := validation.New()
	c.check(v)
	return v.Err()
}

func (c *ServiceConfig) check(v *validation.Validator) {
	v.Custom(c.Name != "", "name", "is required")
	v.Custom(c.Environment != "", "environment", "is required")
	v.OneOf("environment", c.Environment, "development", "staging", "production")
	v.Merge("logging", c.Logging.Validate())
}
