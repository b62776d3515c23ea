// Package config loads srag configuration.
//
// Values come from a YAML file, a .env file and the environment, in
// increasing order of precedence. Environment variables use the SRAG_
// prefix with underscores for nesting (SRAG_LLM_MODEL sets llm.model).
//
//	var cfg config.App
//	if err := config.LoadConfig("srag", &cfg, config.WithConfigFile(path)); err != nil {
//	    return err
//	}
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config
