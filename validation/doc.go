// Package validation checks configuration structs.
//
// Struct tags are checked with go-playground/validator and cross-field
// rules are collected with a Validator:
//
//	if err := validation.Struct(cfg); err != nil {
//	    return err
//	}
//	v := validation.New()
//	v.Custom(cfg.Cache.Backend != "redis" || cfg.Redis.Enabled, "cache.backend", "redis backend requires redis.enabled")
//	return v.Err()
//
// Both report an INVALID_INPUT AppError listing every failing field.
package validation
