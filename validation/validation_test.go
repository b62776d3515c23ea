package validation

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/srag/errors"
)

type inner struct {
	TopK int `mapstructure:"top_k" validate:"gte=1"`
}

type sample struct {
	Provider  string  `mapstructure:"provider" validate:"required"`
	BaseURL   string  `mapstructure:"base_url" validate:"omitempty,url"`
	Backend   string  `mapstructure:"backend" validate:"oneof=none memory redis"`
	Retrieval inner   `mapstructure:"retrieval"`
	Rate      float64 `validate:"lte=1"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name   string
		in     sample
		fields []string
	}{
		{"valid", sample{Provider: "ollama", Backend: "memory", Retrieval: inner{TopK: 3}}, nil},
		{"missing provider", sample{Backend: "none", Retrieval: inner{TopK: 1}}, []string{"provider"}},
		{"bad url", sample{Provider: "p", BaseURL: "::", Backend: "none", Retrieval: inner{TopK: 1}}, []string{"base_url"}},
		{"nested and untagged", sample{Provider: "p", Backend: "disk", Rate: 2}, []string{"backend", "retrieval.top_k", "rate"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Struct(tc.in)
			if tc.fields == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
				t.Fatalf("expected validation error, got %v", err)
			}
			appErr, _ := errors.AsAppError(err)
			var got []string
			for _, f := range appErr.Details["fields"].([]FieldError) {
				got = append(got, f.Field)
			}
			if diff := cmp.Diff(tc.fields, got); diff != "" {
				t.Errorf("fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStructMessages(t *testing.T) {
	err := Struct(sample{Backend: "disk", Retrieval: inner{TopK: 1}})
	for _, want := range []string{"provider: is required", "backend: must be one of: none memory redis"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	}
}

func TestValidator(t *testing.T) {
	v := New().
		Min("retrieval.top_k", 0, 1).
		OneOf("cache.backend", "disk", "none", "memory", "redis").
		OneOf("logging.level", "", "info").
		Custom(false, "redis.enabled", "required by the redis cache backend").
		Custom(true, "never", "not recorded")

	want := []FieldError{
		{Field: "retrieval.top_k", Message: "must be at least 1"},
		{Field: "cache.backend", Message: "must be one of: none, memory, redis"},
		{Field: "redis.enabled", Message: "required by the redis cache backend"},
	}
	if diff := cmp.Diff(want, v.Errors()); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
	if !errors.HasCode(v.Err(), errors.ErrCodeInvalidInput) {
		t.Errorf("expected validation error, got %v", v.Err())
	}
}

func TestValidatorEmpty(t *testing.T) {
	v := New()
	if v.HasErrors() || v.Err() != nil {
		t.Fatal("expected no errors")
	}
}

func TestMerge(t *testing.T) {
	v := New()
	v.Merge("ignored", Struct(sample{Backend: "none", Retrieval: inner{TopK: 1}}))
	v.Merge("redis", stderrors.New("redis addr is required"))
	v.Merge("ok", nil)

	want := []FieldError{
		{Field: "provider", Message: "is required"},
		{Field: "redis", Message: "redis addr is required"},
	}
	if diff := cmp.Diff(want, v.Errors()); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}
