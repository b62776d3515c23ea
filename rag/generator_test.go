package rag_test

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/srag/errors"
	"github.com/kbukum/srag/llm"
	"github.com/kbukum/srag/rag"
	"github.com/kbukum/srag/transform"
)

func TestGeneratorGenerate(t *testing.T) {
	fake := newFakeLLM("Hello", " world")
	gen := rag.NewGenerator(fake,
		rag.WithModel("m1"),
		rag.WithSystemPrompt("be brief"),
		rag.WithPricing(llm.Pricing{InputPer1K: 1, OutputPer1K: 2}),
	)

	s := transform.NewState()
	s.Query = "ignored when a prompt exists"
	s.FinalPrompt = "the prompt"
	s.History = []llm.Message{{Role: llm.RoleUser, Content: "before"}}

	out, err := gen.Generate(context.Background(), s)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out.Response != "Hello world" {
		t.Errorf("unexpected response %q", out.Response)
	}

	req := fake.LastRequest()
	wantMsgs := []llm.Message{{Role: llm.RoleUser, Content: "before"}, {Role: llm.RoleUser, Content: "the prompt"}}
	if diff := cmp.Diff(wantMsgs, req.Messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
	if req.Model != "m1" || req.SystemPrompt != "be brief" {
		t.Errorf("unexpected request %+v", req)
	}

	if out.Cost == nil || out.Cost.TotalTokens != 1500 || math.Abs(out.Cost.TotalCost-2.0) > 1e-9 {
		t.Errorf("unexpected cost %+v", out.Cost)
	}

	// A second call accumulates.
	if _, err := gen.Generate(context.Background(), out); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out.Cost.TotalTokens != 3000 {
		t.Errorf("expected accumulated tokens, got %d", out.Cost.TotalTokens)
	}
}

func TestGeneratorFallsBackToQuery(t *testing.T) {
	fake := newFakeLLM("ok")
	s := transform.NewState()
	s.Query = "just the query"
	if _, err := rag.NewGenerator(fake).Generate(context.Background(), s); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := fake.LastRequest().Messages[0].Content; got != "just the query" {
		t.Errorf("expected the query as prompt, got %q", got)
	}
}

func TestGeneratorEmptyPrompt(t *testing.T) {
	_, err := rag.NewGenerator(newFakeLLM("x")).Generate(context.Background(), transform.NewState())
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestGeneratorStream(t *testing.T) {
	fake := newFakeLLM("Hel", "lo")
	gen := rag.NewGenerator(fake, rag.WithPricing(llm.Pricing{InputPer1K: 1}))

	s := transform.NewState()
	s.Query = "hi"
	st, err := gen.GenerateStream(context.Background(), s)
	if err != nil {
		t.Fatalf("GenerateStream: %v", err)
	}

	var partials []string
	for {
		out, ok, err := st.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		partials = append(partials, out.Response)
	}
	_ = st.Close()

	if diff := cmp.Diff([]string{"Hel", "Hello", "Hello"}, partials); diff != "" {
		t.Errorf("partials mismatch (-want +got):\n%s", diff)
	}
	if s.Cost == nil || s.Cost.InputTokens != 1000 || math.Abs(s.Cost.TotalCost-1.0) > 1e-9 {
		t.Errorf("expected cost from the final chunk, got %+v", s.Cost)
	}
}

func TestGeneratorStreamCloseEarly(t *testing.T) {
	fake := newFakeLLM("a", "b", "c", "d")
	s := transform.NewState()
	s.Query = "hi"

	st, err := rag.NewGenerator(fake).GenerateStream(context.Background(), s)
	if err != nil {
		t.Fatalf("GenerateStream: %v", err)
	}
	if _, ok, err := st.Next(context.Background()); !ok || err != nil {
		t.Fatalf("Next = (%v, %v)", ok, err)
	}
	// Close must stop the provider goroutine; goleak verifies it.
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestGeneratorStreamProviderError(t *testing.T) {
	fake := newFakeLLM("x")
	fake.failures = []error{errors.ServiceUnavailable("fake")}
	s := transform.NewState()
	s.Query = "hi"
	if _, err := rag.NewGenerator(fake).GenerateStream(context.Background(), s); !errors.HasCode(err, errors.ErrCodeServiceUnavailable) {
		t.Fatalf("expected service unavailable, got %v", err)
	}
}
