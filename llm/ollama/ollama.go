// Package ollama implements llm.Provider against Ollama's /api/chat endpoint.
//
// Importing the package registers the "ollama" backend with llm.New.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/kbukum/srag/errors"
	"github.com/kbukum/srag/llm"
)

const (
	// ProviderName is the registered name for the Ollama provider.
	ProviderName = "ollama"

	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3"
	defaultTimeout     = 120 * time.Second
)

func init() {
	llm.RegisterFactory(ProviderName, func(cfg llm.Config) (llm.Provider, error) {
		return NewProvider(Config{
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		}), nil
	})
}

// Config holds configuration for the Ollama provider.
type Config struct {
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Provider implements llm.Provider using Ollama's HTTP API.
type Provider struct {
	cfg    Config
	client *http.Client
}

var _ llm.Provider = (*Provider)(nil)

// NewProvider creates a new Ollama LLM provider.
func NewProvider(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOllamaURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultOllamaModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks if the Ollama server is reachable.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/api/tags", http.NoBody)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Execute sends a completion request and returns the full response.
func (p *Provider) Execute(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	httpResp, err := p.post(ctx, p.buildChatRequest(req, false))
	if err != nil {
		return llm.CompletionResponse{}, err
	}
	defer httpResp.Body.Close() //nolint:errcheck // read-only body

	var resp chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return llm.CompletionResponse{}, apperrors.ExternalServiceError(ProviderName, fmt.Errorf("decode response: %w", err))
	}

	return llm.CompletionResponse{
		Content: resp.Message.Content,
		Model:   resp.Model,
		Usage:   resp.usage(),
	}, nil
}

// Stream sends a completion request and returns a channel of streamed chunks.
func (p *Provider) Stream(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	//nolint:bodyclose // closed by the reader goroutine
	httpResp, err := p.post(ctx, p.buildChatRequest(req, true))
	if err != nil {
		return nil, err
	}

	ch := make(chan llm.StreamChunk)
	go func() {
		defer close(ch)
		defer httpResp.Body.Close() //nolint:errcheck // read-only body

		scanner := bufio.NewScanner(httpResp.Body)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var resp chatResponse
			if err := json.Unmarshal(line, &resp); err != nil {
				send(ctx, ch, llm.StreamChunk{Err: apperrors.ExternalServiceError(ProviderName, fmt.Errorf("unmarshal chunk: %w", err))})
				return
			}

			chunk := llm.StreamChunk{Content: resp.Message.Content, Done: resp.Done}
			if resp.Done {
				chunk.Usage = resp.usage()
			}
			if !send(ctx, ch, chunk) || resp.Done {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			send(ctx, ch, llm.StreamChunk{Err: apperrors.ExternalServiceError(ProviderName, fmt.Errorf("read response: %w", err))})
		}
	}()

	return ch, nil
}

// send delivers c unless ctx is done first.
func send(ctx context.Context, ch chan<- llm.StreamChunk, c llm.StreamChunk) bool {
	select {
	case ch <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

// --- internal Ollama API types ---

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   any           `json:"format,omitempty"`
	Options  *chatOptions  `json:"options,omitempty"`
}

type chatResponse struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count,omitempty"`
	EvalCount       int         `json:"eval_count,omitempty"`
}

func (r chatResponse) usage() llm.Usage {
	return llm.Usage{
		PromptTokens:     r.PromptEvalCount,
		CompletionTokens: r.EvalCount,
		TotalTokens:      r.PromptEvalCount + r.EvalCount,
	}
}

func (p *Provider) buildChatRequest(req llm.CompletionRequest, stream bool) chatRequest {
	model := p.cfg.Model
	if req.Model != "" {
		model = req.Model
	}
	temp := p.cfg.Temperature
	if req.Temperature != 0 {
		temp = req.Temperature
	}
	maxTokens := p.cfg.MaxTokens
	if req.MaxTokens != 0 {
		maxTokens = req.MaxTokens
	}

	msgs := make([]chatMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, chatMessage{Role: llm.RoleSystem, Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, chatMessage{Role: m.Role, Content: m.Content})
	}

	out := chatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   stream,
		Format:   req.Format,
	}
	if temp != 0 || maxTokens != 0 {
		out.Options = &chatOptions{Temperature: temp, NumPredict: maxTokens}
	}
	return out
}

// post sends req to /api/chat and returns the response when the status is 200.
// Server-side failures are retryable; client-side ones are not.
func (p *Provider) post(ctx context.Context, req chatRequest) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.ServiceUnavailable(ProviderName).WithCause(err)
	}

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		_ = httpResp.Body.Close()
		cause := fmt.Errorf("unexpected status %d: %s", httpResp.StatusCode, string(respBody))
		if httpResp.StatusCode >= http.StatusInternalServerError {
			return nil, apperrors.ExternalServiceError(ProviderName, cause)
		}
		return nil, apperrors.InvalidInput("request", cause.Error()).WithCause(cause)
	}
	return httpResp, nil
}
