package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"ganaterm/pkg/ai"

	"github.com/openai/openai-go/v3/packages/ssestream"
	"github.com/tidwall/gjson"
)

const (
	anthropicDefaultAPIURL  = "https://api.anthropic.com/v1"
	anthropicDefaultModel   = "claude-3-5-sonnet-20241022"
	anthropicDefaultTimeout = 60
	anthropicAPIVersion     = "2023-06-01"
)

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderAnthropic,
		Name:        "Anthropic",
		Description: "Anthropic Claude messages API",
		Selector:    "a",
	}, NewAnthropicProvider)
}

// AnthropicProvider streams from the Anthropic messages API, adapting
// content_block_delta events to text fragments.
type AnthropicProvider struct {
	apiKey             string
	apiURL             string
	httpClient         *http.Client
	defaultModel       string
	defaultTemperature float64
	defaultMaxTokens   int
}

// NewAnthropicProvider creates a new Anthropic provider from config.
func NewAnthropicProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	providerCfg := cfg.Settings()

	apiKey := strings.TrimSpace(providerCfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api_key is required")
	}

	apiURL := providerCfg.APIURL
	if apiURL == "" {
		apiURL = anthropicDefaultAPIURL
	}

	model := providerCfg.Model
	if model == "" {
		model = anthropicDefaultModel
	}

	slog.Debug("anthropic_provider_ready", "api_url", apiURL, "model", model)
	return &AnthropicProvider{
		apiKey:             apiKey,
		apiURL:             strings.TrimRight(apiURL, "/"),
		httpClient:         httpClientFor(cfg, providerCfg.APITimeoutSeconds, anthropicDefaultTimeout),
		defaultModel:       model,
		defaultTemperature: providerCfg.Temperature,
		defaultMaxTokens:   providerCfg.MaxTokens,
	}, nil
}

// anthropicRequest is the request body for Anthropic's messages API.
type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	System      string             `json:"system,omitempty"`
	Stream      bool               `json:"stream,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CreateChatCompletionStream sends a streaming chat completion request.
func (p *AnthropicProvider) CreateChatCompletionStream(ctx context.Context, req ai.ChatRequest) (ai.ChatStream, error) {
	anthropicReq, err := p.buildRequest(req)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(anthropicReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	p.setHeaders(httpReq)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return &anthropicStream{decoder: ssestream.NewDecoder(resp)}, nil
}

func (p *AnthropicProvider) buildRequest(req ai.ChatRequest) (*anthropicRequest, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.defaultModel
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("messages are required")
	}

	var systemPrompt string
	messages := make([]anthropicMessage, 0, len(req.Messages))

	for _, msg := range req.Messages {
		role := strings.ToLower(strings.TrimSpace(msg.Role))
		if role == ai.RoleSystem {
			systemPrompt = msg.Content
			continue
		}

		anthropicRole := role
		if anthropicRole != "user" && anthropicRole != "assistant" {
			anthropicRole = "user"
		}

		messages = append(messages, anthropicMessage{
			Role:    anthropicRole,
			Content: msg.Content,
		})
	}

	if len(messages) == 0 {
		return nil, fmt.Errorf("at least one user or assistant message is required")
	}

	temperature := p.defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	maxTokens := p.defaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &anthropicRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		System:      systemPrompt,
		Stream:      true,
	}, nil
}

func (p *AnthropicProvider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)
}

// anthropicStream adapts the messages event stream to ai.ChatStream. Only
// text deltas become fragments; other event kinds are bookkeeping.
type anthropicStream struct {
	decoder ssestream.Decoder
	current string
	err     error
	done    bool
}

func (s *anthropicStream) Next() bool {
	if s.done || s.err != nil {
		return false
	}

	for s.decoder.Next() {
		data := s.decoder.Event().Data
		if !gjson.ValidBytes(data) {
			slog.Debug("sse_frame_skipped", "provider", "anthropic", "reason", "invalid_json")
			continue
		}

		switch gjson.GetBytes(data, "type").String() {
		case "content_block_delta":
			if gjson.GetBytes(data, "delta.type").String() != "text_delta" {
				continue
			}
			if text := gjson.GetBytes(data, "delta.text").String(); text != "" {
				s.current = text
				return true
			}
		case "message_stop":
			s.done = true
			return false
		case "error":
			s.err = fmt.Errorf("anthropic stream error: %s", gjson.GetBytes(data, "error.message").String())
			return false
		}
	}

	s.err = s.decoder.Err()
	s.done = true
	return false
}

func (s *anthropicStream) Content() string {
	return s.current
}

func (s *anthropicStream) Err() error {
	return s.err
}

func (s *anthropicStream) Close() error {
	s.done = true
	return s.decoder.Close()
}

// Ensure interface compliance
var _ ai.Provider = (*AnthropicProvider)(nil)
