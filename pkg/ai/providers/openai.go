package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"ganaterm/pkg/ai"
	"ganaterm/pkg/stream"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const compatibleDefaultTimeout = 60

// compatibleSpec describes a vendor that speaks the OpenAI chat completions
// protocol.
type compatibleSpec struct {
	Type         ai.ProviderType
	Name         string
	Description  string
	Selector     string
	DefaultURL   string
	DefaultModel string
}

var compatibleProviders = []compatibleSpec{
	{
		Type:         ai.ProviderOpenAI,
		Name:         "OpenAI",
		Description:  "OpenAI chat completions API",
		Selector:     "g",
		DefaultURL:   "https://api.openai.com/v1",
		DefaultModel: "gpt-4o",
	},
	{
		Type:         ai.ProviderDeepSeek,
		Name:         "DeepSeek",
		Description:  "DeepSeek OpenAI-compatible API",
		Selector:     "d",
		DefaultURL:   "https://api.deepseek.com/v1",
		DefaultModel: "deepseek-chat",
	},
	{
		Type:         ai.ProviderXAI,
		Name:         "xAI",
		Description:  "xAI Grok OpenAI-compatible API",
		Selector:     "x",
		DefaultURL:   "https://api.x.ai/v1",
		DefaultModel: "grok-3",
	},
}

func init() {
	for _, spec := range compatibleProviders {
		ai.RegisterProvider(ai.ProviderInfo{
			Type:        spec.Type,
			Name:        spec.Name,
			Description: spec.Description,
			Selector:    spec.Selector,
		}, func(cfg ai.ProviderConfig) (ai.Provider, error) {
			return newCompatibleProvider(spec, cfg)
		})
	}
}

// OpenAIProvider streams chat completions from any OpenAI-compatible endpoint.
type OpenAIProvider struct {
	name               ai.ProviderType
	client             openai.Client
	defaultModel       string
	defaultTemperature float64
	defaultMaxTokens   int
}

func newCompatibleProvider(spec compatibleSpec, cfg ai.ProviderConfig) (*OpenAIProvider, error) {
	providerCfg := cfg.Settings()

	apiKey := strings.TrimSpace(providerCfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%s api_key is required", spec.Type)
	}

	apiURL := strings.TrimSpace(providerCfg.APIURL)
	if apiURL == "" {
		apiURL = spec.DefaultURL
	}

	model := strings.TrimSpace(providerCfg.Model)
	if model == "" {
		model = spec.DefaultModel
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(apiURL),
		option.WithHTTPClient(httpClientFor(cfg, providerCfg.APITimeoutSeconds, compatibleDefaultTimeout)),
		// The orchestrator moves on to the next provider instead of retrying.
		option.WithMaxRetries(0),
	)

	slog.Debug("compatible_provider_ready",
		"provider", spec.Type,
		"api_url", apiURL,
		"model", model,
	)
	return &OpenAIProvider{
		name:               spec.Type,
		client:             client,
		defaultModel:       model,
		defaultTemperature: providerCfg.Temperature,
		defaultMaxTokens:   providerCfg.MaxTokens,
	}, nil
}

// CreateChatCompletionStream posts a streaming chat completion request and
// decodes the event stream tolerantly: frames that fail to parse are skipped.
func (p *OpenAIProvider) CreateChatCompletionStream(ctx context.Context, req ai.ChatRequest) (ai.ChatStream, error) {
	params, err := p.buildChatParams(req)
	if err != nil {
		return nil, err
	}

	var raw *http.Response
	err = p.client.Post(ctx, "chat/completions", params, &raw, option.WithJSONSet("stream", true))
	if err != nil {
		return nil, fmt.Errorf("%s chat completion: %w", p.name, err)
	}

	return stream.NewEventStream(raw), nil
}

func (p *OpenAIProvider) buildChatParams(req ai.ChatRequest) (openai.ChatCompletionNewParams, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.defaultModel
	}
	if model == "" {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("messages are required")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		param, err := toChatMessageParam(msg)
		if err != nil {
			return openai.ChatCompletionNewParams{}, err
		}
		messages = append(messages, param)
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}

	temperature := p.defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	if temperature > 0 {
		params.Temperature = openai.Float(temperature)
	}

	maxTokens := p.defaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	return params, nil
}

func toChatMessageParam(msg ai.Message) (openai.ChatCompletionMessageParamUnion, error) {
	switch strings.ToLower(strings.TrimSpace(msg.Role)) {
	case ai.RoleSystem:
		return openai.SystemMessage(msg.Content), nil
	case ai.RoleUser:
		return openai.UserMessage(msg.Content), nil
	case ai.RoleAssistant:
		return openai.AssistantMessage(msg.Content), nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unsupported role: %s", msg.Role)
	}
}

// Ensure interface compliance
var _ ai.Provider = (*OpenAIProvider)(nil)
