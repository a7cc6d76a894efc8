package providers

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"ganaterm/pkg/ai"

	"google.golang.org/genai"
)

const (
	googleDefaultModel   = "gemini-2.5-flash"
	googleDefaultTimeout = 60
)

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderGoogle,
		Name:        "Google",
		Description: "Google Gemini API",
		Selector:    "m",
	}, NewGoogleProvider)
}

// geminiModels is the slice of genai.Models the provider streams through.
type geminiModels interface {
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

var newGenaiClient = func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error) {
	return genai.NewClient(ctx, cfg)
}

// GoogleProvider streams Gemini answers through the genai SDK.
type GoogleProvider struct {
	models      geminiModels
	model       string
	temperature float64
	maxTokens   int
}

// NewGoogleProvider builds a Gemini provider. The SDK shares the idle-bounded
// HTTP client used by the other providers.
func NewGoogleProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	settings := cfg.Settings()

	apiKey := strings.TrimSpace(settings.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("google api_key is required")
	}
	model := strings.TrimSpace(settings.Model)
	if model == "" {
		model = googleDefaultModel
	}

	client, err := newGenaiClient(context.Background(), &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClientFor(cfg, settings.APITimeoutSeconds, googleDefaultTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("create google client: %w", err)
	}

	slog.Debug("google_provider_ready", "model", model)
	return &GoogleProvider{
		models:      client.Models,
		model:       model,
		temperature: settings.Temperature,
		maxTokens:   settings.MaxTokens,
	}, nil
}

// CreateChatCompletionStream starts a Gemini stream. Nothing is sent until
// the first call to Next.
func (p *GoogleProvider) CreateChatCompletionStream(ctx context.Context, req ai.ChatRequest) (ai.ChatStream, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.model
	}
	contents, system := geminiContents(req.Messages)
	if len(contents) == 0 {
		return nil, fmt.Errorf("at least one user or assistant message is required")
	}
	seq := p.models.GenerateContentStream(ctx, model, contents, p.generationConfig(req, system))
	return newGeminiStream(seq), nil
}

// geminiContents splits messages into the conversation turns and the system
// instruction. Roles other than assistant are sent as the user.
func geminiContents(messages []ai.Message) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	var system []string
	for _, msg := range messages {
		switch strings.ToLower(strings.TrimSpace(msg.Role)) {
		case ai.RoleSystem:
			if text := strings.TrimSpace(msg.Content); text != "" {
				system = append(system, text)
			}
		case ai.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	if len(system) == 0 {
		return contents, nil
	}
	return contents, &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(strings.Join(system, "\n\n"))}}
}

func (p *GoogleProvider) generationConfig(req ai.ChatRequest, system *genai.Content) *genai.GenerateContentConfig {
	temperature := p.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := p.maxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       genai.Ptr(float32(temperature)),
		// Thought text would otherwise leak into parsed commands.
		ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(int32(0))},
	}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = int32(maxTokens)
	}
	return cfg
}

// geminiStream pulls responses from the SDK iterator on demand. Gemini may
// repeat the text so far in each chunk; only the new suffix is emitted.
type geminiStream struct {
	next    func() (*genai.GenerateContentResponse, error, bool)
	stop    func()
	seen    string
	current string
	err     error
	done    bool
	skipped int
}

func newGeminiStream(seq iter.Seq2[*genai.GenerateContentResponse, error]) *geminiStream {
	next, stop := iter.Pull2(seq)
	return &geminiStream{next: next, stop: stop}
}

func (s *geminiStream) Next() bool {
	for !s.done && s.err == nil {
		resp, err, ok := s.next()
		if !ok {
			s.done = true
			break
		}
		if err != nil {
			s.err = fmt.Errorf("gemini stream: %w", err)
			break
		}
		text := visibleText(resp)
		if text == "" {
			s.skipped++
			slog.Debug("gemini_chunk_skipped", "reason", "no_visible_text")
			continue
		}
		if delta := s.advance(text); delta != "" {
			s.current = delta
			return true
		}
	}
	return false
}

// advance records text and returns the part not yet emitted.
func (s *geminiStream) advance(text string) string {
	if strings.HasPrefix(text, s.seen) {
		delta := text[len(s.seen):]
		s.seen = text
		return delta
	}
	s.seen += text
	return text
}

func (s *geminiStream) Content() string { return s.current }

func (s *geminiStream) Err() error { return s.err }

// Skipped reports how many chunks carried no visible text.
func (s *geminiStream) Skipped() int { return s.skipped }

func (s *geminiStream) Close() error {
	s.done = true
	s.stop()
	if s.skipped > 0 {
		slog.Debug("gemini_stream_closed", "skipped_chunks", s.skipped)
	}
	return nil
}

func visibleText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

var (
	_ ai.Provider   = (*GoogleProvider)(nil)
	_ ai.ChatStream = (*geminiStream)(nil)
)
