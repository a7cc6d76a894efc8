package ai

import (
	"context"
	"strings"
	"testing"

	"ganaterm/pkg/config"
)

type nopProvider struct{}

func (nopProvider) CreateChatCompletionStream(ctx context.Context, req ChatRequest) (ChatStream, error) {
	return nil, nil
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	info := ProviderInfo{
		Type:        "test-provider",
		Name:        "Test Provider",
		Description: "A test provider",
	}

	r.Register(info, func(cfg ProviderConfig) (Provider, error) {
		return nopProvider{}, nil
	})

	if !r.IsRegistered("test-provider") {
		t.Fatal("expected provider to be registered")
	}

	gotInfo, ok := r.GetProviderInfo("test-provider")
	if !ok {
		t.Fatal("expected to find provider info")
	}
	if gotInfo.Name != "Test Provider" {
		t.Fatalf("expected name 'Test Provider', got %q", gotInfo.Name)
	}

	p, err := r.GetProvider(ProviderConfig{Type: "test-provider"})
	if err != nil || p == nil {
		t.Fatalf("GetProvider() = %v, %v", p, err)
	}
}

func TestRegistry_GetProvider_UnknownType(t *testing.T) {
	r := NewRegistry()

	_, err := r.GetProvider(ProviderConfig{Type: "unknown"})
	if err == nil {
		t.Fatal("expected error for unknown provider type")
	}
}

func TestRegistry_ListProvidersSorted(t *testing.T) {
	r := NewRegistry()

	r.Register(ProviderInfo{Type: "zeta"}, func(cfg ProviderConfig) (Provider, error) { return nil, nil })
	r.Register(ProviderInfo{Type: "alpha"}, func(cfg ProviderConfig) (Provider, error) { return nil, nil })

	providers := r.ListProviders()
	if len(providers) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(providers))
	}
	if providers[0].Type != "alpha" {
		t.Fatalf("expected sorted list, got %v", providers)
	}
}

func TestValidateProviderType(t *testing.T) {
	tests := []struct {
		input    string
		wantType ProviderType
		wantOK   bool
	}{
		{"openai", ProviderOpenAI, true},
		{"deepseek", ProviderDeepSeek, true},
		{"xai", ProviderXAI, true},
		{"anthropic", ProviderAnthropic, true},
		{"google", ProviderGoogle, true},
		{"invalid", "", false},
		{"", "", false},
		{"OPENAI", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			gotType, gotOK := ValidateProviderType(tt.input)
			if gotType != tt.wantType {
				t.Errorf("ValidateProviderType(%q) type = %q, want %q", tt.input, gotType, tt.wantType)
			}
			if gotOK != tt.wantOK {
				t.Errorf("ValidateProviderType(%q) ok = %v, want %v", tt.input, gotOK, tt.wantOK)
			}
		})
	}
}

func TestParseSelector(t *testing.T) {
	tests := []struct {
		input  string
		want   ProviderType
		wantOK bool
	}{
		{"g", ProviderOpenAI, true},
		{"d", ProviderDeepSeek, true},
		{"x", ProviderXAI, true},
		{"a", ProviderAnthropic, true},
		{"m", ProviderGoogle, true},
		{"D", ProviderDeepSeek, true},
		{"deepseek", ProviderDeepSeek, true},
		{"q", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseSelector(tt.input)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseSelector(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSelectorHelp(t *testing.T) {
	help := SelectorHelp()
	for _, want := range []string{"g (openai)", "d (deepseek)", "x (xai)", "a (anthropic)", "m (google)"} {
		if !strings.Contains(help, want) {
			t.Errorf("SelectorHelp() = %q, missing %q", help, want)
		}
	}
}

func TestProviderConfig_Settings(t *testing.T) {
	cfg := config.Default()
	cfg.Providers.XAI.APIKey = "xai-key"

	pc := ProviderConfig{Type: ProviderXAI, Config: cfg}
	if pc.Settings().APIKey != "xai-key" {
		t.Fatalf("expected xai settings, got %+v", pc.Settings())
	}
}
