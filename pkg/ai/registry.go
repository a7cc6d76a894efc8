package ai

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"ganaterm/pkg/config"
)

// ProviderType represents a supported LLM provider.
type ProviderType string

const (
	ProviderOpenAI    ProviderType = config.ProviderOpenAI
	ProviderDeepSeek  ProviderType = config.ProviderDeepSeek
	ProviderXAI       ProviderType = config.ProviderXAI
	ProviderAnthropic ProviderType = config.ProviderAnthropic
	ProviderGoogle    ProviderType = config.ProviderGoogle
)

// ProviderConfig holds configuration for creating a provider.
type ProviderConfig struct {
	Type   ProviderType
	Config config.Config
	// HTTPClient overrides the transport; nil builds one from the provider's
	// timeout with proxy settings taken from the environment.
	HTTPClient *http.Client
}

// Settings returns the provider's block of the application config.
func (c ProviderConfig) Settings() config.ProviderConfig {
	pc, _ := c.Config.Provider(string(c.Type))
	return pc
}

// ProviderFactory is a function that creates a Provider from config.
type ProviderFactory func(cfg ProviderConfig) (Provider, error)

// ProviderInfo describes a registered provider.
type ProviderInfo struct {
	Type        ProviderType
	Name        string
	Description string
	// Selector is the one-letter CLI shorthand.
	Selector string
}

// Registry manages provider factories and instantiation.
type Registry struct {
	mu        sync.RWMutex
	factories map[ProviderType]ProviderFactory
	info      map[ProviderType]ProviderInfo
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[ProviderType]ProviderFactory),
		info:      make(map[ProviderType]ProviderInfo),
	}
}

// Register adds a provider factory to the registry.
func (r *Registry) Register(info ProviderInfo, factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[info.Type] = factory
	r.info[info.Type] = info
}

// GetProvider creates a provider instance by type.
func (r *Registry) GetProvider(cfg ProviderConfig) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[cfg.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}

	return factory(cfg)
}

// ListProviders returns information about all registered providers, sorted
// by type.
func (r *Registry) ListProviders() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]ProviderInfo, 0, len(r.info))
	for _, info := range r.info {
		providers = append(providers, info)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i].Type < providers[j].Type })
	return providers
}

// GetProviderInfo returns information about a specific provider.
func (r *Registry) GetProviderInfo(providerType ProviderType) (ProviderInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.info[providerType]
	return info, ok
}

// IsRegistered checks if a provider type is registered.
func (r *Registry) IsRegistered(providerType ProviderType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[providerType]
	return ok
}

// DefaultRegistry is the global provider registry.
var DefaultRegistry = NewRegistry()

// RegisterProvider registers a provider with the default registry.
func RegisterProvider(info ProviderInfo, factory ProviderFactory) {
	DefaultRegistry.Register(info, factory)
}

// GetProvider creates a provider from the default registry.
func GetProvider(cfg ProviderConfig) (Provider, error) {
	return DefaultRegistry.GetProvider(cfg)
}

// ListProviders returns all providers from the default registry.
func ListProviders() []ProviderInfo {
	return DefaultRegistry.ListProviders()
}

// SupportedProviders returns a list of all supported provider types.
func SupportedProviders() []ProviderType {
	return []ProviderType{
		ProviderOpenAI,
		ProviderDeepSeek,
		ProviderXAI,
		ProviderAnthropic,
		ProviderGoogle,
	}
}

// ValidateProviderType checks if a provider type string is valid.
func ValidateProviderType(s string) (ProviderType, bool) {
	pt := ProviderType(s)
	for _, supported := range SupportedProviders() {
		if pt == supported {
			return pt, true
		}
	}
	return "", false
}

var selectors = map[string]ProviderType{
	"g": ProviderOpenAI,
	"d": ProviderDeepSeek,
	"x": ProviderXAI,
	"a": ProviderAnthropic,
	"m": ProviderGoogle,
}

// ParseSelector resolves a CLI provider selector: a one-letter shorthand
// (g, d, x, a, m) or a full provider name.
func ParseSelector(s string) (ProviderType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if pt, ok := selectors[s]; ok {
		return pt, true
	}
	return ValidateProviderType(s)
}

// SelectorHelp renders the selector table for usage messages.
func SelectorHelp() string {
	parts := make([]string, 0, len(selectors))
	for _, pt := range SupportedProviders() {
		for sel, target := range selectors {
			if target == pt {
				parts = append(parts, fmt.Sprintf("%s (%s)", sel, pt))
			}
		}
	}
	return strings.Join(parts, ", ")
}
