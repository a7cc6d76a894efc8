package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const appDirName = "ganaterm"

// Provider names accepted in fallback_order.
const (
	ProviderOpenAI    = "openai"
	ProviderDeepSeek  = "deepseek"
	ProviderXAI       = "xai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
)

// Config represents the application configuration
type Config struct {
	FallbackOrder  []string        `json:"fallback_order"`
	Providers      ProvidersConfig `json:"providers"`
	UseMarkdown    bool            `json:"use_markdown"`
	UseTypewriter  bool            `json:"use_typewriter"`
	TypingSpeedWPM int             `json:"typing_speed_wpm"`
	HistoryFile    string          `json:"history_file"`
	LogLevel       string          `json:"log_level"`
	LogFormat      string          `json:"log_format"`
	LogFile        string          `json:"log_file"`
}

// ProvidersConfig holds per-provider settings.
type ProvidersConfig struct {
	OpenAI    ProviderConfig `json:"openai"`
	DeepSeek  ProviderConfig `json:"deepseek"`
	XAI       ProviderConfig `json:"xai"`
	Anthropic ProviderConfig `json:"anthropic"`
	Google    ProviderConfig `json:"google"`
}

// ProviderConfig holds the API configuration of a single provider
type ProviderConfig struct {
	APIKey            string  `json:"api_key"`
	APIURL            string  `json:"api_url"`
	Model             string  `json:"model"`
	Temperature       float64 `json:"temperature"`
	MaxTokens         int     `json:"max_tokens"`
	APITimeoutSeconds int     `json:"api_timeout_seconds"`
}

// Default returns a configuration with default values
func Default() Config {
	return Config{
		FallbackOrder: []string{
			ProviderDeepSeek,
			ProviderXAI,
			ProviderOpenAI,
			ProviderAnthropic,
			ProviderGoogle,
		},
		Providers: ProvidersConfig{
			OpenAI: ProviderConfig{
				APIURL:            "https://api.openai.com/v1",
				Model:             "gpt-4o",
				APITimeoutSeconds: 60,
			},
			DeepSeek: ProviderConfig{
				APIURL:            "https://api.deepseek.com/v1",
				Model:             "deepseek-chat",
				APITimeoutSeconds: 60,
			},
			XAI: ProviderConfig{
				APIURL:            "https://api.x.ai/v1",
				Model:             "grok-3",
				APITimeoutSeconds: 60,
			},
			Anthropic: ProviderConfig{
				APIURL:            "https://api.anthropic.com/v1",
				Model:             "claude-3-5-sonnet-20241022",
				MaxTokens:         4096,
				APITimeoutSeconds: 60,
			},
			Google: ProviderConfig{
				Model:             "gemini-2.5-flash",
				APITimeoutSeconds: 60,
			},
		},
		UseMarkdown:    true,
		UseTypewriter:  true,
		TypingSpeedWPM: 256,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// Load loads configuration from the specified path.
// If the file doesn't exist, creates one with default values.
// The .env file next to the config and the process environment override
// file values.
func Load(configPath string) (Config, error) {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return Config{}, fmt.Errorf("failed to create config directory: %w", err)
	}

	var cfg Config
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		cfg = Default()
		if err := Save(configPath, cfg); err != nil {
			return Config{}, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		// Start from defaults so fields missing in older files keep sane values.
		cfg = Default()
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	loadDotEnv(filepath.Join(configDir, ".env"))
	cfg = applyEnvironmentOverrides(cfg)
	return cfg, nil
}

// loadDotEnv populates unset environment variables from path. Variables
// already present in the environment win.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		slog.Warn("dotenv_load_failed", "path", path, "error", err)
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config
func applyEnvironmentOverrides(cfg Config) Config {
	keys := []struct {
		env    []string
		target *ProviderConfig
	}{
		{[]string{"OPENAI_API_KEY"}, &cfg.Providers.OpenAI},
		{[]string{"DEEPSEEK_API_KEY"}, &cfg.Providers.DeepSeek},
		{[]string{"XAI_API_KEY"}, &cfg.Providers.XAI},
		{[]string{"ANTHROPIC_API_KEY"}, &cfg.Providers.Anthropic},
		{[]string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}, &cfg.Providers.Google},
	}
	for _, k := range keys {
		for _, name := range k.env {
			if v := strings.TrimSpace(os.Getenv(name)); v != "" {
				k.target.APIKey = v
				break
			}
		}
	}

	if v := os.Getenv("USE_MARKDOWN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.UseMarkdown = b
		}
	}
	if v := os.Getenv("USE_TYPEWRITER"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.UseTypewriter = b
		}
	}

	if level := strings.ToLower(strings.TrimSpace(os.Getenv("GANATERM_LOG_LEVEL"))); level != "" {
		switch level {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = level
		}
	}

	return cfg
}

// Save saves the configuration to the specified path
func Save(configPath string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	for _, name := range c.FallbackOrder {
		if !IsKnownProvider(name) {
			return fmt.Errorf("unsupported provider in fallback_order: %s", name)
		}
	}

	for _, name := range KnownProviders() {
		pc, _ := c.Provider(name)
		if pc.Temperature < 0 || pc.Temperature > 2 {
			return fmt.Errorf("%s temperature must be between 0 and 2, got: %f", name, pc.Temperature)
		}
		if pc.MaxTokens < 0 {
			return fmt.Errorf("%s max_tokens must not be negative, got: %d", name, pc.MaxTokens)
		}
		if pc.APITimeoutSeconds < 0 {
			return fmt.Errorf("%s api_timeout_seconds must not be negative, got: %d", name, pc.APITimeoutSeconds)
		}
	}

	if c.TypingSpeedWPM <= 0 {
		return fmt.Errorf("typing_speed_wpm must be positive, got: %d", c.TypingSpeedWPM)
	}

	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unsupported log_level: %s", c.LogLevel)
	}

	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "", "json", "text":
	default:
		return fmt.Errorf("unsupported log_format: %s", c.LogFormat)
	}

	return nil
}

// KnownProviders lists every provider name the config understands.
func KnownProviders() []string {
	return []string{ProviderOpenAI, ProviderDeepSeek, ProviderXAI, ProviderAnthropic, ProviderGoogle}
}

// IsKnownProvider reports whether name is a supported provider.
func IsKnownProvider(name string) bool {
	for _, known := range KnownProviders() {
		if name == known {
			return true
		}
	}
	return false
}

// Provider returns the settings block for the named provider.
func (c Config) Provider(name string) (ProviderConfig, bool) {
	switch name {
	case ProviderOpenAI:
		return c.Providers.OpenAI, true
	case ProviderDeepSeek:
		return c.Providers.DeepSeek, true
	case ProviderXAI:
		return c.Providers.XAI, true
	case ProviderAnthropic:
		return c.Providers.Anthropic, true
	case ProviderGoogle:
		return c.Providers.Google, true
	}
	return ProviderConfig{}, false
}

// HasCredential reports whether the named provider has an API key.
func (c Config) HasCredential(name string) bool {
	pc, ok := c.Provider(name)
	return ok && strings.TrimSpace(pc.APIKey) != ""
}

// Dir returns the ganaterm configuration directory.
func Dir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(homeDir) == "" {
		return filepath.Join(".config", appDirName)
	}
	return filepath.Join(homeDir, ".config", appDirName)
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	return filepath.Join(Dir(), "config.json")
}

// HistoryPath returns the conversation history file, honouring history_file.
func (c Config) HistoryPath() string {
	if p := strings.TrimSpace(c.HistoryFile); p != "" {
		return p
	}
	return filepath.Join(Dir(), "history.jsonl")
}
