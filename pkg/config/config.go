// Package config loads application configuration from a YAML file in the
// user's config directory, a local .env file, and environment variables.
// Environment variables take precedence over file configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	GoogleAPIKey    string
	AnthropicAPIKey string
	OpenAIAPIKey    string

	TranscribeAPIKey  string
	TranscribeBaseURL string
	WebhookSecret     string
	PublicBaseURL     string
	ListenAddr        string

	Thresholds Thresholds
	ConfigDir  string
}

// Thresholds are the confidence cutoffs used by the workflows.
type Thresholds struct {
	Chain float64 `yaml:"chain"`
	Route float64 `yaml:"route"`
	Guard float64 `yaml:"guard"`
}

// FileConfig represents the structure of ~/.promptchain/config.yaml.
type FileConfig struct {
	APIKeys    APIKeysConfig    `yaml:"api_keys"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Thresholds *Thresholds      `yaml:"thresholds"`
	ListenAddr string           `yaml:"listen_addr"`
}

// APIKeysConfig holds API key configuration from file.
type APIKeysConfig struct {
	Google    string `yaml:"google"`
	Anthropic string `yaml:"anthropic"`
	OpenAI    string `yaml:"openai"`
}

// TranscribeConfig holds speech-to-text gateway settings from file.
type TranscribeConfig struct {
	APIKey        string `yaml:"api_key"`
	BaseURL       string `yaml:"base_url"`
	WebhookSecret string `yaml:"webhook_secret"`
	PublicBaseURL string `yaml:"public_base_url"`
}

// DefaultThresholds are used when neither file nor flags override them.
func DefaultThresholds() Thresholds {
	return Thresholds{Chain: 0.6, Route: 0.7, Guard: 0.7}
}

// Load reads configuration from the config file, .env, and environment
// variables.
func Load() (*Config, error) {
	// Best effort; a missing .env is not an error.
	_ = godotenv.Load()

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	return build(loadFileConfig(filepath.Join(configDir, "config.yaml")), configDir), nil
}

// LoadFromFile is like Load but reads the named config file instead of the
// one in the user's config directory. The file must exist.
func LoadFromFile(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	fileConfig := &FileConfig{}
	if err := yaml.Unmarshal(data, fileConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return build(fileConfig, filepath.Dir(path)), nil
}

func build(fileConfig *FileConfig, configDir string) *Config {
	thresholds := DefaultThresholds()
	if fileConfig.Thresholds != nil {
		thresholds = *fileConfig.Thresholds
	}

	cfg := &Config{
		GoogleAPIKey:      getEnvOrDefault("GOOGLE_API_KEY", fileConfig.APIKeys.Google),
		AnthropicAPIKey:   getEnvOrDefault("ANTHROPIC_API_KEY", fileConfig.APIKeys.Anthropic),
		OpenAIAPIKey:      getEnvOrDefault("OPENAI_API_KEY", fileConfig.APIKeys.OpenAI),
		TranscribeAPIKey:  getEnvOrDefault("TRANSCRIBE_API_KEY", fileConfig.Transcribe.APIKey),
		TranscribeBaseURL: getEnvOrDefault("TRANSCRIBE_BASE_URL", fileConfig.Transcribe.BaseURL),
		WebhookSecret:     getEnvOrDefault("WEBHOOK_SECRET", fileConfig.Transcribe.WebhookSecret),
		PublicBaseURL:     getEnvOrDefault("PUBLIC_BASE_URL", fileConfig.Transcribe.PublicBaseURL),
		ListenAddr:        getEnvOrDefault("LISTEN_ADDR", fileConfig.ListenAddr),
		Thresholds:        thresholds,
		ConfigDir:         configDir,
	}

	if cfg.TranscribeBaseURL == "" {
		cfg.TranscribeBaseURL = "https://api.assemblyai.com"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}

	return cfg
}

// HasAdapter returns true if the API key for the given adapter is configured.
func (c *Config) HasAdapter(name string) bool {
	switch name {
	case "google":
		return c.GoogleAPIKey != ""
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "openai":
		return c.OpenAIAPIKey != ""
	default:
		return false
	}
}

// loadFileConfig reads the config file, returning empty config if not found.
func loadFileConfig(path string) *FileConfig {
	cfg := &FileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	_ = yaml.Unmarshal(data, cfg)
	return cfg
}

func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".promptchain")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
