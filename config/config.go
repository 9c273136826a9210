package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/chris/greenclass/internal/llm"
	"github.com/chris/greenclass/internal/scheduler"
)

const defaultOllamaURL = "http://localhost:11434/v1"

type Config struct {
	DiscordToken      string
	DiscordWebhook    string
	BellCalendarPath  string
	BroadcastInterval time.Duration
	DatabasePath      string // empty keeps all state in memory
	RedisURL          string
	HTTPAddr          string

	LLMProvider    string // anthropic, openai, ollama
	AnthropicKey   string // API key (X-Api-Key header)
	AnthropicToken string // OAuth token (Authorization: Bearer header)
	OpenAIKey      string
	LLMModel       string
	OllamaBaseURL  string

	LogLevel  string
	LogFormat string
	LogFile   string
}

// ConfigDir is where the installed service keeps its settings.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".greenclass")
}

func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config")
}

// Load reads .env from the working directory, then ~/.greenclass/config.
// Variables already set in the environment win over both files.
func Load() (*Config, error) {
	_ = godotenv.Load()             // ignore error if no .env
	_ = godotenv.Load(ConfigFile()) // seeded by "greenclass install"

	cfg := &Config{
		DiscordToken:      os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordWebhook:    os.Getenv("DISCORD_WEBHOOK_URL"),
		BellCalendarPath:  os.Getenv("BELL_CALENDAR_PATH"),
		BroadcastInterval: envDuration("BROADCAST_INTERVAL", scheduler.DefaultInterval),
		DatabasePath:      os.Getenv("DATABASE_PATH"),
		RedisURL:          os.Getenv("REDIS_URL"),
		HTTPAddr:          os.Getenv("HTTP_ADDR"),

		LLMProvider:    envOr("LLM_PROVIDER", "anthropic"),
		AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicToken: os.Getenv("ANTHROPIC_AUTH_TOKEN"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		LLMModel:       os.Getenv("LLM_MODEL"),
		OllamaBaseURL:  os.Getenv("OLLAMA_BASE_URL"),

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "text"),
		LogFile:   os.Getenv("LOG_FILE"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.BroadcastInterval <= 0 {
		return errors.New("BROADCAST_INTERVAL must be positive")
	}
	return nil
}

// LLM returns the provider settings for the /ask agent.
func (c *Config) LLM() llm.ProviderConfig {
	apiKey := c.AnthropicKey
	if c.LLMProvider == "openai" {
		apiKey = c.OpenAIKey
	}
	baseURL := c.OllamaBaseURL
	if c.LLMProvider == "ollama" && baseURL == "" {
		baseURL = defaultOllamaURL
	}
	return llm.ProviderConfig{
		Provider:  c.LLMProvider,
		APIKey:    apiKey,
		AuthToken: c.AnthropicToken,
		Model:     c.LLMModel,
		BaseURL:   baseURL,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envDuration falls back when the variable is unset or unparsable.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
