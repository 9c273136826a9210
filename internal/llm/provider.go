package llm

import "fmt"

type ProviderConfig struct {
	Provider  string // anthropic, openai, ollama
	APIKey    string
	AuthToken string // Anthropic OAuth token, sent as a bearer token
	Model     string
	BaseURL   string
}

// Configured reports whether enough settings are present to build a client.
func (c ProviderConfig) Configured() bool {
	switch c.Provider {
	case "ollama":
		return c.BaseURL != ""
	case "anthropic":
		return c.APIKey != "" || c.AuthToken != ""
	default:
		return c.APIKey != ""
	}
}

func NewClient(cfg ProviderConfig) (Client, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicClient(cfg.APIKey, cfg.AuthToken, cfg.Model), nil
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, ""), nil
	case "ollama":
		if cfg.Model == "" {
			cfg.Model = "llama3.1"
		}
		return NewOpenAIClient("ollama", cfg.Model, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
