package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

// GroqConfig configures the LLM explanation client. The API is
// OpenAI-compatible, so only the key, model, and base URL vary.
type GroqConfig struct {
	APIKey  string `env:"GROQ_API_KEY"`
	Model   string `env:"GROQ_MODEL, default=llama3-8b-8192"`
	BaseURL string `env:"GROQ_BASE_URL, default=https://api.groq.com/openai/v1"`
}

func NewGroqConfigFromEnv() (*GroqConfig, error) {
	var cfg GroqConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Enabled reports whether an API key was provided. Without one the
// service falls back to a fixed explanation message.
func (c *GroqConfig) Enabled() bool {
	return c.APIKey != ""
}
