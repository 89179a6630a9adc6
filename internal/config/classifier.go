package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

// ClassifierConfig points at the external emotion classifier service.
// An empty URL disables classification; callers fall back gracefully.
type ClassifierConfig struct {
	URL string `env:"CLASSIFIER_URL"`
}

func NewClassifierConfigFromEnv() (*ClassifierConfig, error) {
	var cfg ClassifierConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *ClassifierConfig) Enabled() bool {
	return c.URL != ""
}
