package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type ServerConfig struct {
	Addr       string        `env:"HTTP_ADDR, default=:8080"`
	SessionTTL time.Duration `env:"SESSION_TTL, default=24h"`
}

func NewServerConfigFromEnv() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive")
	}
	return &cfg, nil
}
