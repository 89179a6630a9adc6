package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type WorkerConfig struct {
	Stream        string `env:"VOICE_JOB_STREAM, default=voice_jobs"`
	Group         string `env:"VOICE_JOB_GROUP, default=voice_workers"`
	RetentionCron string `env:"RETENTION_CRON, default=0 3 * * *"`
	RetentionDays int    `env:"RETENTION_DAYS, default=90"`
}

func NewWorkerConfigFromEnv() (*WorkerConfig, error) {
	var cfg WorkerConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	if cfg.RetentionDays < 1 {
		return nil, fmt.Errorf("RETENTION_DAYS must be at least 1")
	}
	return &cfg, nil
}
