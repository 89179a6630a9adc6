package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fennwick/empath/internal/config"
	"github.com/fennwick/empath/internal/datalayer"
	"github.com/fennwick/empath/internal/generator"
	"github.com/fennwick/empath/internal/repository"
	"github.com/fennwick/empath/internal/schedule"
	"github.com/fennwick/empath/internal/worker"
)

var dryRun = flag.Bool("dry-run", false, "Print received jobs instead of processing them")

func runWorkerForever() error {
	slog.SetLogLoggerLevel(slog.LevelDebug)

	if err := config.LoadEnv(); err != nil {
		if os.IsNotExist(err) {
			slog.Warn("No .env file found, continuing without it")
		} else {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	redisConfig, err := config.NewRedisConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load redis config: %w", err)
	}

	workerConfig, err := config.NewWorkerConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load worker config: %w", err)
	}

	postgresConfig, err := config.NewPostgresConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load postgres config: %w", err)
	}

	ctx := context.Background()

	pool, err := datalayer.NewPostgresPool(ctx, postgresConfig.DSN())
	if err != nil {
		return fmt.Errorf("failed to create postgres pool: %w", err)
	}
	defer pool.Close()

	if err := datalayer.MigratePostgres(pool); err != nil {
		return fmt.Errorf("failed to migrate postgres: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisConfig.Addr,
		Password: redisConfig.Password,
		DB:       redisConfig.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	minioStorage, err := datalayer.NewMinioStorageFromEnv()
	if err != nil {
		return fmt.Errorf("failed to create minio storage: %w", err)
	}
	if err := minioStorage.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("failed to ensure minio bucket: %w", err)
	}

	consumer, err := os.Hostname()
	if err != nil {
		return fmt.Errorf("failed to get hostname: %w", err)
	}

	receiver, err := worker.NewRedisJobReceiver(rdb, workerConfig.Stream, workerConfig.Group, consumer)
	if err != nil {
		return fmt.Errorf("failed to create job receiver: %w", err)
	}

	reports := repository.NewPostgresVoiceReportRepository(pool)
	processor := worker.NewProcessor(minioStorage, reports, &generator.UUIDV4Generator{})

	retention := time.Duration(workerConfig.RetentionDays) * 24 * time.Hour
	sweeper, err := schedule.NewSweeper(
		"voice report retention",
		workerConfig.RetentionCron,
		worker.RetentionSweep(reports, minioStorage, retention),
	)
	if err != nil {
		return fmt.Errorf("failed to create retention sweeper: %w", err)
	}
	go func() {
		if err := sweeper.Run(ctx); err != nil {
			slog.Error("retention sweeper stopped", slog.Any("error", err))
		}
	}()

	handle := processor.Process
	if *dryRun {
		printer := &worker.PrintingJobEnqueuer{}
		handle = func(ctx context.Context, job worker.VoiceAnalysisJob) error {
			return printer.Enqueue(ctx, job)
		}
	}

	slog.Info(
		"worker started",
		slog.String("stream", workerConfig.Stream),
		slog.String("group", workerConfig.Group),
		slog.String("consumer", consumer),
	)

	for {
		if err := receiver.Receive(ctx, handle); err != nil {
			return fmt.Errorf("failed to receive jobs: %w", err)
		}
	}
}

func main() {
	flag.Parse()
	if err := runWorkerForever(); err != nil {
		slog.Error("Worker encountered an error", slog.Any("error", err))
		os.Exit(1)
	}
}
