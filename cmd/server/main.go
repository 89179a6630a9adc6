package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/fennwick/empath/internal/auth"
	"github.com/fennwick/empath/internal/classify"
	"github.com/fennwick/empath/internal/config"
	"github.com/fennwick/empath/internal/datalayer"
	"github.com/fennwick/empath/internal/explain"
	"github.com/fennwick/empath/internal/generator"
	"github.com/fennwick/empath/internal/handler"
	"github.com/fennwick/empath/internal/repository"
	"github.com/fennwick/empath/internal/sentiment"
	"github.com/fennwick/empath/internal/worker"
)

func runServerForever() error {
	slog.SetLogLoggerLevel(slog.LevelDebug)

	if err := config.LoadEnv(); err != nil {
		if os.IsNotExist(err) {
			slog.Warn("No .env file found, continuing without it")
		} else {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	serverConfig, err := config.NewServerConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load server config: %w", err)
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

	api := &handler.API{
		Users:      repository.NewPostgresUserRepository(pool),
		Scores:     repository.NewPostgresScoreRepository(pool),
		Emails:     repository.NewPostgresEmailAnalysisRepository(pool),
		Reports:    repository.NewPostgresVoiceReportRepository(pool),
		Sessions:   auth.NewMemorySessionStore(),
		Scorer:     sentiment.NewLexiconScorer(),
		SessionTTL: serverConfig.SessionTTL,
		IDs:        &generator.UUIDV4Generator{},
		Tokens:     &generator.SecureTokenGenerator{},
	}

	if os.Getenv("REDIS_ADDR") != "" {
		redisConfig, err := config.NewRedisConfigFromEnv()
		if err != nil {
			return fmt.Errorf("failed to load redis config: %w", err)
		}
		workerConfig, err := config.NewWorkerConfigFromEnv()
		if err != nil {
			return fmt.Errorf("failed to load worker config: %w", err)
		}

		rdb := redis.NewClient(&redis.Options{
			Addr:     redisConfig.Addr,
			Password: redisConfig.Password,
			DB:       redisConfig.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}

		api.Sessions = auth.NewRedisSessionStore(rdb)
		api.Jobs = worker.NewRedisJobEnqueuer(rdb, workerConfig.Stream)
	} else {
		slog.Warn("REDIS_ADDR is not set, using in-memory sessions and no job queue")
	}

	if os.Getenv("MINIO_ENDPOINT") != "" {
		minioStorage, err := datalayer.NewMinioStorageFromEnv()
		if err != nil {
			return fmt.Errorf("failed to create minio storage: %w", err)
		}
		if err := minioStorage.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure minio bucket: %w", err)
		}
		api.Blobs = minioStorage
	} else {
		slog.Warn("MINIO_ENDPOINT is not set, voice clips will not be archived")
	}

	groqConfig, err := config.NewGroqConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load groq config: %w", err)
	}
	if groqConfig.Enabled() {
		api.Explainer = explain.NewGroqExplainer(groqConfig)
	} else {
		slog.Warn("GROQ_API_KEY is not set, emotion explanations will use the fallback")
	}

	classifierConfig, err := config.NewClassifierConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load classifier config: %w", err)
	}
	if classifierConfig.Enabled() {
		api.Classifier = classify.NewHTTPClassifier(classifierConfig.URL)
	} else {
		slog.Warn("CLASSIFIER_URL is not set, emotions will be extracted from explanations")
	}

	server := handler.NewServer(serverConfig.Addr, api)

	slog.Info("starting server", slog.String("addr", serverConfig.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

func main() {
	if err := runServerForever(); err != nil {
		slog.Error("Server encountered an error", slog.Any("error", err))
		os.Exit(1)
	}
}
