package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"github.com/fennwick/empath/internal/analyzer"
	"github.com/fennwick/empath/internal/auth"
	"github.com/fennwick/empath/internal/config"
	"github.com/fennwick/empath/internal/datalayer"
	"github.com/fennwick/empath/internal/generator"
	"github.com/fennwick/empath/internal/presenters"
	"github.com/fennwick/empath/internal/repository"
	"github.com/fennwick/empath/internal/worker"
)

var stdinReader = bufio.NewReader(os.Stdin)

var uuidGenerator = generator.UUIDV4Generator{}

func prompt(label string) string {
	fmt.Printf("%s: ", label)
	input, _ := stdinReader.ReadString('\n')
	return strings.TrimSpace(input)
}

func connectPostgres(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.NewPostgresConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load postgres config: %w", err)
	}
	return datalayer.NewPostgresPool(ctx, cfg.DSN())
}

func main() {
	if err := config.LoadEnv(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to load .env file: %v", err)
	}

	app := &cli.App{
		Name:        "empath-cli",
		Description: "A development CLI tool for working with Empath without the HTTP API",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Apply database migrations",
				Action: func(c *cli.Context) error {
					pool, err := connectPostgres(c.Context)
					if err != nil {
						return cli.Exit("Failed to connect to postgres: "+err.Error(), 1)
					}
					defer pool.Close()

					if err := datalayer.MigratePostgres(pool); err != nil {
						return cli.Exit("Failed to migrate postgres: "+err.Error(), 1)
					}

					log.Println("Migrations applied successfully.")
					return nil
				},
			},
			{
				Name:  "signup",
				Usage: "Create a user account",
				Action: func(c *cli.Context) error {
					username := prompt("Choose a username")
					password := prompt("Choose a password")

					hash, err := auth.HashPassword(password)
					if err != nil {
						return cli.Exit("Failed to hash password: "+err.Error(), 1)
					}

					id, err := uuidGenerator.Next()
					if err != nil {
						return cli.Exit("Failed to generate ID: "+err.Error(), 1)
					}

					pool, err := connectPostgres(c.Context)
					if err != nil {
						return cli.Exit("Failed to connect to postgres: "+err.Error(), 1)
					}
					defer pool.Close()

					users := repository.NewPostgresUserRepository(pool)
					user := repository.User{ID: id, Username: username, PasswordHash: hash}
					if err := users.Create(c.Context, user); err != nil {
						return cli.Exit("Failed to create user: "+err.Error(), 1)
					}

					log.Printf("User %s created.", username)
					return nil
				},
			},
			{
				Name:  "analyze",
				Usage: "Analyze a WAV clip locally and print the report",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Path to the WAV clip",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					data, err := os.ReadFile(c.String("file"))
					if err != nil {
						return cli.Exit("Failed to read file: "+err.Error(), 1)
					}

					report, err := analyzer.AnalyzeWAV(data)
					if err != nil {
						return cli.Exit("Failed to analyze clip: "+err.Error(), 1)
					}

					fmt.Print(presenters.FormatFeatureReport(report))
					return nil
				},
			},
			{
				Name:  "enqueue",
				Usage: "Archive a WAV clip and enqueue it for async analysis",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Path to the WAV clip",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "username",
						Usage:    "Owner of the resulting report",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					data, err := os.ReadFile(c.String("file"))
					if err != nil {
						return cli.Exit("Failed to read file: "+err.Error(), 1)
					}

					redisConfig, err := config.NewRedisConfigFromEnv()
					if err != nil {
						return cli.Exit("Failed to load redis config: "+err.Error(), 1)
					}
					workerConfig, err := config.NewWorkerConfigFromEnv()
					if err != nil {
						return cli.Exit("Failed to load worker config: "+err.Error(), 1)
					}

					rdb := redis.NewClient(&redis.Options{
						Addr:     redisConfig.Addr,
						Password: redisConfig.Password,
						DB:       redisConfig.DB,
					})
					if err := rdb.Ping(c.Context).Err(); err != nil {
						return cli.Exit("Failed to connect to redis: "+err.Error(), 1)
					}

					blobs, err := datalayer.NewMinioStorageFromEnv()
					if err != nil {
						return cli.Exit("Failed to create minio storage: "+err.Error(), 1)
					}
					if err := blobs.EnsureBucket(c.Context); err != nil {
						return cli.Exit("Failed to ensure minio bucket: "+err.Error(), 1)
					}

					id, err := uuidGenerator.Next()
					if err != nil {
						return cli.Exit("Failed to generate ID: "+err.Error(), 1)
					}

					key := "voice/" + id + ".wav"
					err = blobs.Put(c.Context, key, bytes.NewReader(data), datalayer.PutOptions{
						Size:        int64(len(data)),
						ContentType: "audio/wav",
					})
					if err != nil {
						return cli.Exit("Failed to archive clip: "+err.Error(), 1)
					}

					enqueuer := worker.NewRedisJobEnqueuer(rdb, workerConfig.Stream)
					job := worker.VoiceAnalysisJob{
						ID:          id,
						Username:    c.String("username"),
						ObjectKey:   key,
						RequestedAt: time.Now().UTC(),
					}
					if err := enqueuer.Enqueue(c.Context, job); err != nil {
						return cli.Exit("Failed to enqueue job: "+err.Error(), 1)
					}

					log.Printf("Job %s enqueued for %s.", id, c.String("username"))
					return nil
				},
			},
			{
				Name:  "scores",
				Usage: "Print a user's empathy score history",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Usage:    "User to list scores for",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					pool, err := connectPostgres(c.Context)
					if err != nil {
						return cli.Exit("Failed to connect to postgres: "+err.Error(), 1)
					}
					defer pool.Close()

					scores := repository.NewPostgresScoreRepository(pool)
					history, err := scores.ListByUsername(c.Context, c.String("username"))
					if err != nil {
						return cli.Exit("Failed to list scores: "+err.Error(), 1)
					}

					fmt.Print(presenters.FormatScoreHistory(history))
					return nil
				},
			},
			{
				Name:  "reports",
				Usage: "Print a user's voice report history",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Usage:    "User to list reports for",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					pool, err := connectPostgres(c.Context)
					if err != nil {
						return cli.Exit("Failed to connect to postgres: "+err.Error(), 1)
					}
					defer pool.Close()

					reports := repository.NewPostgresVoiceReportRepository(pool)
					history, err := reports.ListByUsername(c.Context, c.String("username"))
					if err != nil {
						return cli.Exit("Failed to list reports: "+err.Error(), 1)
					}

					fmt.Print(presenters.FormatVoiceReportHistory(history))
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Error running CLI: %v", err)
	}
}
