package e2e

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/fennwick/empath/internal/auth"
	"github.com/fennwick/empath/internal/datalayer"
	"github.com/fennwick/empath/internal/repository"
)

var seedOnce sync.Once

// SeedGlobalNoise fills the shared database with background users and
// scores so the flow tests run against a populated system rather than
// a pristine one.
func SeedGlobalNoise(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	seedOnce.Do(func() {
		hash, err := auth.HashPassword("noise-password")
		if err != nil {
			t.Fatalf("failed to hash noise password: %v", err)
		}

		users := repository.NewPostgresUserRepository(pool)
		scores := repository.NewPostgresScoreRepository(pool)
		for i := range 25 {
			username := fmt.Sprintf("noise-user-%d", i)
			err := users.Create(t.Context(), repository.User{
				ID:           uuid.NewString(),
				Username:     username,
				PasswordHash: hash,
			})
			if err != nil {
				t.Fatalf("failed to seed user: %v", err)
			}

			err = scores.Save(t.Context(), username, repository.EmpathyScore{
				ID:    uuid.NewString(),
				Body:  fmt.Sprintf("noise message %d", i),
				Score: 2.5,
				Label: "Neutral",
			})
			if err != nil {
				t.Fatalf("failed to seed score: %v", err)
			}
		}
	})
}

var (
	once              sync.Once
	postgresContainer *postgres.PostgresContainer
	connStr           string
	startErr          error
	pool              *pgxpool.Pool
	wg                sync.WaitGroup
)

// UsePostgres signals that the test is using Postgres as its database.
// This will either provision or reuse a Postgres container for the test.
// Do not expect a clean state in the database; it is shared across tests
// to simulate real-world usage.
func UsePostgres(t *testing.T) string {
	t.Helper()

	once.Do(func() {
		ctx := context.Background()
		postgresContainer, startErr = postgres.Run(
			ctx,
			"postgres",
			postgres.WithDatabase("empath"),
			postgres.WithUsername("user"),
			postgres.WithPassword("password"),
			postgres.BasicWaitStrategies(),
		)
		if startErr != nil {
			return
		}
		connStr, startErr = postgresContainer.ConnectionString(ctx)
		if startErr != nil {
			return
		}

		pool, startErr = pgxpool.New(ctx, connStr)
		if startErr != nil {
			return
		}
		defer pool.Close()

		startErr = datalayer.MigratePostgres(pool)
	})

	if startErr != nil {
		t.Fatalf("failed to start postgres container: %v", startErr)
	}
	wg.Add(1)
	t.Cleanup(wg.Done)

	return connStr
}

// GetPool creates a connected pool for testing. It performs no
// modifications or migrations on the database schema.
func GetPool(t *testing.T, connStr string) *pgxpool.Pool {
	t.Helper()
	pool, err := pgxpool.New(t.Context(), connStr)
	if err != nil {
		t.Fatalf("failed to create postgres pool: %v", err)
	}

	t.Cleanup(pool.Close)
	return pool
}

func TerminatePostgresForE2E() {
	wg.Wait()
	if postgresContainer != nil {
		err := postgresContainer.Terminate(context.Background())
		if err != nil {
			fmt.Printf("failed to terminate postgres container: %v", err)
		}
	}
}

var (
	redisOnce      sync.Once
	redisContainer *tcredis.RedisContainer
	redisURL       string
	redisStartErr  error
	redisWG        sync.WaitGroup
)

// UseRedis provisions or reuses a Redis container for the test. The
// instance is shared across tests; use distinct streams and tokens.
func UseRedis(t *testing.T) string {
	t.Helper()

	redisOnce.Do(func() {
		ctx := context.Background()
		redisContainer, redisStartErr = tcredis.Run(ctx, "redis:7")
		if redisStartErr != nil {
			return
		}
		redisURL, redisStartErr = redisContainer.ConnectionString(ctx)
	})

	if redisStartErr != nil {
		t.Fatalf("failed to start redis container: %v", redisStartErr)
	}
	redisWG.Add(1)
	t.Cleanup(redisWG.Done)

	return redisURL
}

// GetRedisClient connects a client to the shared Redis container.
func GetRedisClient(t *testing.T, redisURL string) *goredis.Client {
	t.Helper()
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("failed to parse redis url: %v", err)
	}

	client := goredis.NewClient(opts)
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Errorf("failed to close redis client: %v", err)
		}
	})
	return client
}

func TerminateRedisForE2E() {
	redisWG.Wait()
	if redisContainer != nil {
		err := redisContainer.Terminate(context.Background())
		if err != nil {
			fmt.Printf("failed to terminate redis container: %v", err)
		}
	}
}
