package e2e_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fennwick/empath/e2e"
	"github.com/fennwick/empath/internal/auth"
	"github.com/fennwick/empath/internal/datalayer"
	"github.com/fennwick/empath/internal/generator"
	"github.com/fennwick/empath/internal/handler"
	"github.com/fennwick/empath/internal/repository"
	"github.com/fennwick/empath/internal/sentiment"
	"github.com/fennwick/empath/internal/worker"
)

// startStack assembles the API over real Postgres and Redis containers
// and serves it over HTTP. Blob storage stays in memory; the rest is
// the production wiring.
func startStack(t *testing.T, jobs worker.JobEnqueuer) (*httptest.Server, *handler.API) {
	t.Helper()

	connStr := e2e.UsePostgres(t)
	pool := e2e.GetPool(t, connStr)
	e2e.SeedGlobalNoise(t, pool)

	redisURL := e2e.UseRedis(t)
	rdb := e2e.GetRedisClient(t, redisURL)

	api := &handler.API{
		Users:      repository.NewPostgresUserRepository(pool),
		Scores:     repository.NewPostgresScoreRepository(pool),
		Emails:     repository.NewPostgresEmailAnalysisRepository(pool),
		Reports:    repository.NewPostgresVoiceReportRepository(pool),
		Sessions:   auth.NewRedisSessionStore(rdb),
		Scorer:     sentiment.NewLexiconScorer(),
		Blobs:      datalayer.NewMemoryBlobStorage(),
		Jobs:       jobs,
		SessionTTL: time.Hour,
		IDs:        &generator.UUIDV4Generator{},
		Tokens:     &generator.SecureTokenGenerator{},
	}

	server := httptest.NewServer(api.Routes())
	t.Cleanup(server.Close)
	return server, api
}

func request(t *testing.T, method, url, token string, body io.Reader, contentType string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to perform request: %v", err)
	}
	t.Cleanup(func() {
		if err := resp.Body.Close(); err != nil {
			t.Errorf("failed to close response body: %v", err)
		}
	})
	return resp
}

func postJSON(t *testing.T, url, token string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return request(t, http.MethodPost, url, token, bytes.NewReader(body), "application/json")
}

func get(t *testing.T, url, token string) *http.Response {
	t.Helper()
	return request(t, http.MethodGet, url, token, nil, "")
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return out
}

// registerAndLogin runs the signup and login flow, returning a live
// bearer token.
func registerAndLogin(t *testing.T, baseURL, username, password string) string {
	t.Helper()

	resp := postJSON(t, baseURL+"/api/signup", "", map[string]string{
		"username": username,
		"password": password,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected signup to return 201, got %d", resp.StatusCode)
	}

	resp = postJSON(t, baseURL+"/api/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected login to return 200, got %d", resp.StatusCode)
	}

	login := decodeBody[struct {
		Token string `json:"token"`
	}](t, resp)
	if login.Token == "" {
		t.Fatal("expected a session token")
	}
	return login.Token
}
