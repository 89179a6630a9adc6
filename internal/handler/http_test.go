package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/fennwick/empath/internal/auth"
	"github.com/fennwick/empath/internal/datalayer"
	"github.com/fennwick/empath/internal/generator"
	"github.com/fennwick/empath/internal/handler"
	"github.com/fennwick/empath/internal/repository"
	"github.com/fennwick/empath/internal/sentiment"
	"github.com/fennwick/empath/internal/worker"
)

type memoryUserStore struct {
	mu    sync.Mutex
	users []repository.User
}

var _ repository.UserStore = (*memoryUserStore)(nil)

func (s *memoryUserStore) Create(_ context.Context, user repository.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username {
			return &repository.UsernameTakenError{Username: user.Username}
		}
	}
	s.users = append(s.users, user)
	return nil
}

func (s *memoryUserStore) GetByUsername(_ context.Context, username string) (repository.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return repository.User{}, repository.ErrUserNotFound
}

func (s *memoryUserStore) ListUsernames(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	usernames := make([]string, 0, len(s.users))
	for _, user := range s.users {
		usernames = append(usernames, user.Username)
	}
	sort.Strings(usernames)
	return usernames, nil
}

// memoryScoreStore keeps entries newest first, as the Postgres
// repository orders its listings.
type memoryScoreStore struct {
	mu     sync.Mutex
	scores []repository.UserScore
}

var _ repository.ScoreStore = (*memoryScoreStore)(nil)

func (s *memoryScoreStore) Save(_ context.Context, username string, score repository.EmpathyScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores = append([]repository.UserScore{{EmpathyScore: score, Username: username}}, s.scores...)
	return nil
}

func (s *memoryScoreStore) ListByUsername(_ context.Context, username string) ([]repository.EmpathyScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.EmpathyScore
	for _, score := range s.scores {
		if score.Username == username {
			out = append(out, score.EmpathyScore)
		}
	}
	return out, nil
}

func (s *memoryScoreStore) ListAll(_ context.Context) ([]repository.UserScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]repository.UserScore(nil), s.scores...), nil
}

type ownedEmail struct {
	username string
	analysis repository.EmailAnalysis
}

type memoryEmailStore struct {
	mu      sync.Mutex
	records []ownedEmail
}

var _ repository.EmailAnalysisStore = (*memoryEmailStore)(nil)

func (s *memoryEmailStore) Save(_ context.Context, username string, analysis repository.EmailAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]ownedEmail{{username: username, analysis: analysis}}, s.records...)
	return nil
}

func (s *memoryEmailStore) ListByUsername(_ context.Context, username string) ([]repository.EmailAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.EmailAnalysis
	for _, record := range s.records {
		if record.username == username {
			out = append(out, record.analysis)
		}
	}
	return out, nil
}

type ownedReport struct {
	username string
	report   repository.VoiceReport
}

type memoryVoiceReportStore struct {
	mu      sync.Mutex
	records []ownedReport
}

var _ repository.VoiceReportStore = (*memoryVoiceReportStore)(nil)

func (s *memoryVoiceReportStore) Save(_ context.Context, username string, report repository.VoiceReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]ownedReport{{username: username, report: report}}, s.records...)
	return nil
}

func (s *memoryVoiceReportStore) ListByUsername(_ context.Context, username string) ([]repository.VoiceReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.VoiceReport
	for _, record := range s.records {
		if record.username == username {
			out = append(out, record.report)
		}
	}
	return out, nil
}

func (s *memoryVoiceReportStore) DeleteOlderThan(_ context.Context, _ time.Time) ([]string, error) {
	return nil, nil
}

type stubExplainer struct {
	textResponse  string
	emailResponse string
	err           error
}

func (s *stubExplainer) ExplainText(_ context.Context, _ string) (string, error) {
	return s.textResponse, s.err
}

func (s *stubExplainer) AnalyzeEmail(_ context.Context, _ string) (string, error) {
	return s.emailResponse, s.err
}

type stubClassifier struct {
	label string
	err   error
}

func (s *stubClassifier) Predict(_ context.Context, _ string) (string, error) {
	return s.label, s.err
}

type testEnv struct {
	server  *httptest.Server
	api     *handler.API
	users   *memoryUserStore
	scores  *memoryScoreStore
	emails  *memoryEmailStore
	reports *memoryVoiceReportStore
	blobs   *datalayer.MemoryBlobStorage
	jobs    *worker.MemoryJobEnqueuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		users:   &memoryUserStore{},
		scores:  &memoryScoreStore{},
		emails:  &memoryEmailStore{},
		reports: &memoryVoiceReportStore{},
		blobs:   datalayer.NewMemoryBlobStorage(),
		jobs:    worker.NewMemoryJobEnqueuer(),
	}

	env.api = &handler.API{
		Users:      env.users,
		Scores:     env.scores,
		Emails:     env.emails,
		Reports:    env.reports,
		Sessions:   auth.NewMemorySessionStore(),
		Scorer:     sentiment.NewLexiconScorer(),
		Blobs:      env.blobs,
		Jobs:       env.jobs,
		SessionTTL: time.Hour,
		IDs:        &generator.UUIDV4Generator{},
		Tokens:     &generator.SecureTokenGenerator{},
	}

	env.server = httptest.NewServer(env.api.Routes())
	t.Cleanup(env.server.Close)
	return env
}

func (env *testEnv) request(t *testing.T, method, path, token string, body io.Reader, contentType string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, env.server.URL+path, body)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := env.server.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (env *testEnv) postJSON(t *testing.T, path, token string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return env.request(t, http.MethodPost, path, token, bytes.NewReader(body), "application/json")
}

func (env *testEnv) get(t *testing.T, path, token string) *http.Response {
	t.Helper()
	return env.request(t, http.MethodGet, path, token, nil, "")
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return v
}

func (env *testEnv) signup(t *testing.T, username, password string) {
	t.Helper()
	resp := env.postJSON(t, "/api/signup", "", map[string]string{
		"username": username,
		"password": password,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup returned %d", resp.StatusCode)
	}
}

func (env *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	resp := env.postJSON(t, "/api/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login returned %d", resp.StatusCode)
	}
	body := decodeBody[map[string]string](t, resp)
	if body["token"] == "" {
		t.Fatal("login returned an empty token")
	}
	return body["token"]
}

func newAuthedEnv(t *testing.T) (*testEnv, string) {
	t.Helper()
	env := newTestEnv(t)
	env.signup(t, "ada", "correct horse")
	token := env.login(t, "ada", "correct horse")
	return env, token
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf(`expected body "ok", got %q`, body)
	}
}

func TestSignup(t *testing.T) {
	t.Run("creates an account", func(t *testing.T) {
		env := newTestEnv(t)

		resp := env.postJSON(t, "/api/signup", "", map[string]string{
			"username": "ada",
			"password": "correct horse",
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}

		body := decodeBody[map[string]string](t, resp)
		if body["id"] == "" {
			t.Error("expected a generated id")
		}
		if body["username"] != "ada" {
			t.Errorf("expected username %q, got %q", "ada", body["username"])
		}
	})

	t.Run("rejects a taken username", func(t *testing.T) {
		env := newTestEnv(t)
		env.signup(t, "ada", "correct horse")

		resp := env.postJSON(t, "/api/signup", "", map[string]string{
			"username": "ada",
			"password": "battery staple",
		})
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("expected 409, got %d", resp.StatusCode)
		}
		body := decodeBody[map[string]string](t, resp)
		if !strings.Contains(body["error"], "taken") {
			t.Errorf("expected a taken-username error, got %q", body["error"])
		}
	})

	t.Run("rejects short or missing fields", func(t *testing.T) {
		env := newTestEnv(t)

		testCases := []struct {
			name     string
			username string
			password string
		}{
			{name: "short username", username: "al", password: "long enough password"},
			{name: "short password", username: "ada", password: "short"},
			{name: "missing fields", username: "", password: ""},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				resp := env.postJSON(t, "/api/signup", "", map[string]string{
					"username": tc.username,
					"password": tc.password,
				})
				if resp.StatusCode != http.StatusBadRequest {
					t.Errorf("expected 400, got %d", resp.StatusCode)
				}
			})
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		env := newTestEnv(t)

		resp := env.request(t, http.MethodPost, "/api/signup", "", strings.NewReader("{"), "application/json")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "ada", "correct horse")

	t.Run("issues a session token", func(t *testing.T) {
		token := env.login(t, "ada", "correct horse")
		if len(token) != 32 {
			t.Errorf("expected a 32-character token, got %d characters", len(token))
		}
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		resp := env.postJSON(t, "/api/login", "", map[string]string{
			"username": "ada",
			"password": "battery staple",
		})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("rejects an unknown user", func(t *testing.T) {
		resp := env.postJSON(t, "/api/login", "", map[string]string{
			"username": "grace",
			"password": "correct horse",
		})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})
}

func TestLogout(t *testing.T) {
	env, token := newAuthedEnv(t)

	resp := env.postJSON(t, "/api/logout", token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	resp = env.get(t, "/api/users", token)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected the token to be dead after logout, got %d", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	t.Run("missing token", func(t *testing.T) {
		resp := env.get(t, "/api/users", "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
		body := decodeBody[map[string]string](t, resp)
		if body["error"] == "" {
			t.Error("expected an error envelope")
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		resp := env.get(t, "/api/users", "deadbeef")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("expired session", func(t *testing.T) {
		stale := auth.Session{
			Token:     "stale",
			Username:  "ada",
			CreatedAt: time.Now().Add(-2 * time.Hour),
			ExpiresAt: time.Now().Add(-time.Hour),
		}
		if err := env.api.Sessions.Create(context.Background(), stale); err != nil {
			t.Fatalf("failed to seed session: %v", err)
		}

		resp := env.get(t, "/api/users", "stale")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})
}

func TestCreateScore(t *testing.T) {
	t.Run("scores and persists text", func(t *testing.T) {
		env, token := newAuthedEnv(t)
		const text = "I love this, it is wonderful and you did an amazing job!"

		resp := env.postJSON(t, "/api/scores", token, map[string]string{"text": text})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}

		type scoreBody struct {
			ID    string  `json:"id"`
			Text  string  `json:"text"`
			Score float64 `json:"score"`
			Label string  `json:"label"`
		}
		body := decodeBody[scoreBody](t, resp)
		if body.ID == "" {
			t.Error("expected a generated id")
		}
		if body.Text != text {
			t.Errorf("expected text %q, got %q", text, body.Text)
		}
		if body.Label != sentiment.LabelPositive {
			t.Errorf("expected label %q, got %q", sentiment.LabelPositive, body.Label)
		}
		if body.Score < 0 || body.Score > sentiment.MaxScore {
			t.Errorf("score %f outside [0, %f]", body.Score, sentiment.MaxScore)
		}

		saved, err := env.scores.ListByUsername(context.Background(), "ada")
		if err != nil {
			t.Fatalf("failed to list scores: %v", err)
		}
		if len(saved) != 1 {
			t.Fatalf("expected 1 persisted score, got %d", len(saved))
		}
		if saved[0].Body != text {
			t.Errorf("persisted body %q, want %q", saved[0].Body, text)
		}
	})

	t.Run("rejects empty text", func(t *testing.T) {
		env, token := newAuthedEnv(t)

		resp := env.postJSON(t, "/api/scores", token, map[string]string{"text": "   "})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("requires a session", func(t *testing.T) {
		env := newTestEnv(t)

		resp := env.postJSON(t, "/api/scores", "", map[string]string{"text": "hello"})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})
}

func TestListUserScores(t *testing.T) {
	env, token := newAuthedEnv(t)

	for _, text := range []string{"first entry", "second entry"} {
		resp := env.postJSON(t, "/api/scores", token, map[string]string{"text": text})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("seeding score returned %d", resp.StatusCode)
		}
	}

	t.Run("newest first", func(t *testing.T) {
		resp := env.get(t, "/api/users/ada/scores", token)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		type historyBody struct {
			Scores []struct {
				Text string `json:"text"`
			} `json:"scores"`
		}
		body := decodeBody[historyBody](t, resp)
		if len(body.Scores) != 2 {
			t.Fatalf("expected 2 scores, got %d", len(body.Scores))
		}
		if body.Scores[0].Text != "second entry" {
			t.Errorf("expected the newest entry first, got %q", body.Scores[0].Text)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		resp := env.get(t, "/api/users/nobody/scores", token)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})
}

func TestListAllScores(t *testing.T) {
	env, token := newAuthedEnv(t)
	env.signup(t, "grace", "battery staple")
	graceToken := env.login(t, "grace", "battery staple")

	if resp := env.postJSON(t, "/api/scores", token, map[string]string{"text": "from ada"}); resp.StatusCode != http.StatusCreated {
		t.Fatalf("seeding score returned %d", resp.StatusCode)
	}
	if resp := env.postJSON(t, "/api/scores", graceToken, map[string]string{"text": "from grace"}); resp.StatusCode != http.StatusCreated {
		t.Fatalf("seeding score returned %d", resp.StatusCode)
	}

	resp := env.get(t, "/api/scores", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	type allBody struct {
		Scores []struct {
			Username string `json:"username"`
			Text     string `json:"text"`
		} `json:"scores"`
	}
	body := decodeBody[allBody](t, resp)
	if len(body.Scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(body.Scores))
	}
	if body.Scores[0].Username != "grace" || body.Scores[0].Text != "from grace" {
		t.Errorf("expected grace's entry first, got %+v", body.Scores[0])
	}
	if body.Scores[1].Username != "ada" {
		t.Errorf("expected ada's entry second, got %+v", body.Scores[1])
	}
}

func TestListUsers(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "grace", "battery staple")
	env.signup(t, "ada", "correct horse")
	token := env.login(t, "ada", "correct horse")

	resp := env.get(t, "/api/users", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeBody[map[string][]string](t, resp)
	if diff := cmp.Diff([]string{"ada", "grace"}, body["usernames"]); diff != "" {
		t.Errorf("usernames mismatch (-want +got):\n%s", diff)
	}
}
