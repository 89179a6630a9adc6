// Package handler exposes the HTTP API: accounts and sessions, empathy
// scoring, email tone analysis, and voice prosody analysis.
package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/fennwick/empath/internal/auth"
	"github.com/fennwick/empath/internal/classify"
	"github.com/fennwick/empath/internal/datalayer"
	"github.com/fennwick/empath/internal/explain"
	"github.com/fennwick/empath/internal/generator"
	"github.com/fennwick/empath/internal/repository"
	"github.com/fennwick/empath/internal/sentiment"
	"github.com/fennwick/empath/internal/worker"
)

// API holds the dependencies of the HTTP surface. Explainer, Classifier,
// Blobs, and Jobs are optional; the handlers that use them degrade when
// they are nil.
type API struct {
	Users    repository.UserStore
	Scores   repository.ScoreStore
	Emails   repository.EmailAnalysisStore
	Reports  repository.VoiceReportStore
	Sessions auth.SessionStore
	Scorer   sentiment.Scorer

	Explainer  explain.Explainer
	Classifier classify.Classifier
	Blobs      datalayer.BlobStorage
	Jobs       worker.JobEnqueuer

	SessionTTL time.Duration

	IDs    generator.Generator[string]
	Tokens generator.Generator[string]
}

// Routes builds the ServeMux for the API.
func (api *API) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", api.handleHealthz)
	mux.HandleFunc("POST /api/signup", api.handleSignup)
	mux.HandleFunc("POST /api/login", api.handleLogin)

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return requireSession(api.Sessions, next)
	}

	mux.HandleFunc("POST /api/logout", authed(api.handleLogout))
	mux.HandleFunc("POST /api/scores", authed(api.handleCreateScore))
	mux.HandleFunc("GET /api/scores", authed(api.handleListAllScores))
	mux.HandleFunc("GET /api/users", authed(api.handleListUsers))
	mux.HandleFunc("GET /api/users/{username}/scores", authed(api.handleListUserScores))
	mux.HandleFunc("POST /api/email-analyses", authed(api.handleCreateEmailAnalysis))
	mux.HandleFunc("GET /api/users/{username}/email-analyses", authed(api.handleListEmailAnalyses))
	mux.HandleFunc("POST /api/analyze/text", authed(api.handleAnalyzeText))
	mux.HandleFunc("POST /api/analyze/voice", authed(api.handleAnalyzeVoice))
	mux.HandleFunc("GET /api/users/{username}/voice-reports", authed(api.handleListVoiceReports))

	return mux
}

const readHeaderTimeout = 5 * time.Second

// NewServer wraps the API routes in an http.Server with a header read
// timeout so idle connections cannot hold workers forever.
func NewServer(addr string, api *API) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func (api *API) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "ok")
}
