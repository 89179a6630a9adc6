package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fennwick/empath/internal/explain"
	"github.com/fennwick/empath/internal/repository"
)

type createEmailAnalysisRequest struct {
	EmailText string `json:"email_text"`
}

type emailAnalysisResponse struct {
	ID        string    `json:"id"`
	EmailBody string    `json:"email_body"`
	Analysis  string    `json:"analysis"`
	CreatedAt time.Time `json:"created_at"`
}

func (api *API) handleCreateEmailAnalysis(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: "missing session"})
		return
	}

	var req createEmailAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &UserError{Message: "malformed JSON body"})
		return
	}
	if strings.TrimSpace(req.EmailText) == "" {
		writeError(w, &UserError{Message: "email_text is required"})
		return
	}

	analysis := api.explainEmail(r.Context(), req.EmailText)

	id, err := api.IDs.Next()
	if err != nil {
		writeError(w, err)
		return
	}

	record := repository.EmailAnalysis{
		ID:        id,
		EmailBody: req.EmailText,
		Analysis:  analysis,
		CreatedAt: time.Now().UTC(),
	}
	if err := api.Emails.Save(r.Context(), sess.Username, record); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, emailAnalysisResponse{
		ID:        record.ID,
		EmailBody: record.EmailBody,
		Analysis:  record.Analysis,
		CreatedAt: record.CreatedAt,
	})
}

// explainEmail degrades to the fixed fallback when no explainer is
// configured or the backend call fails.
func (api *API) explainEmail(ctx context.Context, email string) string {
	if api.Explainer == nil {
		return explain.FallbackExplanation
	}
	analysis, err := api.Explainer.AnalyzeEmail(ctx, email)
	if err != nil {
		slog.Warn("email analysis failed", slog.Any("error", err))
		return explain.FallbackExplanation
	}
	return analysis
}

type emailAnalysisHistoryResponse struct {
	Analyses []emailAnalysisResponse `json:"analyses"`
}

func (api *API) handleListEmailAnalyses(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	if _, err := api.Users.GetByUsername(r.Context(), username); err != nil {
		writeError(w, err)
		return
	}

	analyses, err := api.Emails.ListByUsername(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := emailAnalysisHistoryResponse{Analyses: make([]emailAnalysisResponse, 0, len(analyses))}
	for _, analysis := range analyses {
		resp.Analyses = append(resp.Analyses, emailAnalysisResponse{
			ID:        analysis.ID,
			EmailBody: analysis.EmailBody,
			Analysis:  analysis.Analysis,
			CreatedAt: analysis.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
