package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/fennwick/empath/internal/repository"
)

type createScoreRequest struct {
	Text string `json:"text"`
}

type scoreResponse struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Score     float64   `json:"score"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}

func (api *API) handleCreateScore(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: "missing session"})
		return
	}

	var req createScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &UserError{Message: "malformed JSON body"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, &UserError{Message: "text is required"})
		return
	}

	score := api.Scorer.Score(req.Text)

	id, err := api.IDs.Next()
	if err != nil {
		writeError(w, err)
		return
	}

	record := repository.EmpathyScore{
		ID:        id,
		Body:      req.Text,
		Score:     score.Value,
		Label:     score.Label,
		CreatedAt: time.Now().UTC(),
	}
	if err := api.Scores.Save(r.Context(), sess.Username, record); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, scoreResponse{
		ID:        record.ID,
		Text:      record.Body,
		Score:     record.Score,
		Label:     record.Label,
		CreatedAt: record.CreatedAt,
	})
}

type scoreHistoryResponse struct {
	Scores []scoreResponse `json:"scores"`
}

func (api *API) handleListUserScores(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	if _, err := api.Users.GetByUsername(r.Context(), username); err != nil {
		writeError(w, err)
		return
	}

	scores, err := api.Scores.ListByUsername(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := scoreHistoryResponse{Scores: make([]scoreResponse, 0, len(scores))}
	for _, score := range scores {
		resp.Scores = append(resp.Scores, scoreResponse{
			ID:        score.ID,
			Text:      score.Body,
			Score:     score.Score,
			Label:     score.Label,
			CreatedAt: score.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type userScoreResponse struct {
	scoreResponse
	Username string `json:"username"`
}

type allScoresResponse struct {
	Scores []userScoreResponse `json:"scores"`
}

func (api *API) handleListAllScores(w http.ResponseWriter, r *http.Request) {
	scores, err := api.Scores.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := allScoresResponse{Scores: make([]userScoreResponse, 0, len(scores))}
	for _, score := range scores {
		resp.Scores = append(resp.Scores, userScoreResponse{
			scoreResponse: scoreResponse{
				ID:        score.ID,
				Text:      score.Body,
				Score:     score.Score,
				Label:     score.Label,
				CreatedAt: score.CreatedAt,
			},
			Username: score.Username,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type usersResponse struct {
	Usernames []string `json:"usernames"`
}

func (api *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	usernames, err := api.Users.ListUsernames(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if usernames == nil {
		usernames = []string{}
	}
	writeJSON(w, http.StatusOK, usersResponse{Usernames: usernames})
}
