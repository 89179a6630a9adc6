package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fennwick/empath/internal/analyzer"
	"github.com/fennwick/empath/internal/datalayer"
	"github.com/fennwick/empath/internal/explain"
	"github.com/fennwick/empath/internal/util"
	"github.com/fennwick/empath/internal/worker"
)

type analyzeTextRequest struct {
	Text string `json:"text"`
}

type analyzeTextResponse struct {
	Score       float64 `json:"score"`
	Label       string  `json:"label"`
	Emotion     string  `json:"emotion"`
	Emoji       string  `json:"emoji"`
	Explanation string  `json:"explanation"`
}

func (api *API) handleAnalyzeText(w http.ResponseWriter, r *http.Request) {
	var req analyzeTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &UserError{Message: "malformed JSON body"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, &UserError{Message: "text is required"})
		return
	}

	score := api.Scorer.Score(req.Text)
	explanation := api.explainText(r.Context(), req.Text)
	emotion := api.classifyEmotion(r.Context(), req.Text, explanation)

	writeJSON(w, http.StatusOK, analyzeTextResponse{
		Score:       score.Value,
		Label:       score.Label,
		Emotion:     emotion,
		Emoji:       explain.EmojiFor(emotion),
		Explanation: explanation,
	})
}

// explainText degrades to the fixed fallback when no explainer is
// configured or the backend call fails.
func (api *API) explainText(ctx context.Context, text string) string {
	if api.Explainer == nil {
		return explain.FallbackExplanation
	}
	explanation, err := api.Explainer.ExplainText(ctx, text)
	if err != nil {
		slog.Warn("emotion explanation failed", slog.Any("error", err))
		return explain.FallbackExplanation
	}
	return explanation
}

// classifyEmotion prefers the trained classifier and falls back to keyword
// extraction from the explanation. Labels from either path are normalized
// onto the canonical emotion names so the emoji map always applies.
func (api *API) classifyEmotion(ctx context.Context, text, explanation string) string {
	if api.Classifier != nil {
		label, err := api.Classifier.Predict(ctx, text)
		if err == nil {
			return explain.ExtractEmotion(label)
		}
		slog.Warn("classifier unavailable", slog.Any("error", err))
	}
	return explain.ExtractEmotion(explanation)
}

// MaxClipBytes bounds voice uploads.
const MaxClipBytes = 10 * 1024 * 1024 // 10 MB

type voiceAnalysisResponse struct {
	Report         analyzer.FeatureReport `json:"report"`
	Interpretation []string               `json:"interpretation"`
}

func (api *API) handleAnalyzeVoice(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: "missing session"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxClipBytes)
	if err := r.ParseMultipartForm(MaxClipBytes); err != nil {
		writeError(w, &UserError{Message: "malformed multipart form"})
		return
	}

	field, fileHeaders, err := util.GetOne(r.MultipartForm.File)
	if err != nil || field != "clip" || len(fileHeaders) != 1 {
		writeError(w, &UserError{Message: `upload exactly one file in field "clip"`})
		return
	}

	file, err := fileHeaders[0].Open()
	if err != nil {
		writeError(w, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	report, err := analyzer.AnalyzeWAV(data)
	if err != nil {
		writeError(w, err)
		return
	}

	api.archiveClip(r.Context(), sess.Username, data)

	interpretation := report.Interpret()
	if interpretation == nil {
		interpretation = []string{}
	}
	writeJSON(w, http.StatusOK, voiceAnalysisResponse{
		Report:         report,
		Interpretation: interpretation,
	})
}

// archiveClip stores the clip and enqueues the async analysis job when
// blob storage and a queue are configured. Archive failures never fail
// the synchronous response.
func (api *API) archiveClip(ctx context.Context, username string, data []byte) {
	if api.Blobs == nil || api.Jobs == nil {
		return
	}

	id, err := api.IDs.Next()
	if err != nil {
		slog.Warn("failed to generate clip ID", slog.Any("error", err))
		return
	}

	key := "voice/" + id + ".wav"
	err = api.Blobs.Put(ctx, key, bytes.NewReader(data), datalayer.PutOptions{
		Size:        int64(len(data)),
		ContentType: "audio/wav",
	})
	if err != nil {
		slog.Warn("failed to archive clip", slog.Any("error", err))
		return
	}

	job := worker.VoiceAnalysisJob{
		ID:          id,
		Username:    username,
		ObjectKey:   key,
		RequestedAt: time.Now().UTC(),
	}
	if err := api.Jobs.Enqueue(ctx, job); err != nil {
		slog.Warn("failed to enqueue voice job", slog.Any("error", err))
	}
}

type voiceReportResponse struct {
	ID        string    `json:"id"`
	PitchHz   *float64  `json:"pitch_hz"`
	TempoBPM  *float64  `json:"tempo_bpm"`
	Energy    *float64  `json:"energy"`
	Jitter    *float64  `json:"jitter"`
	Tremble   string    `json:"tremble"`
	CreatedAt time.Time `json:"created_at"`
}

type voiceReportHistoryResponse struct {
	Reports []voiceReportResponse `json:"reports"`
}

func (api *API) handleListVoiceReports(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	if _, err := api.Users.GetByUsername(r.Context(), username); err != nil {
		writeError(w, err)
		return
	}

	reports, err := api.Reports.ListByUsername(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := voiceReportHistoryResponse{Reports: make([]voiceReportResponse, 0, len(reports))}
	for _, report := range reports {
		resp.Reports = append(resp.Reports, voiceReportResponse{
			ID:        report.ID,
			PitchHz:   report.PitchHz,
			TempoBPM:  report.TempoBPM,
			Energy:    report.Energy,
			Jitter:    report.Jitter,
			Tremble:   report.Tremble,
			CreatedAt: report.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
