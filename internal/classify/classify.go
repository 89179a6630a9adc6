// Package classify calls the external TF-IDF emotion classifier service.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	predictPath    = "/predict"
	requestTimeout = 30 * time.Second
)

// Classifier predicts an emotion label for a piece of text.
// Implementations must be safe for concurrent use.
type Classifier interface {
	Predict(ctx context.Context, text string) (string, error)
}

type predictRequest struct {
	Text string `json:"text"`
}

// The service reports model-load failures as a 200 with an error key.
type predictResponse struct {
	InputText        string `json:"input_text"`
	PredictedEmotion string `json:"predicted_emotion"`
	Error            string `json:"error"`
}

// HTTPClassifier is a thin client for the classifier microservice.
type HTTPClassifier struct {
	client  *http.Client
	baseURL string
}

var _ Classifier = (*HTTPClassifier)(nil)

func NewHTTPClassifier(baseURL string) *HTTPClassifier {
	return &HTTPClassifier{
		client:  &http.Client{Timeout: requestTimeout},
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func (c *HTTPClassifier) Predict(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(predictRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("failed to marshal predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+predictPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send predict request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("classifier %s: %s", resp.Status, string(body))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode predict response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("classifier: %s", out.Error)
	}
	if out.PredictedEmotion == "" {
		return "", fmt.Errorf("classifier returned no label")
	}
	return out.PredictedEmotion, nil
}
