package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fennwick/empath/internal/config"
)

const chatCompletionsPath = "/chat/completions"

const (
	completionMaxTokens   = 120
	completionTemperature = 0.7
	requestTimeout        = 60 * time.Second
)

// The instruction blocks are deliberate run-on strings; the model parses
// them fine and downstream extraction keys off the field markers.
const textSystemPrompt = "You are an advanced emotion analysis assistant. " +
	"Your job is to analyze user text and identify the underlying emotions. " +
	"Return output in this format:" +
	"Primary Emotion: <main emotion>" +
	"Secondary Emotions: <other possible emotions>" +
	"Confidence: <percentage>" +
	"Explanation: <short reasoning>"

const emailSystemPrompt = "You are an assistant that analyzes emails. " +
	"Detect the tone (formal/informal/neutral), " +
	"politeness level (0-100), and emotional intent. " +
	"Return output in this format:" +
	"Tone: <tone>" +
	"Politeness: <score>/100" +
	"Emotional Intent: <intent>"

// Chat-completions wire format (OpenAI compatible).
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *chatError   `json:"error,omitempty"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// GroqExplainer talks to Groq's OpenAI-compatible chat completions API.
type GroqExplainer struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

var _ Explainer = (*GroqExplainer)(nil)

func NewGroqExplainer(cfg *config.GroqConfig) *GroqExplainer {
	return &GroqExplainer{
		client:  &http.Client{Timeout: requestTimeout},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}
}

func (g *GroqExplainer) ExplainText(ctx context.Context, text string) (string, error) {
	return g.complete(ctx, textSystemPrompt, "Analyze the emotions in this text: "+text)
}

func (g *GroqExplainer) AnalyzeEmail(ctx context.Context, email string) (string, error) {
	return g.complete(ctx, emailSystemPrompt, "Analyze this email: "+email)
}

func (g *GroqExplainer) complete(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: completionTemperature,
		MaxTokens:   completionMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := g.baseURL + chatCompletionsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat completions %s: %s", resp.Status, string(body))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("chat completions: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat completions returned no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
