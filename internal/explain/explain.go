// Package explain produces human-readable emotion explanations through a
// pluggable LLM backend.
package explain

import "context"

// FallbackExplanation is what users see when no explainer is configured
// or the backend call fails.
const FallbackExplanation = "Emotion explanation unavailable."

// Explainer generates free-form emotion analyses. Implementations must be
// safe for concurrent use.
type Explainer interface {
	// ExplainText describes the emotions carried by a piece of text.
	ExplainText(ctx context.Context, text string) (string, error)
	// AnalyzeEmail describes the tone, politeness, and emotional intent
	// of an email body.
	AnalyzeEmail(ctx context.Context, email string) (string, error)
}
