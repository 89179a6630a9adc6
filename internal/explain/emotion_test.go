package explain_test

import (
	"testing"

	"github.com/fennwick/empath/internal/explain"
)

func TestExtractEmotion(t *testing.T) {
	testCases := []struct {
		name        string
		explanation string
		want        string
	}{
		{
			name:        "reads the marked primary emotion",
			explanation: "Primary Emotion: Joy\nSecondary Emotions: Excitement\nConfidence: 90%",
			want:        "Joy",
		},
		{
			name:        "marker casing does not matter",
			explanation: "PRIMARY EMOTION: SAD",
			want:        "Sad",
		},
		{
			name:        "falls back to scanning the whole text",
			explanation: "The speaker expresses deep sadness about the outcome.",
			want:        "Sad",
		},
		{
			name:        "earlier catalog entries win ties",
			explanation: "A mix of happy and sad feelings.",
			want:        "Happy",
		},
		{
			name:        "scans past an unrecognized label",
			explanation: "Primary Emotion: elation, with an undertone of fear.",
			want:        "Fear",
		},
		{
			name:        "no recognizable emotion",
			explanation: "The text is a shopping list.",
			want:        "Neutral",
		},
		{
			name:        "empty explanation",
			explanation: "",
			want:        "Neutral",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := explain.ExtractEmotion(tc.explanation); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestEmojiFor(t *testing.T) {
	testCases := []struct {
		name    string
		emotion string
		want    string
	}{
		{"happy", "Happy", "😃"},
		{"joy shares the happy face", "Joy", "😃"},
		{"anger", "Anger", "😡"},
		{"love", "Love", "❤"},
		{"neutral", "Neutral", "😐"},
		{"unknown emotion gets the neutral face", "Elation", "😐"},
		{"empty name gets the neutral face", "", "😐"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := explain.EmojiFor(tc.emotion); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
