package explain

import (
	"strings"

	"github.com/fennwick/empath/internal/util"
)

// knownEmotions is scanned in order; earlier entries win when an
// explanation mentions several.
var knownEmotions = []string{
	"Happy", "Happiness", "Joy", "Sad", "Angry", "Anger", "Frustration",
	"Anxiety", "Affection", "Love", "Surprise", "Fear", "Neutral",
}

var emojiByEmotion = map[string]string{
	"Happy":       "😃",
	"Happiness":   "😃",
	"Joy":         "😃",
	"Sad":         "😢",
	"Angry":       "😡",
	"Anger":       "😡",
	"Frustration": "😖",
	"Anxiety":     "😰",
	"Affection":   "🥰",
	"Love":        "❤",
	"Surprise":    "🤗",
	"Fear":        "😨",
	"Neutral":     "😐",
}

const neutralEmoji = "😐"

// ExtractEmotion pulls the primary emotion name out of an explanation.
// It prefers the segment right after a "primary emotion" marker and falls
// back to scanning the whole text; unrecognized text is Neutral.
func ExtractEmotion(explanation string) string {
	lowered := strings.ToLower(explanation)

	if parts := strings.Split(lowered, "primary emotion"); len(parts) > 1 {
		if emotion, ok := findEmotion(parts[1]); ok {
			return emotion
		}
	}
	if emotion, ok := findEmotion(lowered); ok {
		return emotion
	}
	return "Neutral"
}

func findEmotion(haystack string) (string, bool) {
	return util.FindFirst(knownEmotions, func(emotion string) bool {
		return strings.Contains(haystack, strings.ToLower(emotion))
	})
}

// EmojiFor maps an emotion name to its emoji. Unknown names get the
// neutral face.
func EmojiFor(emotion string) string {
	if emoji, ok := emojiByEmotion[emotion]; ok {
		return emoji
	}
	return neutralEmoji
}
