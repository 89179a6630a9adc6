// Package sentiment turns free text into a 0-5 empathy score.
package sentiment

import (
	"math"

	"github.com/grassmudhorses/vader-go/lexicon"
	"github.com/grassmudhorses/vader-go/sentitext"
)

// MaxScore is the top of the empathy scale.
const MaxScore = 5.0

const (
	// Scores above positiveFloor read as warm; below negativeCeil as cold.
	positiveFloor = 4.0
	negativeCeil  = 2.0
)

const (
	LabelPositive = "Positive"
	LabelNegative = "Negative"
	LabelNeutral  = "Neutral"
)

// Score is an empathy rating on [0, MaxScore] with its bucket label.
type Score struct {
	Value float64 `json:"score"`
	Label string  `json:"label"`
}

// Scorer rates a piece of text. Implementations must be safe for
// concurrent use.
type Scorer interface {
	Score(text string) Score
}

// LexiconScorer scores with the VADER polarity lexicon. It is
// deterministic and does no I/O.
type LexiconScorer struct{}

var _ Scorer = (*LexiconScorer)(nil)

func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{}
}

// Score maps compound polarity on [-1, 1] onto the empathy scale,
// rounded to two decimals.
func (s *LexiconScorer) Score(text string) Score {
	parsed := sentitext.Parse(text, lexicon.DefaultLexicon)
	compound := sentitext.PolarityScore(parsed).Compound

	value := math.Round((compound+1)*2.5*100) / 100
	return Score{Value: value, Label: LabelFor(value)}
}

// LabelFor buckets a score value. The cuts are strict: exactly 4.0 and
// exactly 2.0 are both Neutral.
func LabelFor(value float64) string {
	switch {
	case value > positiveFloor:
		return LabelPositive
	case value < negativeCeil:
		return LabelNegative
	default:
		return LabelNeutral
	}
}
