// Package scoring rates debate arguments with a fixed weighted rubric and
// provides the default argument-contribution capability participants embed.
// The rubric is deliberately mechanical: it rewards structural signals, not
// semantic quality, which belongs to external analyzers.
package scoring

import (
	"strings"

	"github.com/openagora/agora/internal/debate"
)

// Rubric weights. They sum to 1.0; the final score is clamped to [0,1].
const (
	weightLogic     = 0.4
	weightEvidence  = 0.3
	weightClarity   = 0.2
	weightRelevance = 0.1
)

// NeutralScore is the fallback when an argument cannot be evaluated.
const NeutralScore = 0.5

// connectives are the causal and contrastive markers the logic signal counts.
var connectives = []string{
	"because", "since", "therefore", "thus",
	"consequently", "indeed", "however", "nevertheless",
}

// Score applies the rubric to one argument.
func Score(arg debate.Argument) float64 {
	score := weightLogic*logicScore(arg) +
		weightEvidence*evidenceScore(arg) +
		weightClarity*clarityScore(arg) +
		weightRelevance*relevanceScore(arg)

	return min(1.0, max(0.0, score))
}

// ScoreAll rates a set of arguments, keyed by argument id.
func ScoreAll(args []debate.Argument) map[string]float64 {
	scores := make(map[string]float64, len(args))
	for _, arg := range args {
		scores[arg.ID] = Score(arg)
	}
	return scores
}

// logicScore combines connective-word density with reasoning length.
func logicScore(arg debate.Argument) float64 {
	reasoning := strings.ToLower(arg.Reasoning)
	if reasoning == "" {
		return 0.3
	}
	found := 0
	for _, word := range connectives {
		if strings.Contains(reasoning, word) {
			found++
		}
	}
	keywordScore := float64(found) / float64(len(connectives))
	lengthScore := min(float64(len(arg.Reasoning))/200, 1.0)
	return (keywordScore + lengthScore) / 2
}

// evidenceScore scales the evidence count, capped at three items.
func evidenceScore(arg debate.Argument) float64 {
	return min(float64(len(arg.Evidence))/3, 1.0)
}

// clarityScore rewards a thesis whose length sits in a readable band.
func clarityScore(arg debate.Argument) float64 {
	n := len(arg.Thesis)
	switch {
	case n == 0:
		return 0.3
	case n >= 10 && n <= 150:
		return 0.8
	case n < 10:
		return 0.3
	default:
		return 0.6
	}
}

// relevanceScore checks that the basic parts are present, floored at 0.3.
func relevanceScore(arg debate.Argument) float64 {
	parts := 0
	if arg.Thesis != "" {
		parts++
	}
	if arg.Reasoning != "" {
		parts++
	}
	if len(arg.Evidence) > 0 {
		parts++
	}
	return max(0.3, float64(parts)/3)
}
