package debate

import (
	"fmt"
	"strings"
)

// Action is the moderator's post-round decision.
type Action string

const (
	ActionContinue Action = "continue"
	ActionVote     Action = "vote"
	ActionConclude Action = "conclude"
)

// RoundContext is what an analyzer sees after a round completes.
type RoundContext struct {
	DebateID     string
	Topic        string
	Question     string
	Round        int
	MaxRounds    int
	Participants []string
	Arguments    []Argument
	Prior        []Argument
}

// Analysis is the qualitative judgment of a completed round.
type Analysis struct {
	Quality           int
	ConsensusEmerging bool
	Agreements        []string
	Disagreements     []string
	Synthesis         string
	Action            Action
	Reason            string
}

// Analyzer judges a completed round and decides whether the debate should
// continue, move to a vote, or conclude. Implementations backed by an
// external reasoning service live outside this package; Heuristic is the
// self-contained default.
type Analyzer interface {
	AnalyzeRound(ctx RoundContext) (Analysis, error)
}

// Heuristic is a rule-based analyzer: unanimous positions signal emerging
// consensus and an early conclusion, split positions keep the debate going,
// and a split persisting into the final allowed round is settled by vote.
type Heuristic struct{}

// AnalyzeRound implements Analyzer.
func (Heuristic) AnalyzeRound(ctx RoundContext) (Analysis, error) {
	counts := make(map[string]int)
	for _, arg := range ctx.Arguments {
		counts[arg.Position]++
	}

	favorable := counts[PositionFavorable]
	unfavorable := counts[PositionUnfavorable]

	a := Analysis{
		Quality:   5,
		Synthesis: summarizePositions(ctx, counts),
	}

	switch {
	case favorable > 0 && unfavorable == 0:
		a.ConsensusEmerging = true
		a.Agreements = append(a.Agreements, "general agreement in favor of the proposal")
		a.Action = ActionConclude
		a.Reason = "positions are unanimous"
	case unfavorable > 0 && favorable == 0:
		a.ConsensusEmerging = true
		a.Agreements = append(a.Agreements, "general agreement against the proposal")
		a.Action = ActionConclude
		a.Reason = "positions are unanimous"
	case ctx.MaxRounds > 0 && ctx.Round >= ctx.MaxRounds-1:
		a.Disagreements = append(a.Disagreements, "positions remain split after repeated rounds")
		a.Action = ActionVote
		a.Reason = "split persists near the round cap, settling by vote"
	default:
		a.Disagreements = append(a.Disagreements, "positions diverge on the proposal")
		a.Action = ActionContinue
		a.Reason = "positions diverge, another round may converge them"
	}
	return a, nil
}

// summarizePositions renders a short synthesis of the round's positions.
func summarizePositions(ctx RoundContext, counts map[string]int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Round %d of %q collected %d arguments", ctx.Round, ctx.Topic, len(ctx.Arguments))
	parts := make([]string, 0, len(counts))
	for _, pos := range []string{PositionFavorable, PositionUnfavorable, PositionNuanced} {
		if counts[pos] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[pos], pos))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	b.WriteString(".")
	return b.String()
}
