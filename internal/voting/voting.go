// Package voting implements the ballot-counting methods debates conclude
// with. All functions are pure: they read a ballot set and return a Result,
// with no side effects and no winner ("" ) on an empty ballot set. Ballots
// naming an option outside the candidate list are ignored, not rejected.
package voting

import (
	"math"
	"sort"

	"github.com/openagora/agora/internal/errors"
)

// Method names a ballot-counting algorithm.
type Method string

const (
	MethodMajority  Method = "majority"
	MethodWeighted  Method = "weighted"
	MethodConsensus Method = "consensus"
	MethodRanked    Method = "ranked"
)

// DefaultConsensusThreshold is the minimum consensus level an option needs to
// be declared the winner of a consensus vote.
const DefaultConsensusThreshold = 0.7

// Ballots carries the voter input for every method. Each method reads only
// the field it needs: Choices for majority and weighted, Scores for
// consensus, Rankings for ranked-choice.
type Ballots struct {
	// Choices maps voter to first choice.
	Choices map[string]string
	// Weights maps voter to voting weight. Missing voters count as 1.0.
	Weights map[string]float64
	// Scores maps voter to per-option scores in [0,1].
	Scores map[string]map[string]float64
	// Rankings maps voter to options in preference order.
	Rankings map[string][]string
}

// OptionConsensus is the per-option outcome of a consensus vote.
type OptionConsensus struct {
	AverageScore   float64 `json:"average_score"`
	ConsensusLevel float64 `json:"consensus_level"`
	IsConsensus    bool    `json:"is_consensus"`
}

// Elimination records one instant-runoff round.
type Elimination struct {
	Round      int    `json:"round"`
	Eliminated string `json:"eliminated"`
	Votes      int    `json:"votes"`
}

// Result is the outcome of one vote. Winner is "" when no winner was
// declared; that is a valid outcome, not an error.
type Result struct {
	Method      Method             `json:"method"`
	Winner      string             `json:"winner,omitempty"`
	Percentage  float64            `json:"percentage,omitempty"`
	Counts      map[string]int     `json:"counts,omitempty"`
	Scores      map[string]float64 `json:"scores,omitempty"`
	TotalWeight float64            `json:"total_weight,omitempty"`

	Consensus map[string]OptionConsensus `json:"consensus,omitempty"`
	Threshold float64                    `json:"threshold,omitempty"`

	FinalRound   int           `json:"final_round,omitempty"`
	Eliminations []Elimination `json:"eliminations,omitempty"`
}

// HasWinner reports whether a winner was declared.
func (r Result) HasWinner() bool { return r.Winner != "" }

// Conduct runs the named method over the ballot set. Unknown methods are a
// validation error; every known method succeeds even on empty input.
func Conduct(method Method, options []string, ballots Ballots) (Result, error) {
	switch method {
	case MethodMajority:
		return Majority(options, ballots.Choices), nil
	case MethodWeighted:
		return Weighted(options, ballots.Choices, ballots.Weights), nil
	case MethodConsensus:
		return Consensus(options, ballots.Scores), nil
	case MethodRanked:
		return RankedChoice(options, ballots.Rankings), nil
	default:
		return Result{}, errors.NewValidationError("unknown voting method: " + string(method)).WithField("method")
	}
}

// Methods returns the supported method names.
func Methods() []Method {
	return []Method{MethodMajority, MethodWeighted, MethodConsensus, MethodRanked}
}

// Majority counts first choices per option. The winner is the option with the
// highest count; its percentage is computed against all cast ballots,
// including ballots discarded for naming an unknown option.
func Majority(options []string, votes map[string]string) Result {
	counts := make(map[string]int)
	valid := optionSet(options)
	for _, choice := range votes {
		if _, ok := valid[choice]; ok {
			counts[choice]++
		}
	}

	res := Result{Method: MethodMajority, Counts: counts}
	if len(votes) == 0 || len(counts) == 0 {
		return res
	}

	res.Winner = maxByCount(counts)
	res.Percentage = float64(counts[res.Winner]) / float64(len(votes)) * 100
	return res
}

// Weighted sums each voter's weight behind their choice. Voters without a
// configured weight count as 1.0. The percentage is computed against the
// total weight of voters who cast a valid ballot. With no weights configured
// at all it degrades to a plain majority vote.
func Weighted(options []string, votes map[string]string, weights map[string]float64) Result {
	if len(weights) == 0 {
		return Majority(options, votes)
	}

	scores := make(map[string]float64)
	valid := optionSet(options)
	totalWeight := 0.0
	for voter, choice := range votes {
		w, ok := weights[voter]
		if !ok {
			w = 1.0
		}
		if _, known := valid[choice]; known {
			scores[choice] += w
			totalWeight += w
		}
	}

	res := Result{Method: MethodWeighted, Scores: scores, TotalWeight: totalWeight}
	if len(scores) == 0 || totalWeight == 0 {
		return res
	}

	res.Winner = maxByScore(scores)
	res.Percentage = scores[res.Winner] / totalWeight * 100
	return res
}

// Consensus evaluates per-option score agreement at the default threshold.
func Consensus(options []string, votes map[string]map[string]float64) Result {
	return ConsensusAt(options, votes, DefaultConsensusThreshold)
}

// ConsensusAt evaluates per-option score agreement. Each option's consensus
// level is 1 minus the population standard deviation of its scores, clamped
// at zero. The best candidate maximizes (consensus level, mean score), but is
// declared the winner only when its consensus level reaches the threshold.
func ConsensusAt(options []string, votes map[string]map[string]float64, threshold float64) Result {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultConsensusThreshold
	}
	valid := optionSet(options)
	perOption := make(map[string][]float64)
	for _, scores := range votes {
		for option, score := range scores {
			if _, ok := valid[option]; ok {
				perOption[option] = append(perOption[option], score)
			}
		}
	}

	res := Result{
		Method:    MethodConsensus,
		Threshold: threshold,
		Consensus: make(map[string]OptionConsensus, len(perOption)),
	}

	best := ""
	for _, option := range sortedKeys(perOption) {
		scores := perOption[option]
		mean := meanOf(scores)
		level := 1 - stddevOf(scores, mean)
		if level < 0 {
			level = 0
		}
		res.Consensus[option] = OptionConsensus{
			AverageScore:   mean,
			ConsensusLevel: level,
			IsConsensus:    level >= res.Threshold,
		}
		if best == "" || better(res.Consensus[option], res.Consensus[best]) {
			best = option
		}
	}

	if best != "" && res.Consensus[best].IsConsensus {
		res.Winner = best
	}
	return res
}

// better orders consensus outcomes by level, then mean score.
func better(a, b OptionConsensus) bool {
	if a.ConsensusLevel != b.ConsensusLevel {
		return a.ConsensusLevel > b.ConsensusLevel
	}
	return a.AverageScore > b.AverageScore
}

// RankedChoice runs an instant runoff. Each round tallies every remaining
// voter's highest-ranked option still in contention; an option holding a
// strict majority wins immediately, otherwise the option with the fewest
// tallies is eliminated (lexicographic tie-break) and the round is recorded.
func RankedChoice(options []string, votes map[string][]string) Result {
	remaining := optionSet(options)
	res := Result{Method: MethodRanked, FinalRound: 1}

	for len(remaining) > 1 {
		tallies := make(map[string]int, len(remaining))
		for option := range remaining {
			tallies[option] = 0
		}
		total := 0
		for _, ranking := range votes {
			for _, choice := range ranking {
				if _, ok := remaining[choice]; ok {
					tallies[choice]++
					total++
					break
				}
			}
		}
		if total == 0 {
			return res
		}

		for option, count := range tallies {
			if count*2 > total {
				res.Winner = option
				res.Percentage = float64(count) / float64(total) * 100
				return res
			}
		}

		loser := minByCount(tallies)
		res.Eliminations = append(res.Eliminations, Elimination{
			Round:      res.FinalRound,
			Eliminated: loser,
			Votes:      tallies[loser],
		})
		delete(remaining, loser)
		res.FinalRound++
	}

	if len(remaining) == 1 && len(votes) > 0 {
		for option := range remaining {
			res.Winner = option
		}
	}
	return res
}

func optionSet(options []string) map[string]struct{} {
	set := make(map[string]struct{}, len(options))
	for _, o := range options {
		set[o] = struct{}{}
	}
	return set
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddevOf is the population standard deviation.
func stddevOf(xs []float64, mean float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	variance := 0.0
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	return math.Sqrt(variance / float64(len(xs)))
}

// maxByCount returns the highest-count key, breaking ties lexicographically
// so repeated counts are deterministic.
func maxByCount(counts map[string]int) string {
	best := ""
	for option, count := range counts {
		if best == "" || count > counts[best] || (count == counts[best] && option < best) {
			best = option
		}
	}
	return best
}

func maxByScore(scores map[string]float64) string {
	best := ""
	for option, score := range scores {
		if best == "" || score > scores[best] || (score == scores[best] && option < best) {
			best = option
		}
	}
	return best
}

func minByCount(counts map[string]int) string {
	worst := ""
	for option, count := range counts {
		if worst == "" || count < counts[worst] || (count == counts[worst] && option < worst) {
			worst = option
		}
	}
	return worst
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
