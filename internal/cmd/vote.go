package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/openagora/agora/internal/config"
	"github.com/openagora/agora/internal/voting"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var voteCmd = &cobra.Command{
	Use:   "vote [ballots.yaml]",
	Short: "Conduct a standalone vote over a YAML ballot file",
	Long: `Run a vote without starting any agents. The ballot file declares the
options and the voter input:

  options: [adopt, reject]
  choices:
    alice: adopt
    bob: reject
  weights:          # weighted only
    alice: 2.0
  scores:           # consensus only
    alice: {adopt: 0.9, reject: 0.2}
  rankings:         # ranked only
    alice: [adopt, reject]`,
	Args: cobra.ExactArgs(1),
	RunE: runVote,
}

var (
	voteMethod    string
	voteThreshold float64
)

func init() {
	voteCmd.Flags().StringVarP(&voteMethod, "method", "m", "", "Voting method (default from config)")
	voteCmd.Flags().Float64Var(&voteThreshold, "threshold", 0, "Consensus threshold in (0, 1] (default from config)")
	rootCmd.AddCommand(voteCmd)
}

// ballotFile is the YAML shape of a standalone vote.
type ballotFile struct {
	Options  []string                      `yaml:"options"`
	Choices  map[string]string             `yaml:"choices"`
	Weights  map[string]float64            `yaml:"weights"`
	Scores   map[string]map[string]float64 `yaml:"scores"`
	Rankings map[string][]string           `yaml:"rankings"`
}

func runVote(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading ballots: %w", err)
	}
	var bf ballotFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return fmt.Errorf("parsing ballots: %w", err)
	}
	if len(bf.Options) == 0 {
		return fmt.Errorf("ballot file declares no options")
	}

	method := voting.Method(voteMethod)
	if method == "" {
		method = voting.Method(cfg.Debate.VotingMethod)
	}
	threshold := voteThreshold
	if threshold == 0 {
		threshold = cfg.Debate.ConsensusThreshold
	}

	ballots := voting.Ballots{
		Choices:  bf.Choices,
		Weights:  bf.Weights,
		Scores:   bf.Scores,
		Rankings: bf.Rankings,
	}

	var result voting.Result
	if method == voting.MethodConsensus {
		result = voting.ConsensusAt(bf.Options, bf.Scores, threshold)
	} else {
		result, err = voting.Conduct(method, bf.Options, ballots)
		if err != nil {
			return err
		}
	}

	printVoteResult(result)
	return nil
}

func printVoteResult(result voting.Result) {
	fmt.Println()
	fmt.Println(titleStyle.Render("VOTE RESULT"))
	fmt.Println(divider())
	fmt.Printf("%s %s\n", labelStyle.Render("method:"), string(result.Method))
	if result.HasWinner() {
		fmt.Printf("%s %s", labelStyle.Render("winner:"), winnerStyle.Render(result.Winner))
		if result.Percentage > 0 {
			fmt.Printf(" (%.1f%%)", result.Percentage)
		}
		fmt.Println()
	} else {
		fmt.Println("no winner declared")
	}

	if len(result.Counts) > 0 {
		options := make([]string, 0, len(result.Counts))
		for option := range result.Counts {
			options = append(options, option)
		}
		sort.Strings(options)
		for _, option := range options {
			fmt.Printf("  %s: %d\n", option, result.Counts[option])
		}
	}

	if len(result.Consensus) > 0 {
		fmt.Printf("%s %.2f\n", labelStyle.Render("threshold:"), result.Threshold)
		options := make([]string, 0, len(result.Consensus))
		for option := range result.Consensus {
			options = append(options, option)
		}
		sort.Strings(options)
		for _, option := range options {
			oc := result.Consensus[option]
			fmt.Printf("  %s: mean %.2f, agreement %.2f, consensus=%v\n",
				option, oc.AverageScore, oc.ConsensusLevel, oc.IsConsensus)
		}
	}

	for _, e := range result.Eliminations {
		fmt.Printf("  round %d: eliminated %s (%d votes)\n", e.Round, e.Eliminated, e.Votes)
	}
	fmt.Println()
}
