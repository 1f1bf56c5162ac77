package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/openagora/agora/internal/capability"
	"github.com/openagora/agora/internal/config"
	"github.com/openagora/agora/internal/voting"
	"github.com/spf13/cobra"
)

var debateCmd = &cobra.Command{
	Use:   "debate [topic]",
	Short: "Run a moderated debate among capable agents",
	Long: `Start a debate on the given topic, wait for the agents to argue it to a
conclusion, and print the synthesis. Participants are selected by capability
pattern; the default invites every debate-capable agent.`,
	Args: cobra.ExactArgs(1),
	RunE: runDebate,
}

var (
	debateQuestion     string
	debateParticipants []string
	debateTimeout      time.Duration
)

func init() {
	debateCmd.Flags().StringVarP(&debateQuestion, "question", "q", "", "The question the debate must answer (default: the topic)")
	debateCmd.Flags().StringSliceVarP(&debateParticipants, "participants", "p", []string{capability.TagDebate}, "Capability patterns selecting participants")
	debateCmd.Flags().DurationVar(&debateTimeout, "timeout", 0, "How long to wait for a conclusion (default from config)")
	rootCmd.AddCommand(debateCmd)
}

func runDebate(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	hub, err := buildHub(cfg, logger)
	if err != nil {
		return err
	}
	if err := hub.Start(context.Background()); err != nil {
		return err
	}
	defer func() { _ = hub.Stop() }()

	topic := args[0]
	question := debateQuestion
	if question == "" {
		question = topic
	}

	result, err := hub.Debate(topic, question, debateParticipants, debateTimeout)
	if err != nil {
		return fmt.Errorf("debating: %w", err)
	}

	fmt.Println()
	fmt.Println(titleStyle.Render("DEBATE CONCLUDED"))
	fmt.Println(divider())
	fmt.Printf("%s %s\n", labelStyle.Render("topic:"), result.String("topic"))
	fmt.Printf("%s %s\n", labelStyle.Render("question:"), result.String("question"))
	if rounds, ok := result.Content["rounds"].(int); ok {
		fmt.Printf("%s %d\n", labelStyle.Render("rounds:"), rounds)
	}
	if participants, ok := result.Content["participants"].([]string); ok {
		fmt.Printf("%s %v\n", labelStyle.Render("participants:"), participants)
	}
	fmt.Println()
	fmt.Println(result.String("synthesis"))

	if vote, ok := result.Content["vote"].(*voting.Result); ok && vote != nil {
		fmt.Println()
		fmt.Println(titleStyle.Render("VOTE"))
		fmt.Println(divider())
		fmt.Printf("%s %s\n", labelStyle.Render("method:"), string(vote.Method))
		if vote.HasWinner() {
			fmt.Printf("%s %s", labelStyle.Render("winner:"), winnerStyle.Render(vote.Winner))
			if vote.Percentage > 0 {
				fmt.Printf(" (%.1f%%)", vote.Percentage)
			}
			fmt.Println()
		} else {
			fmt.Println("no winner declared")
		}
		for option, count := range vote.Counts {
			fmt.Printf("  %s: %d\n", option, count)
		}
	}

	fmt.Println()
	if showStats {
		printStats(hub)
	}
	return nil
}
