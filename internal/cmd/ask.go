package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/openagora/agora/internal/config"
	"github.com/openagora/agora/internal/envelope"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Submit a request and wait for the agents' answer",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

var askTimeout time.Duration

func init() {
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 0, "How long to wait for an answer (default from config)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	reply, err := hub.Ask(context.Background(), args[0], askTimeout)
	if err != nil {
		return fmt.Errorf("asking: %w", err)
	}

	fmt.Println()
	if reply.Type == envelope.TypeError {
		fmt.Println(errorStyle.Render("ERROR"))
		fmt.Println(reply.String("error"))
		return nil
	}
	fmt.Println(titleStyle.Render("ANSWER"))
	fmt.Println(divider())
	fmt.Println(reply.String("answer"))
	fmt.Println()
	fmt.Printf("%s %s\n", labelStyle.Render("answered by:"), reply.Sender)
	if showStats {
		printStats(hub)
	}
	return nil
}
