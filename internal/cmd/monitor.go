package cmd

import (
	"context"

	"github.com/openagora/agora/internal/config"
	"github.com/openagora/agora/internal/tui"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch a live hub in a terminal UI",
	Long: `Start a hub with the configured roster and watch it in a terminal UI:
bus counters, per-agent queues, and the trailing delivery history.

Keys: a submits a demo request, d starts a demo debate, q quits.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
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

	return tui.Run(hub)
}
