package cmd

import (
	"fmt"

	"github.com/openagora/agora/internal/bus"
	"github.com/openagora/agora/internal/config"
	"github.com/openagora/agora/internal/coordination"
	"github.com/openagora/agora/internal/logging"
	"github.com/openagora/agora/internal/voting"
	"github.com/openagora/agora/internal/worker"
)

// newLogger builds the logger the configuration asks for.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
}

// buildHub assembles a hub from configuration and registers its workers.
func buildHub(cfg *config.Config, logger *logging.Logger) (*coordination.Hub, error) {
	opts := []coordination.Option{
		coordination.WithCaller(cfg.Hub.Caller),
		coordination.WithRequestTimeout(cfg.Correlator.RequestTimeout()),
		coordination.WithDriveInterval(cfg.Hub.DriveInterval()),
		coordination.WithCleanupInterval(cfg.Hub.CleanupInterval()),
		coordination.WithDebateMaxAge(cfg.Hub.DebateMaxAge()),
		coordination.WithRoundCap(cfg.Debate.MaxRounds),
		coordination.WithHistoryLimit(cfg.Bus.HistoryLimit),
		coordination.WithVotingMethod(voting.Method(cfg.Debate.VotingMethod)),
	}
	if cfg.Bus.Strategy == "queued" {
		opts = append(opts, coordination.WithStrategy(bus.NewQueuedStrategy(cfg.Bus.QueueSize)))
	}

	hub, err := coordination.NewHub(coordination.Config{Logger: logger}, opts...)
	if err != nil {
		return nil, fmt.Errorf("building hub: %w", err)
	}

	for _, rw := range rosterWorkers(cfg) {
		hub.RegisterWorker(worker.New(rw.Name, rw.Specialty), rw.Tags...)
	}
	return hub, nil
}

// rosterWorkers resolves the worker roster: the configured roster file if one
// is set, otherwise a stock trio so ask and debate work out of the box.
func rosterWorkers(cfg *config.Config) []config.RosterWorker {
	if path := cfg.Roster.ResolveRosterFile(); path != "" {
		roster, err := config.LoadRoster(path)
		if err == nil {
			return roster.Workers
		}
		fmt.Printf("warning: %v, falling back to the stock roster\n", err)
	}
	return []config.RosterWorker{
		{Name: "Builder", Specialty: "implementation pragmatics"},
		{Name: "Critic", Specialty: "risk analysis"},
		{Name: "Advocate", Specialty: "product strategy"},
	}
}
