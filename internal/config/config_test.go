package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Fatalf("default config invalid: %v", ValidationErrors(errs))
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown strategy", func(c *Config) { c.Bus.Strategy = "telepathy" }, "bus.strategy"},
		{"zero queue size", func(c *Config) { c.Bus.QueueSize = 0 }, "bus.queue_size"},
		{"negative history", func(c *Config) { c.Bus.HistoryLimit = -1 }, "bus.history_limit"},
		{"zero request timeout", func(c *Config) { c.Correlator.RequestTimeoutSeconds = 0 }, "correlator.request_timeout_seconds"},
		{"one participant minimum", func(c *Config) { c.Debate.MinParticipants = 1 }, "debate.min_participants"},
		{"max below min participants", func(c *Config) { c.Debate.MaxParticipants = 1 }, "debate.max_participants"},
		{"threshold above one", func(c *Config) { c.Debate.ConsensusThreshold = 1.5 }, "debate.consensus_threshold"},
		{"unknown voting method", func(c *Config) { c.Debate.VotingMethod = "coin_flip" }, "debate.voting_method"},
		{"empty caller", func(c *Config) { c.Hub.Caller = "" }, "hub.caller"},
		{"zero drive interval", func(c *Config) { c.Hub.DriveIntervalMs = 0 }, "hub.drive_interval_ms"},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			if len(errs) == 0 {
				t.Fatal("expected a validation error, got none")
			}
			found := false
			for _, e := range errs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("errors %v do not mention field %s", errs, tt.field)
			}
		})
	}
}

func TestValidationErrorsFormatting(t *testing.T) {
	errs := ValidationErrors{
		{Field: "bus.strategy", Value: "x", Message: "bad"},
		{Field: "hub.caller", Value: "", Message: "empty"},
	}
	msg := errs.Error()
	if !strings.Contains(msg, "2 validation errors") {
		t.Errorf("message %q does not count the errors", msg)
	}
	if !strings.Contains(msg, "bus.strategy") || !strings.Contains(msg, "hub.caller") {
		t.Errorf("message %q does not name both fields", msg)
	}

	one := ValidationErrors{errs[0]}
	if got := one.Error(); strings.Contains(got, "validation errors") {
		t.Errorf("single error %q should not use the plural form", got)
	}
}

func TestHubDurationHelpers(t *testing.T) {
	h := HubConfig{DriveIntervalMs: 25, CleanupIntervalMinutes: 2, DebateMaxAgeHours: 24}
	if got := h.DriveInterval(); got != 25*time.Millisecond {
		t.Errorf("DriveInterval = %v", got)
	}
	if got := h.CleanupInterval(); got != 2*time.Minute {
		t.Errorf("CleanupInterval = %v", got)
	}
	if got := h.DebateMaxAge(); got != 24*time.Hour {
		t.Errorf("DebateMaxAge = %v", got)
	}
}

func TestResolveRosterFile(t *testing.T) {
	r := RosterConfig{}
	if got := r.ResolveRosterFile(); got != "" {
		t.Errorf("empty roster resolved to %q", got)
	}

	r.File = "/etc/agora/roster.yaml"
	if got := r.ResolveRosterFile(); got != "/etc/agora/roster.yaml" {
		t.Errorf("absolute path resolved to %q", got)
	}

	r.File = "~/roster.yaml"
	got := r.ResolveRosterFile()
	if strings.HasPrefix(got, "~") {
		t.Errorf("tilde not expanded: %q", got)
	}
	if !strings.HasSuffix(got, "roster.yaml") {
		t.Errorf("resolved path %q lost the file name", got)
	}
}
