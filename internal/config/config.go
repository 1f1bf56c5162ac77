package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/openagora/agora/internal/debate"
	"github.com/openagora/agora/internal/voting"
)

// Config represents the complete Agora configuration
type Config struct {
	Bus        BusConfig        `mapstructure:"bus"`
	Correlator CorrelatorConfig `mapstructure:"correlator"`
	Debate     DebateConfig     `mapstructure:"debate"`
	Hub        HubConfig        `mapstructure:"hub"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Roster     RosterConfig     `mapstructure:"roster"`
}

// BusConfig controls message delivery
type BusConfig struct {
	// Strategy selects the delivery strategy
	// Options: "immediate", "queued"
	Strategy string `mapstructure:"strategy"`
	// QueueSize is the buffered channel capacity in queued mode
	QueueSize int `mapstructure:"queue_size"`
	// HistoryLimit is the number of envelopes kept in the delivery history
	HistoryLimit int `mapstructure:"history_limit"`
}

// CorrelatorConfig controls request tracking
type CorrelatorConfig struct {
	// RequestTimeoutSeconds is the default per-request timeout (default: 30)
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
	// AuditLimit is the number of finished requests kept for inspection
	AuditLimit int `mapstructure:"audit_limit"`
}

// DebateConfig controls the debate protocol bounds
type DebateConfig struct {
	// MaxRounds is the hard cap on rounds per debate (min: 2, max: 7)
	MaxRounds int `mapstructure:"max_rounds"`
	// MinParticipants is the smallest viable roster (default: 2)
	MinParticipants int `mapstructure:"min_participants"`
	// MaxParticipants is the largest roster a debate invites (default: 7)
	MaxParticipants int `mapstructure:"max_participants"`
	// ConsensusThreshold is the agreement level consensus voting requires,
	// in (0, 1] (default: 0.7)
	ConsensusThreshold float64 `mapstructure:"consensus_threshold"`
	// VotingMethod is the method used when a debate goes to a vote
	// Options: "majority", "weighted", "consensus", "ranked"
	VotingMethod string `mapstructure:"voting_method"`
}

// HubConfig controls the hub's loop and identities
type HubConfig struct {
	// Caller is the name request/response traffic is attributed to
	Caller string `mapstructure:"caller"`
	// DriveIntervalMs is how often the loop drains agent queues (in milliseconds)
	DriveIntervalMs int `mapstructure:"drive_interval_ms"`
	// CleanupIntervalMinutes is how often stale debates are swept
	CleanupIntervalMinutes int `mapstructure:"cleanup_interval_minutes"`
	// DebateMaxAgeHours is the age past which an unconcluded debate is abandoned
	DebateMaxAgeHours int `mapstructure:"debate_max_age_hours"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is the directory the log file is written to; empty logs to stderr
	Dir string `mapstructure:"dir"`
}

// RosterConfig controls where stock workers are loaded from
type RosterConfig struct {
	// File is the path to a YAML roster of workers; empty means no roster file.
	// Supports ~ for home directory expansion.
	File string `mapstructure:"file"`
}

// DriveInterval returns the drive interval as a time.Duration
func (h *HubConfig) DriveInterval() time.Duration {
	return time.Duration(h.DriveIntervalMs) * time.Millisecond
}

// CleanupInterval returns the cleanup interval as a time.Duration
func (h *HubConfig) CleanupInterval() time.Duration {
	return time.Duration(h.CleanupIntervalMinutes) * time.Minute
}

// DebateMaxAge returns the stale-debate cutoff as a time.Duration
func (h *HubConfig) DebateMaxAge() time.Duration {
	return time.Duration(h.DebateMaxAgeHours) * time.Hour
}

// RequestTimeout returns the default request timeout as a time.Duration
func (c *CorrelatorConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ResolveRosterFile returns the roster path with ~ expanded. An empty
// configured path stays empty.
func (r *RosterConfig) ResolveRosterFile() string {
	path := r.File
	if path == "" {
		return ""
	}
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
	}
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Bus: BusConfig{
			Strategy:     "immediate",
			QueueSize:    1024,
			HistoryLimit: 1000,
		},
		Correlator: CorrelatorConfig{
			RequestTimeoutSeconds: 30,
			AuditLimit:            200,
		},
		Debate: DebateConfig{
			MaxRounds:          debate.DefaultMaxRounds,
			MinParticipants:    debate.DefaultMinParticipants,
			MaxParticipants:    debate.DefaultMaxParticipants,
			ConsensusThreshold: voting.DefaultConsensusThreshold,
			VotingMethod:       string(voting.MethodMajority),
		},
		Hub: HubConfig{
			Caller:                 "User",
			DriveIntervalMs:        25,
			CleanupIntervalMinutes: 1,
			DebateMaxAgeHours:      24,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
			Dir:     "",
		},
		Roster: RosterConfig{
			File: "",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Bus defaults
	viper.SetDefault("bus.strategy", defaults.Bus.Strategy)
	viper.SetDefault("bus.queue_size", defaults.Bus.QueueSize)
	viper.SetDefault("bus.history_limit", defaults.Bus.HistoryLimit)

	// Correlator defaults
	viper.SetDefault("correlator.request_timeout_seconds", defaults.Correlator.RequestTimeoutSeconds)
	viper.SetDefault("correlator.audit_limit", defaults.Correlator.AuditLimit)

	// Debate defaults
	viper.SetDefault("debate.max_rounds", defaults.Debate.MaxRounds)
	viper.SetDefault("debate.min_participants", defaults.Debate.MinParticipants)
	viper.SetDefault("debate.max_participants", defaults.Debate.MaxParticipants)
	viper.SetDefault("debate.consensus_threshold", defaults.Debate.ConsensusThreshold)
	viper.SetDefault("debate.voting_method", defaults.Debate.VotingMethod)

	// Hub defaults
	viper.SetDefault("hub.caller", defaults.Hub.Caller)
	viper.SetDefault("hub.drive_interval_ms", defaults.Hub.DriveIntervalMs)
	viper.SetDefault("hub.cleanup_interval_minutes", defaults.Hub.CleanupIntervalMinutes)
	viper.SetDefault("hub.debate_max_age_hours", defaults.Hub.DebateMaxAgeHours)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)

	// Roster defaults
	viper.SetDefault("roster.file", defaults.Roster.File)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "agora")
	}
	// Fall back to ~/.config/agora
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agora"
	}
	return filepath.Join(home, ".config", "agora")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidStrategies returns the list of valid bus strategy values
func ValidStrategies() []string {
	return []string{"immediate", "queued"}
}

// ValidVotingMethods returns the list of valid voting method values
func ValidVotingMethods() []string {
	methods := voting.Methods()
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = string(m)
	}
	return out
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}
