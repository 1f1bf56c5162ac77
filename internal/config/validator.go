package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "bus.queue_size")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateBus()...)
	errors = append(errors, c.validateCorrelator()...)
	errors = append(errors, c.validateDebate()...)
	errors = append(errors, c.validateHub()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateBus validates the BusConfig
func (c *Config) validateBus() []ValidationError {
	var errors []ValidationError

	if c.Bus.Strategy != "" && !slices.Contains(ValidStrategies(), c.Bus.Strategy) {
		errors = append(errors, ValidationError{
			Field:   "bus.strategy",
			Value:   c.Bus.Strategy,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidStrategies(), ", ")),
		})
	}

	const minQueueSize = 1
	const maxQueueSize = 1_000_000
	if c.Bus.QueueSize < minQueueSize {
		errors = append(errors, ValidationError{
			Field:   "bus.queue_size",
			Value:   c.Bus.QueueSize,
			Message: fmt.Sprintf("must be at least %d", minQueueSize),
		})
	}
	if c.Bus.QueueSize > maxQueueSize {
		errors = append(errors, ValidationError{
			Field:   "bus.queue_size",
			Value:   c.Bus.QueueSize,
			Message: fmt.Sprintf("exceeds maximum of %d", maxQueueSize),
		})
	}

	if c.Bus.HistoryLimit < 0 {
		errors = append(errors, ValidationError{
			Field:   "bus.history_limit",
			Value:   c.Bus.HistoryLimit,
			Message: "must be non-negative (0 disables history)",
		})
	}

	return errors
}

// validateCorrelator validates the CorrelatorConfig
func (c *Config) validateCorrelator() []ValidationError {
	var errors []ValidationError

	if c.Correlator.RequestTimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "correlator.request_timeout_seconds",
			Value:   c.Correlator.RequestTimeoutSeconds,
			Message: "must be positive",
		})
	}

	if c.Correlator.AuditLimit < 0 {
		errors = append(errors, ValidationError{
			Field:   "correlator.audit_limit",
			Value:   c.Correlator.AuditLimit,
			Message: "must be non-negative (0 disables the audit trail)",
		})
	}

	return errors
}

// validateDebate validates the DebateConfig
func (c *Config) validateDebate() []ValidationError {
	var errors []ValidationError

	const minRounds = 1
	const maxRounds = 20
	if c.Debate.MaxRounds < minRounds {
		errors = append(errors, ValidationError{
			Field:   "debate.max_rounds",
			Value:   c.Debate.MaxRounds,
			Message: fmt.Sprintf("must be at least %d", minRounds),
		})
	}
	if c.Debate.MaxRounds > maxRounds {
		errors = append(errors, ValidationError{
			Field:   "debate.max_rounds",
			Value:   c.Debate.MaxRounds,
			Message: fmt.Sprintf("exceeds maximum of %d", maxRounds),
		})
	}

	if c.Debate.MinParticipants < 2 {
		errors = append(errors, ValidationError{
			Field:   "debate.min_participants",
			Value:   c.Debate.MinParticipants,
			Message: "a debate needs at least 2 participants",
		})
	}
	if c.Debate.MaxParticipants < c.Debate.MinParticipants {
		errors = append(errors, ValidationError{
			Field:   "debate.max_participants",
			Value:   c.Debate.MaxParticipants,
			Message: fmt.Sprintf("must be at least min_participants (%d)", c.Debate.MinParticipants),
		})
	}

	if c.Debate.ConsensusThreshold <= 0 || c.Debate.ConsensusThreshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "debate.consensus_threshold",
			Value:   c.Debate.ConsensusThreshold,
			Message: "must be in (0, 1]",
		})
	}

	if c.Debate.VotingMethod != "" && !slices.Contains(ValidVotingMethods(), c.Debate.VotingMethod) {
		errors = append(errors, ValidationError{
			Field:   "debate.voting_method",
			Value:   c.Debate.VotingMethod,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidVotingMethods(), ", ")),
		})
	}

	return errors
}

// validateHub validates the HubConfig
func (c *Config) validateHub() []ValidationError {
	var errors []ValidationError

	if c.Hub.Caller == "" {
		errors = append(errors, ValidationError{
			Field:   "hub.caller",
			Value:   c.Hub.Caller,
			Message: "cannot be empty",
		})
	}

	const minDriveMs = 1
	const maxDriveMs = 10_000
	if c.Hub.DriveIntervalMs < minDriveMs {
		errors = append(errors, ValidationError{
			Field:   "hub.drive_interval_ms",
			Value:   c.Hub.DriveIntervalMs,
			Message: fmt.Sprintf("must be at least %dms", minDriveMs),
		})
	}
	if c.Hub.DriveIntervalMs > maxDriveMs {
		errors = append(errors, ValidationError{
			Field:   "hub.drive_interval_ms",
			Value:   c.Hub.DriveIntervalMs,
			Message: fmt.Sprintf("exceeds maximum of %dms", maxDriveMs),
		})
	}

	if c.Hub.CleanupIntervalMinutes <= 0 {
		errors = append(errors, ValidationError{
			Field:   "hub.cleanup_interval_minutes",
			Value:   c.Hub.CleanupIntervalMinutes,
			Message: "must be positive",
		})
	}
	if c.Hub.DebateMaxAgeHours <= 0 {
		errors = append(errors, ValidationError{
			Field:   "hub.debate_max_age_hours",
			Value:   c.Hub.DebateMaxAgeHours,
			Message: "must be positive",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.Dir != "" && strings.ContainsRune(c.Logging.Dir, '\x00') {
		errors = append(errors, ValidationError{
			Field:   "logging.dir",
			Value:   c.Logging.Dir,
			Message: "path contains invalid null character",
		})
	}

	return errors
}
