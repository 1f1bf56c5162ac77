package coordination

import (
	"time"

	"github.com/openagora/agora/internal/bus"
	"github.com/openagora/agora/internal/debate"
	"github.com/openagora/agora/internal/voting"
)

// hubConfig holds optional configuration for a Hub.
type hubConfig struct {
	strategy        bus.Strategy
	analyzer        debate.Analyzer
	votingMethod    voting.Method
	roundCap        int
	historyLimit    int
	caller          string
	requestTimeout  time.Duration
	driveInterval   time.Duration
	cleanupInterval time.Duration
	debateMaxAge    time.Duration
}

func defaultHubConfig() *hubConfig {
	return &hubConfig{
		historyLimit:    -1,
		caller:          "User",
		requestTimeout:  30 * time.Second,
		driveInterval:   25 * time.Millisecond,
		cleanupInterval: time.Minute,
		debateMaxAge:    24 * time.Hour,
	}
}

// Option configures a Hub.
type Option func(*hubConfig)

// WithStrategy sets the bus delivery strategy. If nil, the bus default
// (immediate) is used.
func WithStrategy(s bus.Strategy) Option {
	return func(c *hubConfig) { c.strategy = s }
}

// WithAnalyzer sets the debate round analyzer.
func WithAnalyzer(a debate.Analyzer) Option {
	return func(c *hubConfig) { c.analyzer = a }
}

// WithRoundCap sets the hard cap on debate rounds.
func WithRoundCap(n int) Option {
	return func(c *hubConfig) { c.roundCap = n }
}

// WithVotingMethod selects how split debates are settled.
func WithVotingMethod(method voting.Method) Option {
	return func(c *hubConfig) { c.votingMethod = method }
}

// WithHistoryLimit bounds the bus's trailing delivery history. Zero disables
// it; negative values keep the bus default.
func WithHistoryLimit(n int) Option {
	return func(c *hubConfig) { c.historyLimit = n }
}

// WithCaller sets the external caller name used for request/response traffic.
func WithCaller(name string) Option {
	return func(c *hubConfig) {
		if name != "" {
			c.caller = name
		}
	}
}

// WithRequestTimeout sets the default timeout for Ask and Debate.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *hubConfig) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithDriveInterval sets how often the hub's loop drains agent queues.
func WithDriveInterval(d time.Duration) Option {
	return func(c *hubConfig) {
		if d > 0 {
			c.driveInterval = d
		}
	}
}

// WithCleanupInterval sets how often stale debates are swept.
func WithCleanupInterval(d time.Duration) Option {
	return func(c *hubConfig) {
		if d > 0 {
			c.cleanupInterval = d
		}
	}
}

// WithDebateMaxAge sets the age past which an unconcluded debate is
// abandoned.
func WithDebateMaxAge(d time.Duration) Option {
	return func(c *hubConfig) {
		if d > 0 {
			c.debateMaxAge = d
		}
	}
}
