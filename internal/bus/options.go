package bus

import "github.com/openagora/agora/internal/logging"

// Option configures a Bus at construction.
type Option func(*Bus)

// WithStrategy selects the delivery strategy. The default is immediate.
func WithStrategy(s Strategy) Option {
	return func(b *Bus) { b.strategy = s }
}

// WithLogger sets the bus logger.
func WithLogger(l *logging.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithCoordinator sets the agent name that receives unaddressed REQUESTs.
func WithCoordinator(name string) Option {
	return func(b *Bus) { b.coordinator = name }
}

// WithCaller sets the sender name that identifies the external caller.
// RESPONSE and ERROR envelopes addressed to it terminate at the response sink.
func WithCaller(name string) Option {
	return func(b *Bus) { b.caller = name }
}

// WithResponseSink connects the request correlator to the delivery path.
func WithResponseSink(sink ResponseSink) Option {
	return func(b *Bus) { b.sink = sink }
}

// WithHistoryLimit bounds the trailing delivery history. Zero disables it;
// negative values keep the default.
func WithHistoryLimit(n int) Option {
	return func(b *Bus) {
		if n >= 0 {
			b.historyCap = n
		}
	}
}
