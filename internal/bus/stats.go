package bus

import "github.com/openagora/agora/internal/agent"

// Stats is a point-in-time snapshot of bus activity. The counters are
// monotonic for the lifetime of the bus; sizes reflect current state.
type Stats struct {
	Sent        int64 `json:"sent"`
	Delivered   int64 `json:"delivered"`
	Failed      int64 `json:"failed"`
	Agents      int   `json:"agents"`
	QueueDepth  int   `json:"queue_depth"`
	HistorySize int   `json:"history_size"`
}

// Stats returns a snapshot of the bus counters and sizes.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	agents := len(b.agents)
	history := len(b.history)
	b.mu.RUnlock()

	return Stats{
		Sent:        b.sent.Load(),
		Delivered:   b.delivered.Load(),
		Failed:      b.failed.Load(),
		Agents:      agents,
		QueueDepth:  b.strategy.QueueDepth(),
		HistorySize: history,
	}
}

// AgentStatuses returns a status snapshot for every registered agent that
// exposes one, keyed by agent name.
func (b *Bus) AgentStatuses() map[string]agent.Status {
	b.mu.RLock()
	defer b.mu.RUnlock()

	statuses := make(map[string]agent.Status, len(b.agents))
	for name, a := range b.agents {
		if s, ok := a.(interface{ Status() agent.Status }); ok {
			statuses[name] = s.Status()
		}
	}
	return statuses
}
