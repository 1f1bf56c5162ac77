package debate

import (
	"sync"
	"time"

	"github.com/openagora/agora/internal/agent"
	"github.com/openagora/agora/internal/bus"
	"github.com/openagora/agora/internal/capability"
	"github.com/openagora/agora/internal/envelope"
	"github.com/openagora/agora/internal/errors"
	"github.com/openagora/agora/internal/logging"
)

// ManagerName is the bus name the manager registers under.
const ManagerName = DefaultOwner

// maxSelected caps how many participants a single debate invites even when
// more candidates qualify.
const maxSelected = 5

// resultsCap bounds the trail of recorded conclusions.
const resultsCap = 200

// Info is the manager's bookkeeping for one debate.
type Info struct {
	Topic        string
	Question     string
	Participants []string
	StartedAt    time.Time
	Status       Status
	ConcludedAt  time.Time
}

// Manager is the entry point for debates: it selects participants from the
// capability registry, delegates protocol handling to the Moderator, and
// forwards each conclusion to the coordinator as a DEBATE_RESULT.
type Manager struct {
	*agent.Base

	bus       *bus.Bus
	moderator *Moderator
	caps      *capability.Registry
	logger    *logging.Logger
	forwardTo string

	mu          sync.Mutex
	active      map[string]*Info
	results     map[string]envelope.Envelope
	resultOrder []string
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the manager's logger.
func WithManagerLogger(l *logging.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l.WithAgent(ManagerName)
		}
	}
}

// WithForwardTo sets the agent that receives DEBATE_RESULT envelopes.
func WithForwardTo(name string) ManagerOption {
	return func(m *Manager) { m.forwardTo = name }
}

// NewManager creates a Manager, registers it and its Moderator on the bus,
// and wires the conclusion subscriptions.
func NewManager(b *bus.Bus, moderator *Moderator, caps *capability.Registry, opts ...ManagerOption) *Manager {
	m := &Manager{
		Base:      agent.NewBase(ManagerName, "debate manager"),
		bus:       b,
		moderator: moderator,
		caps:      caps,
		logger:    logging.NopLogger(),
		forwardTo: "Coordinator",
		active:    make(map[string]*Info),
		results:   make(map[string]envelope.Envelope),
	}
	for _, opt := range opts {
		opt(m)
	}

	b.Register(moderator)
	b.Register(m)
	b.Subscribe(moderator.Name(), envelope.TypeArgumentSubmission)
	b.Subscribe(m.Name(), envelope.TypeDebateConclusion)
	return m
}

// Process handles DEBATE_CONCLUSION envelopes; everything else falls through
// to the default agent behavior.
func (m *Manager) Process(env envelope.Envelope) (*envelope.Envelope, error) {
	if env.Type != envelope.TypeDebateConclusion {
		return m.HandleDefault(env), nil
	}
	m.handleConclusion(env)
	return nil, nil
}

// InitiateDebate selects participants matching the requested capability
// patterns and starts a debate among them. Returns the debate id.
func (m *Manager) InitiateDebate(topic, question string, participantTypes []string) (string, error) {
	participants := m.SelectParticipants(participantTypes)
	if len(participants) < m.moderator.minParticipants {
		return "", errors.Wrapf(errors.ErrNotEnoughParticipants,
			"found %d debate-capable agents for %v", len(participants), participantTypes)
	}

	id, err := m.moderator.CreateDebate(topic, question, participants)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.active[id] = &Info{
		Topic:        topic,
		Question:     question,
		Participants: participants,
		StartedAt:    time.Now(),
		Status:       StatusActive,
	}
	m.mu.Unlock()

	m.logger.Info("debate initiated", "debate_id", id, "topic", topic, "participants", participants)

	// Push the queued invitations through; in immediate mode the whole
	// debate may run to conclusion inside this call.
	m.bus.DrainAgents()
	return id, nil
}

// SelectParticipants resolves capability patterns to registered,
// debate-capable agents. The capability registry is authoritative; a pattern
// matching no declared tag falls back to the bus's substring lookup. Agents
// that do not implement Debater are skipped regardless of declared tags.
func (m *Manager) SelectParticipants(patterns []string) []string {
	seen := make(map[string]struct{})
	var selected []string

	consider := func(name string) {
		if name == "" || name == m.Name() || name == m.moderator.Name() {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		a, ok := m.bus.Agent(name)
		if !ok {
			return
		}
		if _, capable := a.(Debater); !capable {
			m.logger.Debug("candidate lacks debate capability", "agent", name)
			return
		}
		seen[name] = struct{}{}
		selected = append(selected, name)
	}

	for _, pattern := range patterns {
		matches := m.caps.Find(pattern)
		if len(matches) == 0 {
			if name := m.bus.FindSimilarAgent(pattern); name != "" {
				matches = []string{name}
			}
		}
		for _, name := range matches {
			consider(name)
		}
	}

	if len(selected) > maxSelected {
		selected = selected[:maxSelected]
	}
	return selected
}

// handleConclusion records the result and forwards it as a DEBATE_RESULT.
func (m *Manager) handleConclusion(env envelope.Envelope) {
	id := env.String("debate_id")
	if id == "" {
		m.logger.Warn("conclusion without debate_id", "sender", env.Sender)
		return
	}

	m.mu.Lock()
	if info, ok := m.active[id]; ok {
		info.Status = StatusClosed
		info.ConcludedAt = time.Now()
		delete(m.active, id)
	}
	m.results[id] = env
	m.resultOrder = append(m.resultOrder, id)
	if len(m.resultOrder) > resultsCap {
		drop := len(m.resultOrder) - resultsCap/2
		for _, old := range m.resultOrder[:drop] {
			delete(m.results, old)
		}
		m.resultOrder = append([]string(nil), m.resultOrder[drop:]...)
	}
	m.mu.Unlock()

	m.logger.Info("debate conclusion received", "debate_id", id)

	m.Send(envelope.New(m.Name(), m.forwardTo, envelope.TypeDebateResult, map[string]any{
		"debate_id": id,
		"result":    env.Content,
	}))
}

// Result returns the recorded conclusion for a debate.
func (m *Manager) Result(id string) (envelope.Envelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	env, ok := m.results[id]
	if !ok {
		return envelope.Envelope{}, errors.Wrapf(errors.ErrDebateNotFound, "result of %s", id)
	}
	return env, nil
}

// Active returns a snapshot of debates still in progress.
func (m *Manager) Active() map[string]Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Info, len(m.active))
	for id, info := range m.active {
		out[id] = *info
	}
	return out
}

// CleanupOld abandons debates older than maxAge. Abandonment is simply
// ceasing to track them; no envelopes are recalled.
func (m *Manager) CleanupOld(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var stale []string
	for id, info := range m.active {
		if info.StartedAt.Before(cutoff) {
			stale = append(stale, id)
			delete(m.active, id)
		}
	}
	m.mu.Unlock()

	m.moderator.Abandon(stale...)
	for _, id := range stale {
		m.logger.Info("stale debate abandoned", "debate_id", id)
	}
	return len(stale)
}
