// Package agent defines the contract every bus participant implements and a
// reusable base carrying the queues and bookkeeping the bus relies on.
package agent

import (
	"sync"
	"time"

	"github.com/openagora/agora/internal/dedup"
	"github.com/openagora/agora/internal/envelope"
)

// State describes an agent's lifecycle state.
type State string

const (
	// StateIdle means the agent is registered but not processing.
	StateIdle State = "idle"
	// StateActive means the agent is currently processing an envelope.
	StateActive State = "active"
)

// Agent is the capability every participant exposes to the bus: a stable
// identity and a process function. Process returns the reply envelope to
// publish, or nil for "no reply". A returned error is converted by the
// driving loop into an ERROR envelope addressed back to the original sender;
// it never propagates into bus internals.
type Agent interface {
	Name() string
	Role() string
	Process(env envelope.Envelope) (*envelope.Envelope, error)
}

// Thinker is an optional capability for agents backed by an external
// reasoning service. The result shape is opaque to the core.
type Thinker interface {
	Think(context map[string]any) (map[string]any, error)
}

// Mailbox is the queue surface the bus drives. Base satisfies it; custom
// agents that do not embed Base must provide their own implementation.
type Mailbox interface {
	// Receive appends an envelope to the inbound queue. It reports false
	// when the envelope was dropped as a duplicate.
	Receive(env envelope.Envelope) bool
	// DrainInbound removes and returns all queued inbound envelopes in
	// FIFO order.
	DrainInbound() []envelope.Envelope
	// DrainOutbound removes and returns all queued outbound envelopes in
	// FIFO order.
	DrainOutbound() []envelope.Envelope
}

// Base carries the state shared by all agents: identity, FIFO inbound and
// outbound queues, lifecycle state, and a bounded idempotency cache that
// drops envelopes the agent has already seen.
type Base struct {
	name      string
	role      string
	createdAt time.Time

	mu       sync.Mutex
	inbound  []envelope.Envelope
	outbound []envelope.Envelope
	state    State
	seen     *dedup.Cache
	dropped  int
}

// NewBase creates a Base with the given identity and a default-sized
// idempotency cache.
func NewBase(name, role string) *Base {
	return &Base{
		name:      name,
		role:      role,
		createdAt: time.Now(),
		state:     StateIdle,
		seen:      dedup.NewCache(dedup.DefaultCapacity),
	}
}

// Name returns the agent's unique name.
func (b *Base) Name() string { return b.name }

// Role returns the agent's declared role.
func (b *Base) Role() string { return b.role }

// SetSeenCapacity replaces the idempotency cache with one of the given
// capacity. Intended for construction time, before the agent is registered.
func (b *Base) SetSeenCapacity(capacity int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seen = dedup.NewCache(capacity)
}

// Receive appends an envelope to the inbound queue. Envelopes whose
// (sender, type, content) tuple was already seen are dropped and counted.
func (b *Base) Receive(env envelope.Envelope) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.seen.Seen(env.Sender, string(env.Type), env.Content) {
		b.dropped++
		return false
	}
	b.inbound = append(b.inbound, env)
	return true
}

// Send appends an envelope to the outbound queue for the next drain pass.
func (b *Base) Send(env envelope.Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outbound = append(b.outbound, env)
}

// DrainInbound removes and returns all queued inbound envelopes.
func (b *Base) DrainInbound() []envelope.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.inbound
	b.inbound = nil
	return out
}

// DrainOutbound removes and returns all queued outbound envelopes.
func (b *Base) DrainOutbound() []envelope.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.outbound
	b.outbound = nil
	return out
}

// State returns the agent's current lifecycle state.
func (b *Base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// SetState updates the agent's lifecycle state.
func (b *Base) SetState(s State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = s
}

// Status summarizes the agent's queues for monitoring.
type Status struct {
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	State        State     `json:"state"`
	InboundSize  int       `json:"inbound_size"`
	OutboundSize int       `json:"outbound_size"`
	Dropped      int       `json:"dropped"`
	CreatedAt    time.Time `json:"created_at"`
}

// Status returns a snapshot of the agent's queue depths and state.
func (b *Base) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Status{
		Name:         b.name,
		Role:         b.role,
		State:        b.state,
		InboundSize:  len(b.inbound),
		OutboundSize: len(b.outbound),
		Dropped:      b.dropped,
		CreatedAt:    b.createdAt,
	}
}

// HandleDefault implements the fallback processing shared by simple agents:
// PING is answered with PONG, REQUEST with a not_implemented RESPONSE, and
// everything else is ignored.
func (b *Base) HandleDefault(env envelope.Envelope) *envelope.Envelope {
	switch env.Type {
	case envelope.TypePing:
		reply := envelope.New(b.name, env.Sender, envelope.TypePong, map[string]any{
			"status": "alive",
			"state":  string(b.State()),
		})
		return &reply
	case envelope.TypeRequest, envelope.TypeTaskAssignment:
		reply := envelope.New(b.name, env.Sender, envelope.TypeResponse, map[string]any{
			"status": "not_implemented",
		}).WithThread(env.ThreadID)
		return &reply
	default:
		return nil
	}
}
