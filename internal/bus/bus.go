// Package bus implements the in-process router that delivers envelopes by
// direct address or type subscription. Scheduling is pluggable: a queued
// strategy with one consumer goroutine preserving publish order, or an
// immediate strategy that delivers synchronously within the caller's stack.
package bus

import (
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/openagora/agora/internal/agent"
	"github.com/openagora/agora/internal/envelope"
	"github.com/openagora/agora/internal/logging"
)

// defaultHistoryCap is the default bound on the trailing message history.
// A trim keeps the newest half.
const defaultHistoryCap = 1000

// Registrant is what the bus requires of a registered agent: identity,
// processing, and drivable queues.
type Registrant interface {
	agent.Agent
	agent.Mailbox
}

// Handler is a global per-type hook invoked after delivery.
type Handler func(env envelope.Envelope)

// ResponseSink receives RESPONSE and ERROR envelopes addressed to the
// external caller. The request correlator implements it.
type ResponseSink interface {
	RegisterResponse(env envelope.Envelope) bool
}

// Bus routes envelopes between registered agents. The registry and
// subscription table are owned exclusively by the bus; agents interact with
// them only through Register, Subscribe, and Publish.
type Bus struct {
	mu          sync.RWMutex
	agents      map[string]Registrant
	subscribers map[envelope.Type]map[string]struct{}
	handlers    map[envelope.Type][]Handler
	history     []envelope.Envelope
	historyCap  int

	strategy Strategy
	logger   *logging.Logger

	coordinator string
	caller      string
	sink        ResponseSink

	sent      atomic.Int64
	delivered atomic.Int64
	failed    atomic.Int64
}

// New creates a Bus. The default configuration uses the immediate strategy,
// routes unaddressed REQUESTs to "Coordinator", and treats "User" as the
// external caller.
func New(opts ...Option) *Bus {
	b := &Bus{
		agents:      make(map[string]Registrant),
		subscribers: make(map[envelope.Type]map[string]struct{}),
		handlers:    make(map[envelope.Type][]Handler),
		historyCap:  defaultHistoryCap,
		logger:      logging.NopLogger(),
		coordinator: "Coordinator",
		caller:      "User",
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.strategy == nil {
		b.strategy = NewImmediateStrategy()
	}
	b.strategy.attach(b)
	return b
}

// Register adds an agent to the registry. Registering an existing name
// overwrites the previous entry.
func (b *Bus) Register(a Registrant) {
	b.mu.Lock()
	b.agents[a.Name()] = a
	b.mu.Unlock()
	b.logger.Info("agent registered", "agent", a.Name(), "role", a.Role())
}

// Unregister removes an agent and clears its subscriptions.
func (b *Bus) Unregister(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.agents[name]; !ok {
		return
	}
	delete(b.agents, name)
	for typ := range b.subscribers {
		delete(b.subscribers[typ], name)
	}
	b.logger.Info("agent unregistered", "agent", name)
}

// Subscribe adds the named agent to the subscriber set for typ.
func (b *Bus) Subscribe(agentName string, typ envelope.Type) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subscribers[typ]
	if !ok {
		set = make(map[string]struct{})
		b.subscribers[typ] = set
	}
	set[agentName] = struct{}{}
}

// Unsubscribe removes the named agent from the subscriber set for typ.
func (b *Bus) Unsubscribe(agentName string, typ envelope.Type) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers[typ], agentName)
}

// AddHandler registers a global hook for a type, invoked after delivery.
// Handler panics are recovered and logged; they never disturb delivery.
func (b *Bus) AddHandler(typ envelope.Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[typ] = append(b.handlers[typ], h)
}

// Publish accepts an envelope unconditionally and schedules it for delivery
// according to the configured strategy. Producers are never blocked and never
// notified of delivery failures synchronously.
func (b *Bus) Publish(env envelope.Envelope) {
	b.sent.Add(1)
	b.logger.Debug("envelope published", "type", string(env.Type), "sender", env.Sender, "recipient", env.Recipient)
	b.strategy.Publish(env)
}

// deliver routes one envelope: direct when a recipient is set, otherwise a
// broadcast to the subscribers of its type minus the sender. Returns whether
// at least one target received it.
func (b *Bus) deliver(env envelope.Envelope) bool {
	env = b.applyRoutingDefaults(env)

	// Responses and errors addressed to the external caller terminate at
	// the correlator rather than at a registered agent.
	if b.sink != nil && env.Recipient == b.caller &&
		(env.Type == envelope.TypeResponse || env.Type == envelope.TypeError) {
		matched := b.sink.RegisterResponse(env)
		b.delivered.Add(1)
		b.appendHistory(env)
		b.runHandlers(env)
		if !matched {
			b.logger.Warn("response had no matching pending request", "type", string(env.Type), "sender", env.Sender)
		}
		return true
	}

	delivered := false

	if !env.IsBroadcast() {
		b.mu.RLock()
		target, ok := b.agents[env.Recipient]
		b.mu.RUnlock()

		if ok {
			target.Receive(env)
			delivered = true
			b.delivered.Add(1)
		} else {
			b.failed.Add(1)
			b.logger.Warn("recipient not registered", "recipient", env.Recipient, "type", string(env.Type))
		}
	} else {
		for _, target := range b.subscribersOf(env.Type, env.Sender) {
			target.Receive(env)
			delivered = true
			b.delivered.Add(1)
		}
	}

	if delivered {
		b.appendHistory(env)
	}
	b.runHandlers(env)
	return delivered
}

// applyRoutingDefaults fills in the recipient for types with a known default
// destination: REQUESTs go to the coordinator, ERRORs back to the caller.
func (b *Bus) applyRoutingDefaults(env envelope.Envelope) envelope.Envelope {
	if env.Recipient != "" {
		return env
	}
	switch env.Type {
	case envelope.TypeRequest:
		env.Recipient = b.coordinator
	case envelope.TypeError:
		if env.Sender != b.caller {
			env.Recipient = b.caller
		}
	}
	return env
}

// subscribersOf snapshots the registered subscribers of typ, excluding the
// sender. Self-exclusion prevents immediate echo on broadcast.
func (b *Bus) subscribersOf(typ envelope.Type, sender string) []Registrant {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var targets []Registrant
	for name := range b.subscribers[typ] {
		if name == sender {
			continue
		}
		if a, ok := b.agents[name]; ok {
			targets = append(targets, a)
		}
	}
	return targets
}

// runHandlers invokes the global hooks for the envelope's type, recovering
// from panics so one misbehaving handler cannot block delivery.
func (b *Bus) runHandlers(env envelope.Envelope) {
	b.mu.RLock()
	hs := make([]Handler, len(b.handlers[env.Type]))
	copy(hs, b.handlers[env.Type])
	b.mu.RUnlock()

	for _, h := range hs {
		b.safeHandle(h, env)
	}
}

func (b *Bus) safeHandle(h Handler, env envelope.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked", "type", string(env.Type), "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()
	h(env)
}

// DrainAgents drives every registered agent's inbound queue through Process
// and republishes each reply and queued outbound envelope. A Process error or
// panic is converted into an ERROR envelope addressed back to the original
// sender. The loop is explicitly invoked by the owning driver; in queued mode
// responsiveness depends on how often the driver runs it.
func (b *Bus) DrainAgents() {
	b.mu.RLock()
	snapshot := make([]Registrant, 0, len(b.agents))
	for _, a := range b.agents {
		snapshot = append(snapshot, a)
	}
	b.mu.RUnlock()

	for _, a := range snapshot {
		for _, env := range a.DrainInbound() {
			if reply := b.process(a, env); reply != nil {
				b.Publish(*reply)
			}
		}
		for _, env := range a.DrainOutbound() {
			b.Publish(env)
		}
	}
}

// process invokes one agent's Process with panic recovery, converting faults
// into ERROR envelopes.
func (b *Bus) process(a Registrant, env envelope.Envelope) (reply *envelope.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("agent panicked", "agent", a.Name(), "type", string(env.Type), "panic", fmt.Sprint(r))
			reply = b.errorReply(a.Name(), env, fmt.Sprintf("agent %s panicked: %v", a.Name(), r))
		}
	}()

	reply, err := a.Process(env)
	if err != nil {
		b.logger.Error("agent process failed", "agent", a.Name(), "type", string(env.Type), "err", err)
		return b.errorReply(a.Name(), env, err.Error())
	}
	return reply
}

// errorReply builds the ERROR envelope sent back to the original sender when
// an agent faults.
func (b *Bus) errorReply(from string, cause envelope.Envelope, message string) *envelope.Envelope {
	errEnv := envelope.New(from, cause.Sender, envelope.TypeError, map[string]any{
		"error":    message,
		"cause_id": cause.ID,
	}).WithThread(cause.ThreadID)
	return &errEnv
}

// appendHistory records a delivered envelope in the bounded trailing history.
// The history exists for observability only and is not authoritative state.
func (b *Bus) appendHistory(env envelope.Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.historyCap == 0 {
		return
	}
	b.history = append(b.history, env)
	if len(b.history) > b.historyCap {
		keep := b.historyCap / 2
		b.history = append([]envelope.Envelope(nil), b.history[len(b.history)-keep:]...)
	}
}

// History returns a copy of the trailing delivered-envelope history, oldest
// first.
func (b *Bus) History() []envelope.Envelope {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]envelope.Envelope, len(b.history))
	copy(out, b.history)
	return out
}

// AgentNames returns the sorted names of all registered agents.
func (b *Bus) AgentNames() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.agents))
	for name := range b.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Agent returns the registered agent with the given name.
func (b *Bus) Agent(name string) (Registrant, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	a, ok := b.agents[name]
	return a, ok
}

// FindSimilarAgent returns a registered agent whose name or role contains the
// given text (case-insensitive), or "" when none matches. This is a
// convenience alias lookup only; direct delivery never falls back to it.
func (b *Bus) FindSimilarAgent(text string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return findSimilar(text, b.agents)
}

// Subscriptions returns the sorted envelope types the named agent subscribes
// to.
func (b *Bus) Subscriptions(agentName string) []envelope.Type {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var types []envelope.Type
	for typ, set := range b.subscribers {
		if _, ok := set[agentName]; ok {
			types = append(types, typ)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Start launches the delivery strategy's background work, if any.
func (b *Bus) Start() { b.strategy.Start() }

// Stop halts the delivery strategy. Queued envelopes not yet delivered are
// drained before Stop returns.
func (b *Bus) Stop() { b.strategy.Stop() }
