package coordination

import (
	"sync"

	"github.com/openagora/agora/internal/agent"
	"github.com/openagora/agora/internal/envelope"
	"github.com/openagora/agora/internal/logging"
)

// CoordinatorName is the bus name of the hub's coordinator agent. Unaddressed
// REQUESTs route here.
const CoordinatorName = "Coordinator"

// Coordinator is the hub's dispatch agent: it delegates caller requests to
// workers round-robin, converts their task results back into responses for
// the original requester, and relays debate results out to the caller.
type Coordinator struct {
	*agent.Base

	caller string
	logger *logging.Logger

	mu       sync.Mutex
	workers  []string
	next     int
	requests map[string]string // thread id -> original requester
}

// NewCoordinator creates a Coordinator that answers on behalf of the given
// caller name.
func NewCoordinator(caller string, logger *logging.Logger) *Coordinator {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Coordinator{
		Base:     agent.NewBase(CoordinatorName, "request coordinator"),
		caller:   caller,
		logger:   logger.WithAgent(CoordinatorName),
		requests: make(map[string]string),
	}
}

// AddWorker adds a delegate to the round-robin roster.
func (c *Coordinator) AddWorker(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, w := range c.workers {
		if w == name {
			return
		}
	}
	c.workers = append(c.workers, name)
}

// RemoveWorker drops a delegate from the roster.
func (c *Coordinator) RemoveWorker(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, w := range c.workers {
		if w == name {
			c.workers = append(c.workers[:i], c.workers[i+1:]...)
			if c.next > i {
				c.next--
			}
			return
		}
	}
}

// Process dispatches: REQUESTs are delegated, TASK_RESULTs are converted to
// responses, DEBATE_RESULTs are relayed to the caller.
func (c *Coordinator) Process(env envelope.Envelope) (*envelope.Envelope, error) {
	switch env.Type {
	case envelope.TypeRequest:
		return c.handleRequest(env)
	case envelope.TypeTaskResult:
		return c.handleTaskResult(env)
	case envelope.TypeDebateResult:
		return c.handleDebateResult(env)
	default:
		return c.HandleDefault(env), nil
	}
}

// handleRequest delegates to the next worker, carrying the thread id through
// so the eventual response correlates. With no workers available the
// coordinator answers directly rather than leaving the caller waiting.
func (c *Coordinator) handleRequest(env envelope.Envelope) (*envelope.Envelope, error) {
	target := c.nextWorker()
	if target == "" {
		c.logger.Warn("no workers to delegate to", "sender", env.Sender)
		reply := envelope.New(c.Name(), env.Sender, envelope.TypeError, map[string]any{
			"error": "no workers available to handle the request",
		}).WithThread(env.ThreadID)
		return &reply, nil
	}

	if env.ThreadID != "" {
		c.mu.Lock()
		c.requests[env.ThreadID] = env.Sender
		c.mu.Unlock()
	}

	c.logger.Info("request delegated", "worker", target, "thread_id", env.ThreadID)
	task := envelope.New(c.Name(), target, envelope.TypeTaskAssignment, env.Content).WithThread(env.ThreadID)
	return &task, nil
}

// handleTaskResult converts a worker's result into a RESPONSE for the
// requester recorded under the thread id. Unknown threads go to the caller;
// the correlator's fallback matching absorbs them.
func (c *Coordinator) handleTaskResult(env envelope.Envelope) (*envelope.Envelope, error) {
	c.mu.Lock()
	requester, ok := c.requests[env.ThreadID]
	if ok {
		delete(c.requests, env.ThreadID)
	}
	c.mu.Unlock()
	if !ok {
		requester = c.caller
	}

	reply := envelope.New(c.Name(), requester, envelope.TypeResponse, env.Content).WithThread(env.ThreadID)
	return &reply, nil
}

// handleDebateResult relays a concluded debate to the caller.
func (c *Coordinator) handleDebateResult(env envelope.Envelope) (*envelope.Envelope, error) {
	c.logger.Info("debate result relayed", "debate_id", env.String("debate_id"))
	reply := envelope.New(c.Name(), c.caller, envelope.TypeResponse, env.Content)
	return &reply, nil
}

// nextWorker returns the next roster entry round-robin, or "" when empty.
func (c *Coordinator) nextWorker() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.workers) == 0 {
		return ""
	}
	w := c.workers[c.next%len(c.workers)]
	c.next++
	return w
}
