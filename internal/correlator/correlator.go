// Package correlator bridges synchronous callers and the asynchronous bus.
// A caller publishes a REQUEST, then blocks on the correlator until a
// RESPONSE or ERROR envelope is matched to it or the deadline passes.
//
// Matching prefers the response's thread id; a response carrying no usable
// thread id falls back to the oldest pending request. The fallback can
// mismatch when unrelated requests are in flight, which is accepted in
// exchange for never stranding an untagged response.
package correlator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openagora/agora/internal/envelope"
	"github.com/openagora/agora/internal/errors"
	"github.com/openagora/agora/internal/logging"
)

// Request status values.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusTimedOut  = "timed_out"
	// StatusUnmatched marks an audit entry for a response that arrived with
	// no pending request to claim it.
	StatusUnmatched = "unmatched"
)

const (
	// DefaultTimeout bounds how long a caller blocks awaiting a response.
	DefaultTimeout = 30 * time.Second
	// sweepInterval is how often expired requests are reaped.
	sweepInterval = 5 * time.Second
	// auditCap bounds the completed-request audit trail.
	auditCap = 200
)

// Pending tracks one outstanding request from creation to a terminal status.
// Status moves one way, pending to exactly one terminal value, and the
// response slot is immutable once set.
type Pending struct {
	ID        string
	ThreadID  string
	Text      string
	Recipient string
	CreatedAt time.Time
	Deadline  time.Time
	Status    string
	Response  *envelope.Envelope

	done chan struct{}
}

// Correlator matches inbound responses to pending requests. It implements the
// bus.ResponseSink interface so the bus hands it RESPONSE and ERROR envelopes
// addressed to the external caller.
type Correlator struct {
	mu      sync.Mutex
	pending map[string]*Pending
	audit   []Pending

	logger *logging.Logger

	sweepOnce sync.Once
	sweepDone chan struct{}
	wg        sync.WaitGroup
}

// New creates a Correlator. The expiry sweep starts lazily on first use.
func New(logger *logging.Logger) *Correlator {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Correlator{
		pending:   make(map[string]*Pending),
		logger:    logger,
		sweepDone: make(chan struct{}),
	}
}

// Track registers a new pending request and returns it. The returned request's
// ThreadID must be stamped on the outgoing REQUEST envelope so responses can
// be matched precisely. A non-positive timeout falls back to DefaultTimeout.
func (c *Correlator) Track(text, recipient string, timeout time.Duration) *Pending {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	now := time.Now()
	p := &Pending{
		ID:        uuid.NewString(),
		ThreadID:  uuid.NewString(),
		Text:      text,
		Recipient: recipient,
		CreatedAt: now,
		Deadline:  now.Add(timeout),
		Status:    StatusPending,
		done:      make(chan struct{}),
	}

	c.mu.Lock()
	c.pending[p.ID] = p
	c.mu.Unlock()

	c.startSweep()
	c.logger.Debug("request tracked", "request_id", p.ID, "thread_id", p.ThreadID, "recipient", recipient)
	return p
}

// RegisterResponse matches a RESPONSE or ERROR envelope to a pending request
// and completes it. Matching prefers the envelope's thread id; with no usable
// thread id the oldest pending request wins. A response that matches nothing
// is still recorded in the audit trail. Reports whether a match was made.
func (c *Correlator) RegisterResponse(env envelope.Envelope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.matchLocked(env.ThreadID)
	if p == nil {
		resp := env
		c.auditLocked(Pending{
			ID:        env.ID,
			ThreadID:  env.ThreadID,
			CreatedAt: time.Now(),
			Status:    StatusUnmatched,
			Response:  &resp,
		})
		c.logger.Debug("response matched no pending request", "thread_id", env.ThreadID, "sender", env.Sender)
		return false
	}

	resp := env
	p.Response = &resp
	if env.Type == envelope.TypeError {
		p.Status = StatusFailed
	} else {
		p.Status = StatusCompleted
	}
	c.finishLocked(p)
	return true
}

// matchLocked finds the pending request for a thread id, or the oldest
// pending request when the id is empty or unknown.
func (c *Correlator) matchLocked(threadID string) *Pending {
	if threadID != "" {
		for _, p := range c.pending {
			if p.ThreadID == threadID {
				return p
			}
		}
	}

	var oldest *Pending
	for _, p := range c.pending {
		if oldest == nil || p.CreatedAt.Before(oldest.CreatedAt) {
			oldest = p
		}
	}
	if oldest != nil && threadID != "" {
		c.logger.Debug("thread id unknown, matched oldest pending", "thread_id", threadID, "request_id", oldest.ID)
	}
	return oldest
}

// Await blocks until the request reaches a terminal status, its deadline
// passes, or ctx is cancelled. On success it returns the matched response;
// an ERROR response is returned alongside a nil error, since the protocol
// delivered it as a first-class outcome.
func (c *Correlator) Await(ctx context.Context, p *Pending) (*envelope.Envelope, error) {
	// A request that already completed wins even when the deadline has also
	// passed; the select below would pick between the two at random.
	select {
	case <-p.done:
		return c.outcome(p)
	default:
	}

	timer := time.NewTimer(time.Until(p.Deadline))
	defer timer.Stop()

	select {
	case <-p.done:
		return c.outcome(p)
	case <-timer.C:
		c.expire(p)
		return nil, errors.NewTimeoutError("await response from "+p.Recipient, p.Deadline.Sub(p.CreatedAt))
	case <-ctx.Done():
		c.expire(p)
		return nil, ctx.Err()
	}
}

// outcome reads a finished request's result. A request the sweep expired
// before the caller awaited it reports a timeout, not an empty response.
func (c *Correlator) outcome(p *Pending) (*envelope.Envelope, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.Response == nil {
		return nil, errors.NewTimeoutError("await response from "+p.Recipient, p.Deadline.Sub(p.CreatedAt))
	}
	return p.Response, nil
}

// expire moves a still-pending request to the timed-out status. A request
// completed concurrently is left alone.
func (c *Correlator) expire(p *Pending) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[p.ID]; !ok {
		return
	}
	p.Status = StatusTimedOut
	c.finishLocked(p)
	c.logger.Warn("request timed out", "request_id", p.ID, "recipient", p.Recipient)
}

// finishLocked removes the request from the pending set, records it in the
// bounded audit trail, and wakes the waiter.
func (c *Correlator) finishLocked(p *Pending) {
	delete(c.pending, p.ID)
	c.auditLocked(*p)
	close(p.done)
}

// auditLocked appends an entry to the audit trail, trimming the oldest half
// once the cap is exceeded.
func (c *Correlator) auditLocked(entry Pending) {
	c.audit = append(c.audit, entry)
	if len(c.audit) > auditCap {
		c.audit = append([]Pending(nil), c.audit[len(c.audit)-auditCap/2:]...)
	}
}

// Lookup returns a snapshot of the pending request with the given id.
func (c *Correlator) Lookup(id string) (Pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[id]
	if !ok {
		return Pending{}, errors.Wrapf(errors.ErrRequestNotFound, "lookup %s", id)
	}
	return *p, nil
}

// PendingCount returns how many requests are currently awaiting a response.
func (c *Correlator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Audit returns a copy of the completed-request trail, oldest first.
func (c *Correlator) Audit() []Pending {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Pending, len(c.audit))
	copy(out, c.audit)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// startSweep launches the background reaper for requests whose waiters
// vanished without observing the deadline.
func (c *Correlator) startSweep() {
	c.sweepOnce.Do(func() {
		c.wg.Go(func() {
			ticker := time.NewTicker(sweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					c.sweepExpired()
				case <-c.sweepDone:
					return
				}
			}
		})
	})
}

// sweepExpired times out every pending request past its deadline.
func (c *Correlator) sweepExpired() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.pending {
		if now.After(p.Deadline) {
			p.Status = StatusTimedOut
			c.finishLocked(p)
			c.logger.Warn("request swept after deadline", "request_id", p.ID)
		}
	}
}

// Close stops the sweep goroutine. Pending requests are left to their
// deadlines.
func (c *Correlator) Close() {
	c.sweepOnce.Do(func() {}) // disarm lazy start
	select {
	case <-c.sweepDone:
	default:
		close(c.sweepDone)
	}
	c.wg.Wait()
}
