package bus

import (
	"sync"
	"sync/atomic"

	"github.com/openagora/agora/internal/envelope"
)

// defaultQueueSize bounds the queued strategy's channel. Publish never blocks:
// an envelope that cannot be enqueued is dropped and counted as failed.
const defaultQueueSize = 1024

// maxDrainDepth caps immediate-mode cascade depth so mutually replying agents
// cannot recurse without bound.
const maxDrainDepth = 10

// Strategy decides when a published envelope is delivered. Implementations
// receive the owning bus via attach before any Publish call.
type Strategy interface {
	attach(b *Bus)

	// Publish schedules (or performs) delivery of one envelope.
	Publish(env envelope.Envelope)

	// Start launches background work, if any. Safe to call more than once.
	Start()

	// Stop halts background work, draining anything already accepted.
	Stop()

	// QueueDepth reports envelopes accepted but not yet delivered.
	QueueDepth() int
}

// QueuedStrategy buffers published envelopes on a channel consumed by a
// single goroutine, preserving global publish order. Agent queues are not
// driven automatically; the owning driver calls DrainAgents.
type QueuedStrategy struct {
	bus  *Bus
	ch   chan envelope.Envelope
	done chan struct{}

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// NewQueuedStrategy creates a queued strategy with the given buffer size.
// Non-positive sizes fall back to the default.
func NewQueuedStrategy(size int) *QueuedStrategy {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &QueuedStrategy{
		ch: make(chan envelope.Envelope, size),
	}
}

func (s *QueuedStrategy) attach(b *Bus) { s.bus = b }

// Publish enqueues the envelope without blocking. When the buffer is full the
// envelope is dropped and counted as a delivery failure.
func (s *QueuedStrategy) Publish(env envelope.Envelope) {
	select {
	case s.ch <- env:
	default:
		s.bus.failed.Add(1)
		s.bus.logger.Warn("queue full, envelope dropped", "type", string(env.Type), "recipient", env.Recipient)
	}
}

// Start launches the consumer goroutine. Calling Start on a running strategy
// is a no-op.
func (s *QueuedStrategy) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.done = make(chan struct{})

	done := s.done
	s.wg.Go(func() {
		for {
			select {
			case env := <-s.ch:
				s.bus.deliver(env)
			case <-done:
				// Drain what was accepted before shutdown.
				for {
					select {
					case env := <-s.ch:
						s.bus.deliver(env)
					default:
						return
					}
				}
			}
		}
	})
}

// Stop signals the consumer to drain and exit, then waits for it.
func (s *QueuedStrategy) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()
}

// QueueDepth reports buffered, undelivered envelopes.
func (s *QueuedStrategy) QueueDepth() int { return len(s.ch) }

// ImmediateStrategy delivers synchronously within the publisher's stack and
// then drives agent queues until quiescence, so a request/response cascade
// completes before Publish returns. Cascade depth is capped.
type ImmediateStrategy struct {
	bus   *Bus
	depth atomic.Int32
}

// NewImmediateStrategy creates an immediate strategy.
func NewImmediateStrategy() *ImmediateStrategy {
	return &ImmediateStrategy{}
}

func (s *ImmediateStrategy) attach(b *Bus) { s.bus = b }

// Publish delivers the envelope inline. At the outermost call it then drains
// agent queues; replies re-enter Publish and are delivered within the same
// stack until quiescence or the depth cap.
func (s *ImmediateStrategy) Publish(env envelope.Envelope) {
	s.bus.deliver(env)

	if int(s.depth.Load()) >= maxDrainDepth {
		s.bus.logger.Warn("drain depth cap reached", "type", string(env.Type))
		return
	}
	s.depth.Add(1)
	defer s.depth.Add(-1)
	s.bus.DrainAgents()
}

// Start is a no-op: immediate delivery needs no background work.
func (s *ImmediateStrategy) Start() {}

// Stop is a no-op.
func (s *ImmediateStrategy) Stop() {}

// QueueDepth is always zero: nothing is ever buffered.
func (s *ImmediateStrategy) QueueDepth() int { return 0 }
