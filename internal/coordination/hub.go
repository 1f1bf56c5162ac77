package coordination

import (
	"context"
	"sync"
	"time"

	"github.com/openagora/agora/internal/bus"
	"github.com/openagora/agora/internal/capability"
	"github.com/openagora/agora/internal/correlator"
	"github.com/openagora/agora/internal/debate"
	"github.com/openagora/agora/internal/envelope"
	"github.com/openagora/agora/internal/errors"
	"github.com/openagora/agora/internal/logging"
	"github.com/openagora/agora/internal/worker"
)

// Config holds required dependencies for creating a Hub.
type Config struct {
	Logger *logging.Logger
}

// Hub wires the coordination substrate together for a single process: the
// bus, the request correlator, the coordinator agent, and the debate engine.
// It owns the lifecycle of the drive loop and the cleanup sweep.
type Hub struct {
	mu      sync.RWMutex
	started bool
	cancel  context.CancelFunc

	// loopDone is closed when the drive/cleanup goroutine exits.
	loopDone chan struct{}

	// Components
	bus         *bus.Bus
	correlator  *correlator.Correlator
	caps        *capability.Registry
	coordinator *Coordinator
	moderator   *debate.Moderator
	manager     *debate.Manager
	logger      *logging.Logger

	caller          string
	requestTimeout  time.Duration
	driveInterval   time.Duration
	cleanupInterval time.Duration
	debateMaxAge    time.Duration
}

// NewHub creates a Hub with every component wired.
func NewHub(cfg Config, opts ...Option) (*Hub, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}

	hc := defaultHubConfig()
	for _, opt := range opts {
		opt(hc)
	}

	corr := correlator.New(logger)

	busOpts := []bus.Option{
		bus.WithLogger(logger),
		bus.WithCoordinator(CoordinatorName),
		bus.WithCaller(hc.caller),
		bus.WithResponseSink(corr),
	}
	if hc.strategy != nil {
		busOpts = append(busOpts, bus.WithStrategy(hc.strategy))
	}
	if hc.historyLimit >= 0 {
		busOpts = append(busOpts, bus.WithHistoryLimit(hc.historyLimit))
	}
	b := bus.New(busOpts...)

	caps := capability.NewRegistry()
	coord := NewCoordinator(hc.caller, logger)
	b.Register(coord)

	var modOpts []debate.ModeratorOption
	modOpts = append(modOpts, debate.WithModeratorLogger(logger))
	if hc.analyzer != nil {
		modOpts = append(modOpts, debate.WithAnalyzer(hc.analyzer))
	}
	if hc.roundCap > 0 {
		modOpts = append(modOpts, debate.WithRoundCap(hc.roundCap))
	}
	if hc.votingMethod != "" {
		modOpts = append(modOpts, debate.WithVotingMethod(hc.votingMethod))
	}
	moderator := debate.NewModerator(modOpts...)
	manager := debate.NewManager(b, moderator, caps,
		debate.WithManagerLogger(logger),
		debate.WithForwardTo(CoordinatorName),
	)

	return &Hub{
		bus:             b,
		correlator:      corr,
		caps:            caps,
		coordinator:     coord,
		moderator:       moderator,
		manager:         manager,
		logger:          logger,
		caller:          hc.caller,
		requestTimeout:  hc.requestTimeout,
		driveInterval:   hc.driveInterval,
		cleanupInterval: hc.cleanupInterval,
		debateMaxAge:    hc.debateMaxAge,
	}, nil
}

// Bus returns the underlying message bus.
func (h *Hub) Bus() *bus.Bus { return h.bus }

// Correlator returns the request correlator.
func (h *Hub) Correlator() *correlator.Correlator { return h.correlator }

// Capabilities returns the capability registry.
func (h *Hub) Capabilities() *capability.Registry { return h.caps }

// Manager returns the debate manager.
func (h *Hub) Manager() *debate.Manager { return h.manager }

// Coordinator returns the coordinator agent.
func (h *Hub) Coordinator() *Coordinator { return h.coordinator }

// RegisterWorker registers a worker on the bus, declares its capability
// tags, and adds it to the coordinator's delegation roster.
func (h *Hub) RegisterWorker(w *worker.Worker, tags ...string) {
	h.bus.Register(w)
	if len(tags) == 0 {
		tags = []string{capability.TagDebate, capability.TagWorker}
	}
	h.caps.Declare(w.Name(), tags...)
	h.coordinator.AddWorker(w.Name())
}

// Start begins the bus and the drive/cleanup loop.
// Returns an error if the hub is already started.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started {
		return errors.New("coordination: hub already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.started = true
	h.loopDone = make(chan struct{})

	h.bus.Start()

	go func() {
		defer close(h.loopDone)
		h.runLoop(ctx)
	}()

	return nil
}

// runLoop drives agent queues and sweeps stale debates until the context is
// cancelled. In immediate mode the drive tick is a cheap no-op pass; in
// queued mode it is what makes agents make progress.
func (h *Hub) runLoop(ctx context.Context) {
	drive := time.NewTicker(h.driveInterval)
	defer drive.Stop()
	cleanup := time.NewTicker(h.cleanupInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-drive.C:
			h.bus.DrainAgents()
		case <-cleanup.C:
			if n := h.manager.CleanupOld(h.debateMaxAge); n > 0 {
				h.logger.Info("stale debates cleaned", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Stop halts the loop, the bus, and the correlator, in reverse start order.
// It is idempotent.
func (h *Hub) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		return nil
	}

	h.cancel()
	<-h.loopDone

	h.bus.Stop()
	h.correlator.Close()

	h.started = false
	return nil
}

// Running returns whether the hub is currently started.
func (h *Hub) Running() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.started
}

// Ask submits a caller request and blocks until a response, an explicit
// error, or the timeout. The returned envelope is the RESPONSE or ERROR that
// terminated the request.
func (h *Hub) Ask(ctx context.Context, text string, timeout time.Duration) (*envelope.Envelope, error) {
	if timeout <= 0 {
		timeout = h.requestTimeout
	}
	p := h.correlator.Track(text, CoordinatorName, timeout)

	req := envelope.New(h.caller, "", envelope.TypeRequest, map[string]any{
		"text": text,
	}).WithThread(p.ThreadID)
	h.bus.Publish(req)
	h.bus.DrainAgents()

	return h.correlator.Await(ctx, p)
}

// Debate runs a debate among agents matching the capability patterns and
// blocks until its conclusion or the timeout.
func (h *Hub) Debate(topic, question string, patterns []string, timeout time.Duration) (envelope.Envelope, error) {
	if timeout <= 0 {
		timeout = h.requestTimeout
	}
	id, err := h.manager.InitiateDebate(topic, question, patterns)
	if err != nil {
		return envelope.Envelope{}, err
	}

	deadline := time.Now().Add(timeout)
	for {
		if result, err := h.manager.Result(id); err == nil {
			return result, nil
		}
		if time.Now().After(deadline) {
			return envelope.Envelope{}, errors.NewTimeoutError("await debate "+id, timeout)
		}
		h.bus.DrainAgents()
		time.Sleep(10 * time.Millisecond)
	}
}
