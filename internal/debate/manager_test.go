package debate_test

import (
	"fmt"
	"testing"

	"github.com/openagora/agora/internal/agent"
	"github.com/openagora/agora/internal/bus"
	"github.com/openagora/agora/internal/capability"
	"github.com/openagora/agora/internal/debate"
	"github.com/openagora/agora/internal/envelope"
	"github.com/openagora/agora/internal/errors"
	"github.com/openagora/agora/internal/worker"
)

// coordinator collects the DEBATE_RESULT envelopes the manager forwards.
type coordinator struct {
	*agent.Base
	results []envelope.Envelope
}

func (c *coordinator) Process(env envelope.Envelope) (*envelope.Envelope, error) {
	if env.Type == envelope.TypeDebateResult {
		c.results = append(c.results, env)
	}
	return nil, nil
}

func newHarness(t *testing.T, workers ...*worker.Worker) (*bus.Bus, *debate.Manager, *coordinator) {
	t.Helper()
	b := bus.New()
	caps := capability.NewRegistry()
	m := debate.NewManager(b, debate.NewModerator(), caps)

	coord := &coordinator{Base: agent.NewBase("Coordinator", "coordinator")}
	b.Register(coord)

	for _, w := range workers {
		b.Register(w)
		caps.Declare(w.Name(), capability.TagDebate)
	}
	return b, m, coord
}

func TestInitiateDebateRunsToConclusion(t *testing.T) {
	// Alice argues nuanced, Bob favorable, Carol unfavorable: a split that
	// exercises the multi-round and vote paths before concluding.
	_, m, coord := newHarness(t,
		worker.New("Alice", "architecture"),
		worker.New("Bob", "operations"),
		worker.New("Carol", "security"),
	)

	id, err := m.InitiateDebate("adopt caching layer", "should we adopt it?", []string{capability.TagDebate})
	if err != nil {
		t.Fatalf("InitiateDebate: %v", err)
	}

	// Immediate delivery runs the whole protocol inside InitiateDebate.
	result, err := m.Result(id)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if got := result.String("debate_id"); got != id {
		t.Errorf("result debate_id = %s, want %s", got, id)
	}
	if len(m.Active()) != 0 {
		t.Errorf("active debates = %v, want none after conclusion", m.Active())
	}
	if len(coord.results) != 1 {
		t.Fatalf("coordinator received %d results, want 1", len(coord.results))
	}
}

func TestInitiateDebateFailsWithoutCapableAgents(t *testing.T) {
	_, m, _ := newHarness(t)
	if _, err := m.InitiateDebate("t", "q", []string{capability.TagDebate}); !errors.Is(err, errors.ErrNotEnoughParticipants) {
		t.Errorf("err = %v, want ErrNotEnoughParticipants", err)
	}
}

func TestSelectParticipantsChecksDebaterInterface(t *testing.T) {
	b := bus.New()
	caps := capability.NewRegistry()
	m := debate.NewManager(b, debate.NewModerator(), caps)

	b.Register(worker.New("Debater", "analysis"))
	caps.Declare("Debater", capability.TagDebate)

	// Declared but not debate-capable: a bare agent without the interface.
	plain := &coordinator{Base: agent.NewBase("Plain", "bystander")}
	b.Register(plain)
	caps.Declare("Plain", capability.TagDebate)

	got := m.SelectParticipants([]string{capability.TagDebate})
	if len(got) != 1 || got[0] != "Debater" {
		t.Errorf("selected = %v, want only the Debater", got)
	}
}

func TestSelectParticipantsFallsBackToSubstringLookup(t *testing.T) {
	b := bus.New()
	caps := capability.NewRegistry()
	m := debate.NewManager(b, debate.NewModerator(), caps)

	// Registered on the bus but never declared in the capability registry.
	b.Register(worker.New("DataAnalyst", "data analysis"))

	got := m.SelectParticipants([]string{"analyst"})
	if len(got) != 1 || got[0] != "DataAnalyst" {
		t.Errorf("selected = %v, want substring fallback to find DataAnalyst", got)
	}
}

func TestResultTrailIsBounded(t *testing.T) {
	_, m, _ := newHarness(t)

	const conclusions = 400
	for i := range conclusions {
		env := envelope.New(debate.ModeratorName, m.Name(), envelope.TypeDebateConclusion, map[string]any{
			"debate_id": fmt.Sprintf("debate-%03d", i),
		})
		if _, err := m.Process(env); err != nil {
			t.Fatalf("Process conclusion %d: %v", i, err)
		}
	}

	if _, err := m.Result("debate-000"); !errors.Is(err, errors.ErrDebateNotFound) {
		t.Errorf("oldest result err = %v, want ErrDebateNotFound after eviction", err)
	}
	if _, err := m.Result(fmt.Sprintf("debate-%03d", conclusions-1)); err != nil {
		t.Errorf("newest result err = %v, want retained", err)
	}
}

func TestManagerCleanupAbandonsStaleDebates(t *testing.T) {
	_, m, _ := newHarness(t, worker.New("Alice", "a"), worker.New("Bob", "b"))

	// A concluded debate is already out of active tracking.
	if _, err := m.InitiateDebate("t", "q", []string{capability.TagDebate}); err != nil {
		t.Fatalf("InitiateDebate: %v", err)
	}
	if n := m.CleanupOld(0); n != 0 {
		t.Errorf("cleaned %d debates, want 0", n)
	}
}
