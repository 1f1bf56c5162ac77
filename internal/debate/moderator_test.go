package debate_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/openagora/agora/internal/debate"
	"github.com/openagora/agora/internal/envelope"
	"github.com/openagora/agora/internal/errors"
	"github.com/openagora/agora/internal/voting"
)

func submission(participant, debateID, position string) envelope.Envelope {
	arg := debate.NewArgument(position, "thesis from "+participant, "reasoning because evidence", []string{"e1"})
	return debate.SubmissionEnvelope(participant, debateID, arg, debate.ModeratorName)
}

// drainByType partitions a moderator's outbound queue by envelope type.
func drainByType(t *testing.T, m *debate.Moderator) map[envelope.Type][]envelope.Envelope {
	t.Helper()
	out := make(map[envelope.Type][]envelope.Envelope)
	for _, env := range m.DrainOutbound() {
		out[env.Type] = append(out[env.Type], env)
	}
	return out
}

func TestCreateDebateFansOutInvitations(t *testing.T) {
	m := debate.NewModerator()
	id, err := m.CreateDebate("topic", "question?", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("CreateDebate: %v", err)
	}

	out := drainByType(t, m)
	invs := out[envelope.TypeDebateInvitation]
	if len(invs) != 3 {
		t.Fatalf("invitations = %d, want 3", len(invs))
	}
	recipients := make(map[string]bool)
	for _, inv := range invs {
		recipients[inv.Recipient] = true
		if inv.String("debate_id") != id {
			t.Errorf("invitation debate_id = %s, want %s", inv.String("debate_id"), id)
		}
	}
	for _, p := range []string{"a", "b", "c"} {
		if !recipients[p] {
			t.Errorf("no invitation for %s", p)
		}
	}

	status, err := m.DebateStatus(id)
	if err != nil {
		t.Fatalf("DebateStatus: %v", err)
	}
	if status.Status != debate.StatusActive {
		t.Errorf("status = %s, want active", status.Status)
	}
}

func TestCreateDebateRejectsTooFewParticipants(t *testing.T) {
	m := debate.NewModerator()
	if _, err := m.CreateDebate("topic", "q", []string{"solo"}); !errors.Is(err, errors.ErrNotEnoughParticipants) {
		t.Errorf("err = %v, want ErrNotEnoughParticipants", err)
	}
}

func TestPartialRoundStaysOpen(t *testing.T) {
	m := debate.NewModerator()
	id, _ := m.CreateDebate("topic", "q", []string{"a", "b", "c"})
	m.DrainOutbound()

	for _, p := range []string{"a", "b"} {
		m.Process(submission(p, id, debate.PositionFavorable))
	}

	out := drainByType(t, m)
	if len(out[envelope.TypeDebateConclusion]) != 0 {
		t.Fatal("debate concluded on a partial round")
	}
	status, err := m.DebateStatus(id)
	if err != nil {
		t.Fatalf("debate no longer active: %v", err)
	}
	if r := status.CurrentRound(); r == nil || r.Status != debate.RoundOpen {
		t.Error("round should still be open")
	}
}

func TestUnanimousRoundConcludesWithConsensus(t *testing.T) {
	m := debate.NewModerator()
	id, _ := m.CreateDebate("topic", "q", []string{"a", "b", "c"})
	m.DrainOutbound()

	for _, p := range []string{"a", "b", "c"} {
		m.Process(submission(p, id, debate.PositionFavorable))
	}

	out := drainByType(t, m)
	concl := out[envelope.TypeDebateConclusion]
	if len(concl) != 1 {
		t.Fatalf("conclusions = %d, want 1", len(concl))
	}
	env := concl[0]
	if env.Recipient != debate.DefaultOwner {
		t.Errorf("conclusion recipient = %s, want %s", env.Recipient, debate.DefaultOwner)
	}
	if consensus, _ := env.Content["consensus"].(bool); !consensus {
		t.Error("unanimous debate should conclude with consensus")
	}
	if _, err := m.DebateStatus(id); !errors.Is(err, errors.ErrDebateNotFound) {
		t.Error("concluded debate should leave active tracking")
	}
}

func TestSplitDebateRunsMultipleRoundsThenVotes(t *testing.T) {
	m := debate.NewModerator()
	id, _ := m.CreateDebate("topic", "q", []string{"a", "b", "c"})
	m.DrainOutbound()

	positions := map[string]string{
		"a": debate.PositionFavorable,
		"b": debate.PositionUnfavorable,
		"c": debate.PositionFavorable,
	}

	// Round 1: split, expect a second round of invitations.
	for p, pos := range positions {
		m.Process(submission(p, id, pos))
	}
	out := drainByType(t, m)
	if len(out[envelope.TypeDebateInvitation]) != 3 {
		t.Fatalf("round 2 invitations = %d, want 3", len(out[envelope.TypeDebateInvitation]))
	}
	if len(out[envelope.TypeDebateConclusion]) != 0 {
		t.Fatal("debate concluded before the split was settled")
	}

	// Round 2: still split, near the cap the debate is settled by vote.
	for p, pos := range positions {
		m.Process(submission(p, id, pos))
	}
	out = drainByType(t, m)
	concl := out[envelope.TypeDebateConclusion]
	if len(concl) != 1 {
		t.Fatalf("conclusions = %d, want 1", len(concl))
	}

	rounds, _ := concl[0].Content["rounds"].(int)
	if rounds != 2 {
		t.Errorf("rounds = %d, want 2", rounds)
	}
	if consensus, _ := concl[0].Content["consensus"].(bool); consensus {
		t.Error("split debate must not report consensus")
	}
	vote, ok := concl[0].Content["vote"].(*voting.Result)
	if !ok || vote == nil {
		t.Fatal("split debate should carry a vote result")
	}
	if vote.Winner != debate.PositionFavorable {
		t.Errorf("vote winner = %q, want favorable (2 of 3)", vote.Winner)
	}
}

func TestDebateNeverExceedsRoundCap(t *testing.T) {
	m := debate.NewModerator(debate.WithRoundCap(3))
	id, _ := m.CreateDebate("topic", "q", []string{"a", "b"})
	m.DrainOutbound()

	positions := map[string]string{
		"a": debate.PositionFavorable,
		"b": debate.PositionUnfavorable,
	}

	concluded := false
	for round := 1; round <= 4; round++ {
		for p, pos := range positions {
			m.Process(submission(p, id, pos))
		}
		out := drainByType(t, m)
		if len(out[envelope.TypeDebateConclusion]) == 1 {
			concluded = true
			rounds, _ := out[envelope.TypeDebateConclusion][0].Content["rounds"].(int)
			if rounds > 3 {
				t.Errorf("rounds = %d, exceeds cap", rounds)
			}
			break
		}
	}
	if !concluded {
		t.Fatal("debate never concluded despite the round cap")
	}
}

type explodingAnalyzer struct{}

func (explodingAnalyzer) AnalyzeRound(debate.RoundContext) (debate.Analysis, error) {
	return debate.Analysis{}, fmt.Errorf("analysis backend down")
}

func TestAnalyzerFailureDegradesToGenericConclusion(t *testing.T) {
	m := debate.NewModerator(debate.WithAnalyzer(explodingAnalyzer{}))
	id, _ := m.CreateDebate("topic", "q", []string{"a", "b"})
	m.DrainOutbound()

	m.Process(submission("a", id, debate.PositionFavorable))
	m.Process(submission("b", id, debate.PositionFavorable))

	out := drainByType(t, m)
	concl := out[envelope.TypeDebateConclusion]
	if len(concl) != 1 {
		t.Fatalf("conclusions = %d, want exactly one generic conclusion", len(concl))
	}
	if _, err := m.DebateStatus(id); err == nil {
		t.Error("failed debate must not stay in active tracking")
	}
}

func TestSubmissionForUnknownDebateIsIgnored(t *testing.T) {
	m := debate.NewModerator()
	if _, err := m.Process(submission("a", "no-such-debate", debate.PositionFavorable)); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out := m.DrainOutbound(); len(out) != 0 {
		t.Errorf("outbound = %v, want none", out)
	}
}

func TestNonParticipantSubmissionDoesNotAdvanceRound(t *testing.T) {
	m := debate.NewModerator()
	id, _ := m.CreateDebate("topic", "q", []string{"a", "b"})
	m.DrainOutbound()

	m.Process(submission("a", id, debate.PositionFavorable))
	m.Process(submission("intruder", id, debate.PositionFavorable))

	out := drainByType(t, m)
	if len(out[envelope.TypeDebateConclusion]) != 0 {
		t.Fatal("intruder submission advanced the round")
	}
}

func TestAbandonDropsDebateFromTracking(t *testing.T) {
	m := debate.NewModerator()
	id, _ := m.CreateDebate("topic", "q", []string{"a", "b"})
	m.DrainOutbound()

	if n := m.Abandon(id, "never-tracked"); n != 1 {
		t.Errorf("abandoned %d debates, want 1", n)
	}
	if ids := m.ActiveDebateIDs(); len(ids) != 0 {
		t.Errorf("active debates = %v, want none", ids)
	}

	// Submissions for an abandoned debate are dropped, not faulted.
	m.Process(submission("a", id, debate.PositionFavorable))
	m.Process(submission("b", id, debate.PositionUnfavorable))
	out := drainByType(t, m)
	if len(out[envelope.TypeDebateConclusion]) != 0 {
		t.Error("abandoned debate still concluded")
	}
}

func TestConcurrentDebatesDoNotCorruptTracking(t *testing.T) {
	m := debate.NewModerator()

	const debates = 8
	var wg sync.WaitGroup
	for i := range debates {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a := fmt.Sprintf("a%d", i)
			b := fmt.Sprintf("b%d", i)
			id, err := m.CreateDebate(fmt.Sprintf("topic %d", i), "q", []string{a, b})
			if err != nil {
				t.Errorf("CreateDebate %d: %v", i, err)
				return
			}
			// Interleave a read with the other goroutines' writes.
			_ = m.ActiveDebateIDs()
			m.Process(submission(a, id, debate.PositionFavorable))
			m.Process(submission(b, id, debate.PositionFavorable))
		}()
	}
	wg.Wait()

	if ids := m.ActiveDebateIDs(); len(ids) != 0 {
		t.Errorf("active debates after unanimous rounds = %v, want none", ids)
	}
}
