package worker

import (
	"strings"
	"testing"

	"github.com/openagora/agora/internal/debate"
	"github.com/openagora/agora/internal/envelope"
)

func TestRequestProducesResponseOnSameThread(t *testing.T) {
	w := New("Alice", "architecture")

	req := envelope.New("User", "Alice", envelope.TypeRequest, map[string]any{
		"text": "is the cache safe?",
	}).WithThread("th-1")

	reply, err := w.Process(req)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if reply == nil || reply.Type != envelope.TypeResponse {
		t.Fatalf("reply = %+v, want RESPONSE", reply)
	}
	if reply.ThreadID != "th-1" {
		t.Errorf("thread id = %q, want th-1", reply.ThreadID)
	}
	if reply.Recipient != "User" {
		t.Errorf("recipient = %q, want User", reply.Recipient)
	}
	answer := reply.String("answer")
	if !strings.Contains(answer, "Alice") || !strings.Contains(answer, "architecture") {
		t.Errorf("answer = %q, want worker identity and specialty mentioned", answer)
	}
}

func TestTaskAssignmentProducesTaskResult(t *testing.T) {
	w := New("Bob", "operations")

	task := envelope.New("Coordinator", "Bob", envelope.TypeTaskAssignment, map[string]any{
		"text": "restart schedule",
	}).WithThread("th-2")

	reply, err := w.Process(task)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if reply == nil || reply.Type != envelope.TypeTaskResult {
		t.Fatalf("reply = %+v, want TASK_RESULT", reply)
	}
	if got := reply.String("status"); got != "completed" {
		t.Errorf("status = %q, want completed", got)
	}
}

func TestInvitationYieldsAcceptanceAndSubmission(t *testing.T) {
	w := New("Carol", "security")

	inv := envelope.New("Moderator", "Carol", envelope.TypeDebateInvitation, map[string]any{
		"debate_id":    "d-1",
		"topic":        "adopt caching layer",
		"question":     "should we adopt it?",
		"round":        1,
		"participants": []string{"Carol", "Dave"},
	})

	reply, err := w.Process(inv)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if reply == nil || reply.Type != envelope.TypeArgumentSubmission {
		t.Fatalf("reply = %+v, want ARGUMENT_SUBMISSION", reply)
	}
	if got := reply.String("debate_id"); got != "d-1" {
		t.Errorf("submission debate_id = %q, want d-1", got)
	}
	arg := reply.Map("argument")
	if arg == nil || arg["position"] == "" {
		t.Errorf("submission argument = %v, want a position", arg)
	}

	out := w.DrainOutbound()
	if len(out) != 1 || out[0].Type != envelope.TypeDebateAcceptance {
		t.Fatalf("outbound = %+v, want a single DEBATE_ACCEPTANCE", out)
	}
	if out[0].Recipient != "Moderator" {
		t.Errorf("acceptance recipient = %q, want Moderator", out[0].Recipient)
	}
}

func TestSecondRoundSubmissionSurvivesDedup(t *testing.T) {
	// Round context changes the generated reasoning, so a worker invited twice
	// produces distinct submissions instead of idempotency-cache drops.
	w := New("Carol", "security")

	first := envelope.New("Moderator", "Carol", envelope.TypeDebateInvitation, map[string]any{
		"debate_id": "d-2", "topic": "t", "question": "q", "round": 1,
	})
	second := envelope.New("Moderator", "Carol", envelope.TypeDebateInvitation, map[string]any{
		"debate_id": "d-2", "topic": "t", "question": "q", "round": 2,
	})

	r1, err := w.Process(first)
	if err != nil {
		t.Fatalf("round 1: %v", err)
	}
	r2, err := w.Process(second)
	if err != nil {
		t.Fatalf("round 2: %v", err)
	}
	if r1.Map("argument")["reasoning"] == r2.Map("argument")["reasoning"] {
		t.Error("round 1 and round 2 submissions are identical")
	}
}

func TestDefaultPositionSpread(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		// Position follows name[0] % 3: B→favorable, C→unfavorable, D→nuanced.
		{"", debate.PositionNuanced},
		{"Bob", debate.PositionFavorable},
		{"Carol", debate.PositionUnfavorable},
		{"Dave", debate.PositionNuanced},
	}
	for _, tt := range tests {
		if got := defaultPosition(tt.name); got != tt.want {
			t.Errorf("defaultPosition(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestCustomGeneratorReplacesStockPosition(t *testing.T) {
	w := New("Eve", "testing", WithGenerator(fixedGenerator{}))

	inv := envelope.New("Moderator", "Eve", envelope.TypeDebateInvitation, map[string]any{
		"debate_id": "d-3", "topic": "t", "question": "q", "round": 1,
	})
	reply, err := w.Process(inv)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := reply.Map("argument")["thesis"]; got != "fixed thesis" {
		t.Errorf("thesis = %v, want the custom generator's output", got)
	}
}

type fixedGenerator struct{}

func (fixedGenerator) Generate(inv debate.Invitation, specialty string) (debate.Argument, error) {
	return debate.NewArgument(debate.PositionFavorable, "fixed thesis", "fixed reasoning", nil), nil
}
