package debate_test

import (
	"testing"

	"github.com/openagora/agora/internal/debate"
	"github.com/openagora/agora/internal/errors"
)

func TestRoundAcceptsOnlySnapshotParticipants(t *testing.T) {
	d := debate.New("topic", "question")
	d.AddParticipant("a")
	d.AddParticipant("b")

	r, err := d.StartRound()
	if err != nil {
		t.Fatalf("StartRound: %v", err)
	}

	arg := debate.NewArgument(debate.PositionFavorable, "t", "r", nil)
	if err := r.AddArgument("a", arg); err != nil {
		t.Errorf("AddArgument from participant: %v", err)
	}
	if err := r.AddArgument("stranger", arg); !errors.Is(err, errors.ErrNotParticipant) {
		t.Errorf("err = %v, want ErrNotParticipant", err)
	}

	r.Close()
	if err := r.AddArgument("b", arg); !errors.Is(err, errors.ErrRoundClosed) {
		t.Errorf("err = %v, want ErrRoundClosed", err)
	}
}

func TestRoundCompletionRequiresEveryParticipant(t *testing.T) {
	d := debate.New("topic", "question")
	for _, p := range []string{"a", "b", "c"} {
		d.AddParticipant(p)
	}
	r, _ := d.StartRound()

	arg := debate.NewArgument(debate.PositionFavorable, "t", "r", nil)
	r.AddArgument("a", arg)
	r.AddArgument("b", arg)
	if r.Complete() {
		t.Fatal("2 of 3 submissions must leave the round open")
	}

	// Duplicates do not substitute for the missing participant.
	r.AddArgument("a", arg)
	if r.Complete() {
		t.Fatal("duplicate submission must not complete the round")
	}

	r.AddArgument("c", arg)
	if !r.Complete() {
		t.Fatal("round should complete once everyone has argued")
	}
}

func TestDebateRosterBounds(t *testing.T) {
	d := debate.New("topic", "question")
	if d.CanStart() {
		t.Error("empty debate must not be startable")
	}

	d.AddParticipant("a")
	d.AddParticipant("a") // duplicate ignored
	if len(d.Participants) != 1 {
		t.Errorf("participants = %v, want deduplicated", d.Participants)
	}
	if d.CanStart() {
		t.Error("one participant is below the minimum")
	}

	for _, p := range []string{"b", "c", "d", "e", "f", "g", "h"} {
		d.AddParticipant(p)
	}
	if len(d.Participants) != debate.DefaultMaxParticipants {
		t.Errorf("participants = %d, want capped at %d", len(d.Participants), debate.DefaultMaxParticipants)
	}
}

func TestRoundNumbersAreDense(t *testing.T) {
	d := debate.New("topic", "question")
	d.AddParticipant("a")
	d.AddParticipant("b")

	for want := 1; want <= 3; want++ {
		r, err := d.StartRound()
		if err != nil {
			t.Fatalf("StartRound %d: %v", want, err)
		}
		if r.Number != want {
			t.Errorf("round number = %d, want %d", r.Number, want)
		}
	}
}

func TestStartRoundBelowMinimumFails(t *testing.T) {
	d := debate.New("topic", "question")
	d.AddParticipant("only")
	if _, err := d.StartRound(); !errors.Is(err, errors.ErrNotEnoughParticipants) {
		t.Errorf("err = %v, want ErrNotEnoughParticipants", err)
	}
}

func TestHeuristicAnalyzer(t *testing.T) {
	favorable := debate.NewArgument(debate.PositionFavorable, "t", "r", nil)
	unfavorable := debate.NewArgument(debate.PositionUnfavorable, "t", "r", nil)

	tests := []struct {
		name       string
		args       []debate.Argument
		round      int
		wantAction debate.Action
		wantCons   bool
	}{
		{"unanimous favorable concludes", []debate.Argument{favorable, favorable}, 1, debate.ActionConclude, true},
		{"unanimous unfavorable concludes", []debate.Argument{unfavorable, unfavorable}, 1, debate.ActionConclude, true},
		{"split continues early", []debate.Argument{favorable, unfavorable}, 1, debate.ActionContinue, false},
		{"split votes near the cap", []debate.Argument{favorable, unfavorable}, 2, debate.ActionVote, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := debate.Heuristic{}.AnalyzeRound(debate.RoundContext{
				Round:     tt.round,
				MaxRounds: debate.DefaultMaxRounds,
				Arguments: tt.args,
			})
			if err != nil {
				t.Fatalf("AnalyzeRound: %v", err)
			}
			if a.Action != tt.wantAction {
				t.Errorf("action = %s, want %s", a.Action, tt.wantAction)
			}
			if a.ConsensusEmerging != tt.wantCons {
				t.Errorf("consensus = %v, want %v", a.ConsensusEmerging, tt.wantCons)
			}
		})
	}
}
