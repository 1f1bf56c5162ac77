// Package debate implements the structured disagreement-resolution protocol:
// a Debate advances through numbered rounds of argument collection, each
// round fanning out invitations and closing once every participant has
// argued, until the moderator concludes with a synthesis.
package debate

import (
	"time"

	"github.com/google/uuid"

	"github.com/openagora/agora/internal/errors"
	"github.com/openagora/agora/internal/voting"
)

// Status values for a Debate.
type Status string

const (
	StatusOpen   Status = "open"
	StatusActive Status = "active"
	StatusVoting Status = "voting"
	StatusClosed Status = "closed"
)

// Round status values.
const (
	RoundOpen   = "open"
	RoundClosed = "closed"
)

// Argument positions.
const (
	PositionFavorable   = "favorable"
	PositionUnfavorable = "unfavorable"
	PositionNuanced     = "nuanced"
)

// Default protocol bounds.
const (
	DefaultMaxRounds       = 3
	DefaultMinParticipants = 2
	DefaultMaxParticipants = 7
)

// Argument is one participant's contribution to a round. Author is set once
// when the argument enters a round and never changes after.
type Argument struct {
	ID        string            `json:"id"`
	Position  string            `json:"position"`
	Thesis    string            `json:"thesis"`
	Reasoning string            `json:"reasoning"`
	Evidence  []string          `json:"evidence"`
	Rebuttals map[string]string `json:"rebuttals,omitempty"`
	Author    string            `json:"author"`
	Votes     int               `json:"votes"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewArgument creates an Argument with a fresh id.
func NewArgument(position, thesis, reasoning string, evidence []string) Argument {
	return Argument{
		ID:        uuid.NewString(),
		Position:  position,
		Thesis:    thesis,
		Reasoning: reasoning,
		Evidence:  evidence,
		CreatedAt: time.Now(),
	}
}

// Round is one cycle of argument collection. Participants is a snapshot of
// the debate roster at round start; arguments are accepted only from that
// snapshot and only while the round is open.
type Round struct {
	Number       int                   `json:"number"`
	Participants []string              `json:"participants"`
	Arguments    map[string][]Argument `json:"arguments"`
	Status       string                `json:"status"`
	StartedAt    time.Time             `json:"started_at"`
	ClosedAt     time.Time             `json:"closed_at,omitzero"`
}

func newRound(number int, participants []string) *Round {
	snapshot := make([]string, len(participants))
	copy(snapshot, participants)
	args := make(map[string][]Argument, len(snapshot))
	for _, p := range snapshot {
		args[p] = nil
	}
	return &Round{
		Number:       number,
		Participants: snapshot,
		Arguments:    args,
		Status:       RoundOpen,
		StartedAt:    time.Now(),
	}
}

// AddArgument records an argument from a participant, stamping the author.
func (r *Round) AddArgument(participant string, arg Argument) error {
	if r.Status != RoundOpen {
		return errors.ErrRoundClosed
	}
	if _, ok := r.Arguments[participant]; !ok {
		return errors.ErrNotParticipant
	}
	arg.Author = participant
	r.Arguments[participant] = append(r.Arguments[participant], arg)
	return nil
}

// Close marks the round closed. Further arguments are rejected.
func (r *Round) Close() {
	r.Status = RoundClosed
	r.ClosedAt = time.Now()
}

// AllArguments flattens every participant's arguments, in participant
// snapshot order.
func (r *Round) AllArguments() []Argument {
	var all []Argument
	for _, p := range r.Participants {
		all = append(all, r.Arguments[p]...)
	}
	return all
}

// Responded returns the set of participants who have submitted at least one
// argument this round.
func (r *Round) Responded() map[string]struct{} {
	got := make(map[string]struct{})
	for p, args := range r.Arguments {
		if len(args) > 0 {
			got[p] = struct{}{}
		}
	}
	return got
}

// Complete reports whether every expected participant has argued. Duplicates
// do not double-count and extra submitters cannot substitute for missing
// ones.
func (r *Round) Complete() bool {
	responded := r.Responded()
	for _, p := range r.Participants {
		if _, ok := responded[p]; !ok {
			return false
		}
	}
	return true
}

// Result is the record a concluded debate carries.
type Result struct {
	DebateID      string         `json:"debate_id"`
	Topic         string         `json:"topic"`
	Question      string         `json:"question"`
	Rounds        int            `json:"rounds"`
	Participants  []string       `json:"participants"`
	Synthesis     string         `json:"synthesis"`
	Consensus     bool           `json:"consensus"`
	Agreements    []string       `json:"agreements"`
	Disagreements []string       `json:"disagreements"`
	Vote          *voting.Result `json:"vote,omitempty"`
}

// Debate is the root entity of one disagreement-resolution run.
type Debate struct {
	ID           string    `json:"id"`
	Topic        string    `json:"topic"`
	Question     string    `json:"question"`
	Participants []string  `json:"participants"`
	Moderator    string    `json:"moderator"`
	Rounds       []*Round  `json:"rounds"`
	Status       Status    `json:"status"`
	Result       *Result   `json:"result,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ClosedAt     time.Time `json:"closed_at,omitzero"`

	MaxRounds       int `json:"-"`
	MinParticipants int `json:"-"`
	MaxParticipants int `json:"-"`
}

// New creates an open Debate with the default protocol bounds.
func New(topic, question string) *Debate {
	return &Debate{
		ID:              uuid.NewString(),
		Topic:           topic,
		Question:        question,
		Status:          StatusOpen,
		CreatedAt:       time.Now(),
		MaxRounds:       DefaultMaxRounds,
		MinParticipants: DefaultMinParticipants,
		MaxParticipants: DefaultMaxParticipants,
	}
}

// AddParticipant adds a participant, ignoring duplicates and anything past
// the maximum roster size.
func (d *Debate) AddParticipant(name string) {
	if len(d.Participants) >= d.MaxParticipants {
		return
	}
	for _, p := range d.Participants {
		if p == name {
			return
		}
	}
	d.Participants = append(d.Participants, name)
}

// CanStart reports whether the roster meets the minimum size.
func (d *Debate) CanStart() bool {
	return len(d.Participants) >= d.MinParticipants
}

// StartRound appends a new round snapshotting the current roster. Round
// numbers are dense, starting at 1.
func (d *Debate) StartRound() (*Round, error) {
	if !d.CanStart() {
		return nil, errors.ErrNotEnoughParticipants
	}
	r := newRound(len(d.Rounds)+1, d.Participants)
	d.Rounds = append(d.Rounds, r)
	d.Status = StatusActive
	return r, nil
}

// CurrentRound returns the latest round, or nil before the first one starts.
func (d *Debate) CurrentRound() *Round {
	if len(d.Rounds) == 0 {
		return nil
	}
	return d.Rounds[len(d.Rounds)-1]
}

// CloseCurrentRound closes the latest round, if any.
func (d *Debate) CloseCurrentRound() {
	if r := d.CurrentRound(); r != nil {
		r.Close()
	}
}

// StartVoting moves the debate into its explicit vote phase.
func (d *Debate) StartVoting() {
	d.Status = StatusVoting
}

// Conclude closes the debate and attaches its result.
func (d *Debate) Conclude(result *Result) {
	d.Status = StatusClosed
	d.Result = result
	d.ClosedAt = time.Now()
}

// AllArguments flattens every round's arguments in order.
func (d *Debate) AllArguments() []Argument {
	var all []Argument
	for _, r := range d.Rounds {
		all = append(all, r.AllArguments()...)
	}
	return all
}

// PositionCounts tallies arguments across all rounds by position.
func (d *Debate) PositionCounts() map[string]int {
	counts := make(map[string]int)
	for _, arg := range d.AllArguments() {
		counts[arg.Position]++
	}
	return counts
}
