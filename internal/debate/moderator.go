package debate

import (
	"sync"

	"github.com/openagora/agora/internal/agent"
	"github.com/openagora/agora/internal/envelope"
	"github.com/openagora/agora/internal/errors"
	"github.com/openagora/agora/internal/logging"
	"github.com/openagora/agora/internal/voting"
)

// ModeratorName is the bus name the moderator registers under.
const ModeratorName = "Moderator"

// DefaultOwner receives DEBATE_CONCLUSION envelopes.
const DefaultOwner = "DebateManager"

// tracking follows one debate's current round: who was invited, who
// acknowledged, and whether completion already fired.
type tracking struct {
	invited   map[string]struct{}
	responded map[string]struct{}
	complete  bool
}

func newTracking() *tracking {
	return &tracking{
		invited:   make(map[string]struct{}),
		responded: make(map[string]struct{}),
	}
}

// Moderator owns every active debate: it fans out round invitations, collects
// argument submissions, detects round completion, and concludes. Any protocol
// fault degrades to an immediate generic conclusion; a debate is never left
// open forever.
type Moderator struct {
	*agent.Base

	// mu guards debates, tracking, and every Debate and Round reached
	// through them. Callers drive the moderator from their own goroutine
	// while the hub's drive loop pumps Process concurrently.
	mu       sync.Mutex
	debates  map[string]*Debate
	tracking map[string]*tracking

	analyzer Analyzer
	logger   *logging.Logger
	owner    string

	maxRounds       int
	minParticipants int
	maxParticipants int
	votingMethod    voting.Method
}

// ModeratorOption configures a Moderator.
type ModeratorOption func(*Moderator)

// WithAnalyzer sets the round analyzer. The default is the rule-based
// Heuristic.
func WithAnalyzer(a Analyzer) ModeratorOption {
	return func(m *Moderator) {
		if a != nil {
			m.analyzer = a
		}
	}
}

// WithModeratorLogger sets the moderator's logger.
func WithModeratorLogger(l *logging.Logger) ModeratorOption {
	return func(m *Moderator) {
		if l != nil {
			m.logger = l.WithAgent(ModeratorName)
		}
	}
}

// WithOwner sets the recipient of DEBATE_CONCLUSION envelopes.
func WithOwner(name string) ModeratorOption {
	return func(m *Moderator) { m.owner = name }
}

// WithRoundCap overrides the hard cap on rounds per debate.
func WithRoundCap(n int) ModeratorOption {
	return func(m *Moderator) {
		if n > 0 {
			m.maxRounds = n
		}
	}
}

// WithVotingMethod selects how split debates are settled. The default is a
// simple majority.
func WithVotingMethod(method voting.Method) ModeratorOption {
	return func(m *Moderator) {
		if method != "" {
			m.votingMethod = method
		}
	}
}

// WithParticipantBounds overrides the roster size bounds.
func WithParticipantBounds(minP, maxP int) ModeratorOption {
	return func(m *Moderator) {
		if minP > 0 {
			m.minParticipants = minP
		}
		if maxP >= minP {
			m.maxParticipants = maxP
		}
	}
}

// NewModerator creates a Moderator with the default protocol bounds.
func NewModerator(opts ...ModeratorOption) *Moderator {
	m := &Moderator{
		Base:            agent.NewBase(ModeratorName, "debate moderator"),
		debates:         make(map[string]*Debate),
		tracking:        make(map[string]*tracking),
		analyzer:        Heuristic{},
		logger:          logging.NopLogger(),
		owner:           DefaultOwner,
		maxRounds:       DefaultMaxRounds,
		minParticipants: DefaultMinParticipants,
		maxParticipants: DefaultMaxParticipants,
		votingMethod:    voting.MethodMajority,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Process dispatches debate-protocol envelopes. Everything else falls through
// to the default agent behavior.
func (m *Moderator) Process(env envelope.Envelope) (*envelope.Envelope, error) {
	switch env.Type {
	case envelope.TypeDebateAcceptance:
		m.mu.Lock()
		m.handleAcceptance(env)
		m.mu.Unlock()
		return nil, nil
	case envelope.TypeArgumentSubmission:
		m.mu.Lock()
		m.handleArgumentSubmission(env)
		m.mu.Unlock()
		return nil, nil
	default:
		return m.HandleDefault(env), nil
	}
}

// CreateDebate validates the roster, creates the debate, and starts round 1
// immediately: creation and first-round start are atomic from the caller's
// perspective. Returns the debate id.
func (m *Moderator) CreateDebate(topic, question string, participants []string) (string, error) {
	d := New(topic, question)
	d.Moderator = m.Name()
	d.MaxRounds = m.maxRounds
	d.MinParticipants = m.minParticipants
	d.MaxParticipants = m.maxParticipants
	for _, p := range participants {
		d.AddParticipant(p)
	}
	if !d.CanStart() {
		return "", errors.Wrapf(errors.ErrNotEnoughParticipants, "debate on %q needs at least %d participants", topic, m.minParticipants)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.debates[d.ID] = d
	m.tracking[d.ID] = newTracking()
	m.logger.Info("debate created", "debate_id", d.ID, "topic", topic, "participants", len(d.Participants))

	if err := m.startRound(d); err != nil {
		m.concludeGeneric(d, "debate aborted before the first round: "+err.Error())
		return d.ID, nil
	}
	return d.ID, nil
}

// startRound opens the next round and fans out one DEBATE_INVITATION per
// participant carrying the round context.
func (m *Moderator) startRound(d *Debate) error {
	r, err := d.StartRound()
	if err != nil {
		return err
	}

	tr := newTracking()
	m.tracking[d.ID] = tr

	ctx := map[string]any{
		"debate_id":    d.ID,
		"topic":        d.Topic,
		"question":     d.Question,
		"round":        r.Number,
		"participants": append([]string(nil), d.Participants...),
		"arguments":    priorArgumentSummaries(d),
	}

	for _, p := range d.Participants {
		m.Send(envelope.New(m.Name(), p, envelope.TypeDebateInvitation, ctx))
		tr.invited[p] = struct{}{}
	}
	m.logger.Info("round started", "debate_id", d.ID, "round", r.Number)
	return nil
}

// handleAcceptance records an invitation acknowledgment.
func (m *Moderator) handleAcceptance(env envelope.Envelope) {
	id := env.String("debate_id")
	tr, ok := m.tracking[id]
	if !ok {
		return
	}
	tr.responded[env.Sender] = struct{}{}
	m.logger.Debug("invitation acknowledged", "debate_id", id, "participant", env.Sender)
}

// handleArgumentSubmission files the argument into the current round and
// checks completion. Submissions for unknown debates or closed rounds are
// logged and dropped; they never fault the protocol.
func (m *Moderator) handleArgumentSubmission(env envelope.Envelope) {
	id := env.String("debate_id")
	d, ok := m.debates[id]
	if !ok {
		m.logger.Warn("argument for unknown debate", "debate_id", id, "sender", env.Sender)
		return
	}
	r := d.CurrentRound()
	if r == nil {
		m.logger.Warn("argument before any round", "debate_id", id)
		return
	}

	arg := argumentFromContent(env.Map("argument"))
	if err := r.AddArgument(env.Sender, arg); err != nil {
		m.logger.Warn("argument rejected", "debate_id", id, "sender", env.Sender, "err", err)
		return
	}
	m.logger.Info("argument received", "debate_id", id, "round", r.Number, "participant", env.Sender, "position", arg.Position)

	tr := m.tracking[id]
	if tr != nil && tr.complete {
		// Late submission after completion already fired: keep it in the
		// log, do not re-run the completion logic.
		return
	}
	if r.Complete() {
		if tr != nil {
			tr.complete = true
		}
		r.Close()
		m.advance(d)
	}
}

// advance analyzes the just-completed round and either starts the next round,
// runs the vote phase, or concludes. Analysis failure concludes generically.
func (m *Moderator) advance(d *Debate) {
	r := d.CurrentRound()
	analysis, err := m.analyzer.AnalyzeRound(RoundContext{
		DebateID:     d.ID,
		Topic:        d.Topic,
		Question:     d.Question,
		Round:        r.Number,
		MaxRounds:    d.MaxRounds,
		Participants: d.Participants,
		Arguments:    r.AllArguments(),
		Prior:        priorArguments(d),
	})
	if err != nil {
		derr := errors.NewDebateError("round analysis failed", err).WithDebate(d.ID, r.Number)
		m.logger.Error("analysis failed, concluding", "debate_id", d.ID, "err", derr)
		m.concludeGeneric(d, "debate concluded after an analysis failure")
		return
	}

	if analysis.Action == ActionContinue && len(d.Rounds) < d.MaxRounds {
		if err := m.startRound(d); err != nil {
			m.concludeGeneric(d, "debate concluded after a round-start failure: "+err.Error())
		}
		return
	}

	var vote *voting.Result
	if analysis.Action == ActionVote {
		d.StartVoting()
		vote = m.conductVote(d)
	}
	m.conclude(d, analysis, vote)
}

// conductVote settles a split debate over each participant's final position,
// using the configured method. Choice, score, and ranking ballots are all
// derived from the positions; a voter endorses its own final position.
func (m *Moderator) conductVote(d *Debate) *voting.Result {
	options := []string{PositionFavorable, PositionUnfavorable, PositionNuanced}

	ballots := voting.Ballots{
		Choices:  make(map[string]string),
		Scores:   make(map[string]map[string]float64),
		Rankings: make(map[string][]string),
	}
	for _, arg := range d.AllArguments() {
		ballots.Choices[arg.Author] = arg.Position
		scores := make(map[string]float64, len(options))
		for _, opt := range options {
			if opt == arg.Position {
				scores[opt] = 1.0
			}
		}
		ballots.Scores[arg.Author] = scores
		ballots.Rankings[arg.Author] = []string{arg.Position}
	}

	res, err := voting.Conduct(m.votingMethod, options, ballots)
	if err != nil {
		m.logger.Error("vote failed, falling back to majority", "debate_id", d.ID, "err", err)
		res = voting.Majority(options, ballots.Choices)
	}
	m.logger.Info("debate vote conducted", "debate_id", d.ID, "method", string(res.Method), "winner", res.Winner)
	return &res
}

// conclude assembles the result record, closes the debate, emits the
// DEBATE_CONCLUSION envelope to the owner, and drops the debate from active
// tracking.
func (m *Moderator) conclude(d *Debate, analysis Analysis, vote *voting.Result) {
	result := &Result{
		DebateID:      d.ID,
		Topic:         d.Topic,
		Question:      d.Question,
		Rounds:        len(d.Rounds),
		Participants:  append([]string(nil), d.Participants...),
		Synthesis:     analysis.Synthesis,
		Consensus:     analysis.ConsensusEmerging,
		Agreements:    analysis.Agreements,
		Disagreements: analysis.Disagreements,
		Vote:          vote,
	}
	d.Conclude(result)

	m.Send(envelope.New(m.Name(), m.owner, envelope.TypeDebateConclusion, map[string]any{
		"debate_id":     result.DebateID,
		"topic":         result.Topic,
		"question":      result.Question,
		"rounds":        result.Rounds,
		"participants":  result.Participants,
		"synthesis":     result.Synthesis,
		"consensus":     result.Consensus,
		"agreements":    result.Agreements,
		"disagreements": result.Disagreements,
		"vote":          vote,
	}))

	delete(m.debates, d.ID)
	delete(m.tracking, d.ID)
	m.logger.Info("debate concluded", "debate_id", d.ID, "rounds", result.Rounds, "consensus", result.Consensus)
}

// concludeGeneric is the degraded conclusion path used on protocol faults.
func (m *Moderator) concludeGeneric(d *Debate, synthesis string) {
	m.conclude(d, Analysis{Synthesis: synthesis}, nil)
}

// DebateStatus returns a snapshot of an active debate, or an error for
// unknown ids.
func (m *Moderator) DebateStatus(id string) (Debate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.debates[id]
	if !ok {
		return Debate{}, errors.Wrapf(errors.ErrDebateNotFound, "status of %s", id)
	}
	return *d, nil
}

// ActiveDebateIDs lists the ids of debates still in progress.
func (m *Moderator) ActiveDebateIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.debates))
	for id := range m.debates {
		ids = append(ids, id)
	}
	return ids
}

// Abandon drops debates from active tracking without concluding them.
// Returns how many were still tracked.
func (m *Moderator) Abandon(ids ...string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range ids {
		if _, ok := m.debates[id]; ok {
			n++
		}
		delete(m.debates, id)
		delete(m.tracking, id)
	}
	return n
}

// priorArguments flattens the arguments of every round before the current
// one.
func priorArguments(d *Debate) []Argument {
	var prior []Argument
	for _, r := range d.Rounds[:max(len(d.Rounds)-1, 0)] {
		prior = append(prior, r.AllArguments()...)
	}
	return prior
}

// priorArgumentSummaries renders prior arguments as envelope content.
func priorArgumentSummaries(d *Debate) []map[string]any {
	var out []map[string]any
	for _, arg := range priorArguments(d) {
		out = append(out, map[string]any{
			"participant": arg.Author,
			"position":    arg.Position,
			"thesis":      arg.Thesis,
			"reasoning":   truncate(arg.Reasoning, 200),
		})
	}
	return out
}

// argumentFromContent builds an Argument from a submission payload, tolerant
// of missing keys: a malformed payload yields a neutral placeholder rather
// than a fault.
func argumentFromContent(content map[string]any) Argument {
	if content == nil {
		return NewArgument(PositionNuanced, "", "", nil)
	}
	position, _ := content["position"].(string)
	if position == "" {
		position = PositionNuanced
	}
	thesis, _ := content["thesis"].(string)
	reasoning, _ := content["reasoning"].(string)

	var evidence []string
	switch ev := content["evidence"].(type) {
	case []string:
		evidence = ev
	case []any:
		for _, e := range ev {
			if s, ok := e.(string); ok {
				evidence = append(evidence, s)
			}
		}
	}

	arg := NewArgument(position, thesis, reasoning, evidence)
	if rebuttals, ok := content["rebuttals"].(map[string]string); ok {
		arg.Rebuttals = rebuttals
	} else if raw, ok := content["rebuttals"].(map[string]any); ok {
		arg.Rebuttals = make(map[string]string, len(raw))
		for k, v := range raw {
			if s, ok := v.(string); ok {
				arg.Rebuttals[k] = s
			}
		}
	}
	return arg
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
