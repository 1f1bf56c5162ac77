// Package worker provides the stock debate-capable agent: it answers
// requests, accepts debate invitations, and contributes scored arguments.
// Real deployments replace its generator with one backed by an external
// reasoning service; the stock behavior is deterministic and self-contained.
package worker

import (
	"fmt"

	"github.com/openagora/agora/internal/agent"
	"github.com/openagora/agora/internal/debate"
	"github.com/openagora/agora/internal/envelope"
	"github.com/openagora/agora/internal/logging"
	"github.com/openagora/agora/internal/scoring"
)

// Worker is a participant agent. It embeds the scoring Contributor, which
// satisfies the debate.Debater capability the manager checks for.
type Worker struct {
	*agent.Base
	*scoring.Contributor

	specialty string
	logger    *logging.Logger
}

// Option configures a Worker.
type Option func(*options)

type options struct {
	gen    scoring.Generator
	logger *logging.Logger
}

// WithGenerator replaces the stock argument generator.
func WithGenerator(g scoring.Generator) Option {
	return func(o *options) { o.gen = g }
}

// WithLogger sets the worker's logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates a Worker with the given identity. The default generator takes
// a fixed position derived from the worker's name, which keeps demo debates
// deterministic.
func New(name, specialty string, opts ...Option) *Worker {
	o := &options{
		gen:    positionGenerator{position: defaultPosition(name)},
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Worker{
		Base:        agent.NewBase(name, specialty),
		Contributor: scoring.NewContributor(name, specialty, o.gen, o.logger),
		specialty:   specialty,
		logger:      o.logger.WithAgent(name),
	}
}

// Process handles the worker's protocol surface: requests get answered,
// invitations get accepted and argued, everything else falls through to the
// default behavior.
func (w *Worker) Process(env envelope.Envelope) (*envelope.Envelope, error) {
	switch env.Type {
	case envelope.TypeRequest, envelope.TypeTaskAssignment:
		return w.handleRequest(env)
	case envelope.TypeDebateInvitation:
		return w.handleInvitation(env)
	default:
		return w.HandleDefault(env), nil
	}
}

// handleRequest produces a RESPONSE (or TASK_RESULT) carrying the worker's
// treatment of the request text.
func (w *Worker) handleRequest(env envelope.Envelope) (*envelope.Envelope, error) {
	text := env.String("text")
	w.logger.Info("request handled", "type", string(env.Type), "text", text)

	replyType := envelope.TypeResponse
	if env.Type == envelope.TypeTaskAssignment {
		replyType = envelope.TypeTaskResult
	}
	reply := envelope.New(w.Name(), env.Sender, replyType, map[string]any{
		"status": "completed",
		"answer": fmt.Sprintf("%s processed %q from the %s perspective", w.Name(), text, w.specialty),
	}).WithThread(env.ThreadID)
	return &reply, nil
}

// handleInvitation acknowledges the invitation and returns the argument
// submission as the reply. The acknowledgment goes out through the outbound
// queue so both envelopes reach the moderator.
func (w *Worker) handleInvitation(env envelope.Envelope) (*envelope.Envelope, error) {
	inv := debate.ParseInvitation(env)
	w.logger.Info("debate invitation received", "debate_id", inv.DebateID, "round", inv.Round)

	w.Send(debate.AcceptanceEnvelope(w.Name(), inv, env.Sender))

	arg, err := w.ContributeArgument(inv)
	if err != nil {
		// The contributor falls back internally; an error here means
		// even the fallback failed, which the protocol treats as a
		// handler fault.
		return nil, err
	}
	reply := debate.SubmissionEnvelope(w.Name(), inv.DebateID, arg, env.Sender)
	return &reply, nil
}

// positionGenerator argues a fixed position every round.
type positionGenerator struct {
	position string
}

func (g positionGenerator) Generate(inv debate.Invitation, specialty string) (debate.Argument, error) {
	return debate.NewArgument(
		g.position,
		fmt.Sprintf("From the %s angle, the answer to %q is %s", specialty, inv.Question, g.position),
		fmt.Sprintf("Because the %s perspective weighs %q against standard practice, and since round %d context includes %d prior arguments, the %s position holds.",
			specialty, inv.Topic, inv.Round, len(inv.Prior), g.position),
		[]string{"domain experience", "prior rounds reviewed"},
	), nil
}

// defaultPosition spreads stock workers across positions so demo debates are
// not trivially unanimous.
func defaultPosition(name string) string {
	if len(name) == 0 {
		return debate.PositionNuanced
	}
	switch int(name[0]) % 3 {
	case 0:
		return debate.PositionFavorable
	case 1:
		return debate.PositionUnfavorable
	default:
		return debate.PositionNuanced
	}
}
