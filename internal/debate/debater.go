package debate

import "github.com/openagora/agora/internal/envelope"

// Debater is the capability a participant declares to take part in debates.
// The manager checks this interface explicitly when selecting participants;
// an agent that does not implement it is never invited.
type Debater interface {
	// ContributeArgument produces this participant's argument for a round.
	ContributeArgument(inv Invitation) (Argument, error)
	// ScoreArguments rates a set of arguments, keyed by argument id, each
	// score in [0,1].
	ScoreArguments(args []Argument) map[string]float64
}

// Invitation is the round context a participant receives in a
// DEBATE_INVITATION envelope.
type Invitation struct {
	DebateID     string
	Topic        string
	Question     string
	Round        int
	Participants []string
	Prior        []map[string]any
}

// ParseInvitation decodes an invitation envelope's content. Missing keys
// yield zero values; the protocol tolerates sparse context.
func ParseInvitation(env envelope.Envelope) Invitation {
	inv := Invitation{
		DebateID: env.String("debate_id"),
		Topic:    env.String("topic"),
		Question: env.String("question"),
	}
	switch n := env.Content["round"].(type) {
	case int:
		inv.Round = n
	case float64:
		inv.Round = int(n)
	}
	switch ps := env.Content["participants"].(type) {
	case []string:
		inv.Participants = append([]string(nil), ps...)
	case []any:
		for _, p := range ps {
			if s, ok := p.(string); ok {
				inv.Participants = append(inv.Participants, s)
			}
		}
	}
	switch prior := env.Content["arguments"].(type) {
	case []map[string]any:
		inv.Prior = prior
	case []any:
		for _, a := range prior {
			if m, ok := a.(map[string]any); ok {
				inv.Prior = append(inv.Prior, m)
			}
		}
	}
	return inv
}

// AcceptanceEnvelope builds the DEBATE_ACCEPTANCE reply a participant sends
// on receiving an invitation.
func AcceptanceEnvelope(participant string, inv Invitation, moderator string) envelope.Envelope {
	return envelope.New(participant, moderator, envelope.TypeDebateAcceptance, map[string]any{
		"debate_id":   inv.DebateID,
		"status":      "accepted",
		"participant": participant,
	})
}

// SubmissionEnvelope builds the ARGUMENT_SUBMISSION envelope carrying a
// participant's argument.
func SubmissionEnvelope(participant string, debateID string, arg Argument, moderator string) envelope.Envelope {
	return envelope.New(participant, moderator, envelope.TypeArgumentSubmission, map[string]any{
		"debate_id": debateID,
		"argument": map[string]any{
			"position":  arg.Position,
			"thesis":    arg.Thesis,
			"reasoning": arg.Reasoning,
			"evidence":  arg.Evidence,
			"rebuttals": arg.Rebuttals,
		},
		"participant": participant,
	})
}
