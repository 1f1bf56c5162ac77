package envelope

// Type identifies the kind of envelope. It is an open enum: the bus routes
// unrecognized types exactly like recognized ones.
type Type string

const (
	// TypeRequest is a caller-originated request entering the system.
	TypeRequest Type = "REQUEST"

	// TypeResponse answers a request.
	TypeResponse Type = "RESPONSE"

	// TypeError reports a failure back to the original sender.
	TypeError Type = "ERROR"

	// TypeTaskAssignment assigns work to an agent.
	TypeTaskAssignment Type = "TASK_ASSIGNMENT"

	// TypeTaskResult reports a completed task.
	TypeTaskResult Type = "TASK_RESULT"

	// TypePing probes an agent's liveness.
	TypePing Type = "PING"

	// TypePong answers a ping.
	TypePong Type = "PONG"

	// TypeDebateInvitation invites a participant into a debate round.
	TypeDebateInvitation Type = "DEBATE_INVITATION"

	// TypeDebateAcceptance acknowledges a debate invitation.
	TypeDebateAcceptance Type = "DEBATE_ACCEPTANCE"

	// TypeArgumentSubmission carries a participant's argument for the
	// current round.
	TypeArgumentSubmission Type = "ARGUMENT_SUBMISSION"

	// TypeVoteSubmission carries a participant's ballot.
	TypeVoteSubmission Type = "VOTE_SUBMISSION"

	// TypeDebateConclusion carries a concluded debate's result to the
	// debate manager.
	TypeDebateConclusion Type = "DEBATE_CONCLUSION"

	// TypeDebateResult carries the formatted result to the coordinator
	// agent for user delivery.
	TypeDebateResult Type = "DEBATE_RESULT"
)

// Recognized core-level types. Anything else passes through untouched.
var recognizedTypes = map[Type]bool{
	TypeRequest:            true,
	TypeResponse:           true,
	TypeError:              true,
	TypeTaskAssignment:     true,
	TypeTaskResult:         true,
	TypePing:               true,
	TypePong:               true,
	TypeDebateInvitation:   true,
	TypeDebateAcceptance:   true,
	TypeArgumentSubmission: true,
	TypeVoteSubmission:     true,
	TypeDebateConclusion:   true,
	TypeDebateResult:       true,
}

// Recognized reports whether t is one of the core-level types.
func Recognized(t Type) bool {
	return recognizedTypes[t]
}
