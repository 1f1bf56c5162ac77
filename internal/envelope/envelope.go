// Package envelope defines the typed message unit exchanged between agents.
// An Envelope is immutable after creation: it is constructed once by a sender
// (or by the bus itself) and consumed exactly once by delivery.
package envelope

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// MinPriority is the lowest valid envelope priority.
	MinPriority = 1
	// MaxPriority is the highest valid envelope priority.
	MaxPriority = 10
	// DefaultPriority is used when the sender does not specify one.
	DefaultPriority = 5
)

// Envelope is the addressed, typed unit of communication between agents.
// Recipient is optional: an empty recipient means broadcast to every
// subscriber of Type. ThreadID links a response back to its originating
// request across hops.
type Envelope struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	Sender      string         `json:"sender"`
	Recipient   string         `json:"recipient,omitempty"`
	Type        Type           `json:"type"`
	Priority    int            `json:"priority"`
	Content     map[string]any `json:"content"`
	ThreadID    string         `json:"thread_id,omitempty"`
	RequiresAck bool           `json:"requires_ack,omitempty"`
}

// New creates an Envelope with a unique ID, the current timestamp, and the
// default priority. Content may be nil.
func New(sender, recipient string, typ Type, content map[string]any) Envelope {
	if content == nil {
		content = make(map[string]any)
	}
	return Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Sender:    sender,
		Recipient: recipient,
		Type:      typ,
		Priority:  DefaultPriority,
		Content:   content,
	}
}

// NewBroadcast creates an Envelope with no recipient, delivered to every
// subscriber of typ except the sender.
func NewBroadcast(sender string, typ Type, content map[string]any) Envelope {
	return New(sender, "", typ, content)
}

// WithThread returns a copy of the envelope carrying the given correlation id.
func (e Envelope) WithThread(threadID string) Envelope {
	e.ThreadID = threadID
	return e
}

// WithPriority returns a copy of the envelope with the given priority.
// Values outside [MinPriority, MaxPriority] are clamped.
func (e Envelope) WithPriority(p int) Envelope {
	if p < MinPriority {
		p = MinPriority
	}
	if p > MaxPriority {
		p = MaxPriority
	}
	e.Priority = p
	return e
}

// IsBroadcast reports whether the envelope has no direct recipient.
func (e Envelope) IsBroadcast() bool {
	return e.Recipient == ""
}

// Validate checks structural invariants: non-empty id, sender, and type, and
// a priority within bounds.
func (e Envelope) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("envelope: id is required")
	}
	if e.Sender == "" {
		return fmt.Errorf("envelope: sender is required")
	}
	if e.Type == "" {
		return fmt.Errorf("envelope: type is required")
	}
	if e.Priority < MinPriority || e.Priority > MaxPriority {
		return fmt.Errorf("envelope: priority %d out of range [%d,%d]", e.Priority, MinPriority, MaxPriority)
	}
	return nil
}

// String returns the content value for key as a string, or "" when absent or
// not a string. The core only ever reads a handful of routing keys this way
// (debate_id, request, error); content is otherwise opaque.
func (e Envelope) String(key string) string {
	if v, ok := e.Content[key].(string); ok {
		return v
	}
	return ""
}

// Map returns the content value for key as a nested map, or nil.
func (e Envelope) Map(key string) map[string]any {
	if v, ok := e.Content[key].(map[string]any); ok {
		return v
	}
	return nil
}

// MarshalJSON ensures a zero-value priority serializes as the default rather
// than as an invalid 0.
func (e Envelope) MarshalJSON() ([]byte, error) {
	type alias Envelope
	if e.Priority == 0 {
		e.Priority = DefaultPriority
	}
	return json.Marshal(alias(e))
}

// Decode parses a JSON-encoded envelope, applying the default priority when
// the field is absent.
func Decode(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("envelope: decode: %w", err)
	}
	if e.Priority == 0 {
		e.Priority = DefaultPriority
	}
	return e, nil
}
