// Package errors provides centralized error definitions for the Agora
// codebase: sentinel errors, semantic error types with classification, and
// small helpers so callers can import one package for all error handling.
//
// The delivery path never surfaces these as unhandled faults: every failure is
// converted to a typed outcome (a counted delivery failure, an ERROR envelope,
// or a terminal request status) at the boundary where it occurs.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Bus and agent sentinel errors
var (
	// ErrAgentNotFound indicates the addressed agent is not registered.
	ErrAgentNotFound = New("agent not registered")
	// ErrNoSubscribers indicates a broadcast reached nobody.
	ErrNoSubscribers = New("no subscribers for type")
	// ErrBusStopped indicates the bus worker is not running.
	ErrBusStopped = New("bus is not running")
	// ErrInvalidEnvelope indicates envelope validation failed.
	ErrInvalidEnvelope = New("invalid envelope")
)

// Correlator sentinel errors
var (
	// ErrRequestNotFound indicates no pending request matches the given id.
	ErrRequestNotFound = New("pending request not found")
	// ErrNoMatch indicates a response could not be correlated to any
	// pending request.
	ErrNoMatch = New("no matching pending request")
)

// Debate sentinel errors
var (
	// ErrDebateNotFound indicates an unknown debate id.
	ErrDebateNotFound = New("debate not found")
	// ErrNotEnoughParticipants indicates the participant count is below
	// the configured minimum.
	ErrNotEnoughParticipants = New("not enough participants")
	// ErrRoundClosed indicates an argument arrived for a closed round.
	ErrRoundClosed = New("round is closed")
	// ErrNotParticipant indicates the submitter is not in the round's
	// participant snapshot.
	ErrNotParticipant = New("not a debate participant")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// classified is the common core of the semantic error types.
type classified struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

func (e *classified) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *classified) Unwrap() error      { return e.cause }
func (e *classified) Severity() Severity { return e.severity }
func (e *classified) IsRetryable() bool  { return e.retryable }
func (e *classified) IsUserFacing() bool { return e.userFacing }

// Classified is implemented by errors that carry severity and behavior hints.
type Classified interface {
	error
	Severity() Severity
	IsRetryable() bool
	IsUserFacing() bool
}

// NotFoundError represents a resource that could not be found.
type NotFoundError struct {
	classified
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a NotFoundError for the given resource.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		classified: classified{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// Is matches any other NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// ValidationError represents invalid input or state.
type ValidationError struct {
	classified
	Field string
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		classified: classified{
			message:    message,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField adds the offending field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error [field=%s]: %s", e.Field, e.message)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

// Is matches other ValidationErrors and ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	return errors.Is(target, ErrInvalidInput)
}

// TimeoutError represents an operation that timed out.
type TimeoutError struct {
	classified
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a TimeoutError. Timeouts are retryable by default.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		classified: classified{
			message:    operation,
			severity:   SeverityWarning,
			retryable:  true,
			userFacing: true,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
}

// Is matches other TimeoutErrors and ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	return errors.Is(target, ErrTimeout)
}

// DeliveryError represents a failed envelope delivery. Delivery failures are
// counted and non-fatal: the producer is never blocked or notified
// synchronously.
type DeliveryError struct {
	classified
	Recipient string
	Type      string
}

// NewDeliveryError creates a DeliveryError for the given recipient and
// envelope type.
func NewDeliveryError(recipient, envelopeType string, cause error) *DeliveryError {
	return &DeliveryError{
		classified: classified{
			message:  fmt.Sprintf("deliver %s to %q", envelopeType, recipient),
			cause:    cause,
			severity: SeverityWarning,
		},
		Recipient: recipient,
		Type:      envelopeType,
	}
}

// Is matches other DeliveryErrors and the wrapped cause.
func (e *DeliveryError) Is(target error) bool {
	if _, ok := target.(*DeliveryError); ok {
		return true
	}
	return errors.Is(e.cause, target)
}

// DebateError represents a debate-protocol fault. The moderator converts
// every DebateError into an immediate generic conclusion rather than leaving
// the debate open.
type DebateError struct {
	classified
	DebateID string
	Round    int
}

// NewDebateError creates a DebateError.
func NewDebateError(message string, cause error) *DebateError {
	return &DebateError{
		classified: classified{
			message:  message,
			cause:    cause,
			severity: SeverityError,
		},
	}
}

// WithDebate adds debate context to the error.
func (e *DebateError) WithDebate(id string, round int) *DebateError {
	e.DebateID = id
	e.Round = round
	return e
}

// Error returns the formatted error message.
func (e *DebateError) Error() string {
	prefix := "debate error"
	if e.DebateID != "" {
		prefix = fmt.Sprintf("debate error [debate=%s round=%d]", e.DebateID, e.Round)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is matches other DebateErrors and the wrapped cause.
func (e *DebateError) Is(target error) bool {
	if _, ok := target.(*DebateError); ok {
		return true
	}
	return errors.Is(e.cause, target)
}

// IsRetryable reports whether the error represents a transient condition.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var c Classified
	if As(err, &c) {
		return c.IsRetryable()
	}
	return Is(err, ErrTimeout)
}

// IsUserFacing reports whether the error message is safe to show end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	var c Classified
	if As(err, &c) {
		return c.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity of err, defaulting to SeverityError for
// unclassified errors.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var c Classified
	if As(err, &c) {
		return c.Severity()
	}
	return SeverityError
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
