package policy

import (
	"errors"
	"fmt"
)

// Kind classifies the errors PolicyCore can return.
type Kind int

const (
	// InvalidInput marks an empty tree, broken linkage, equal from/to
	// indices, or an out-of-range index.
	InvalidInput Kind = iota
	// NotInitialised marks an operation attempted on a default-constructed
	// (never-built, never-deserialised) Policy.
	NotInitialised
	// NotCovered marks a cold-start query where no node matched the
	// observed configuration.
	NotCovered
	// NoSolution marks a query whose shortest-path predecessor is -1: the
	// graph is disconnected from the sink at that node.
	NoSolution
	// InternalError marks a linkage-check failure, an out-of-range
	// probability, or a logic-impossible branch.
	InternalError
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "InvalidInput"
	case NotInitialised:
		return "NotInitialised"
	case NotCovered:
		return "NotCovered"
	case NoSolution:
		return "NoSolution"
	case InternalError:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// Error is the error type returned by every PolicyCore operation that can
// fail. It wraps an optional underlying cause so errors.Is/errors.As work
// against both the Kind and the cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("policy: %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("policy: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err carries the given Kind, so callers can write
// errors.Is(err, policy.NotCovered) ... except Kind isn't an error. Use
// KindOf instead; this helper exists for the common case of comparing two
// *Error values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf extracts the Kind from err, if err is (or wraps) a *Error.
// Returns (_, false) for any other error, including nil.
func KindOf(err error) (Kind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}
