package lifecycle

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

// Kind classifies a lifecycle failure.
type Kind string

const (
	KindInvalidTransition    Kind = "invalid_transition"
	KindDuplicateApplication Kind = "duplicate_application"
	KindCapacityExceeded     Kind = "capacity_exceeded"
	KindOpportunityClosed    Kind = "opportunity_closed"
	KindInvalidHours         Kind = "invalid_hours"
	KindAssignmentNotActive  Kind = "assignment_not_active"
	KindAlreadyApproved      Kind = "already_approved"
	KindUnauthorized         Kind = "unauthorized"
	KindCounterUnderflow     Kind = "counter_underflow"
	KindStorageUnavailable   Kind = "storage_unavailable"
	KindNotFound             Kind = "not_found"
	KindInvalidInput         Kind = "invalid_input"
	KindResourceInUse        Kind = "resource_in_use"
)

// Error is returned by every Engine operation. Two errors match under
// errors.Is when their kinds are equal, so callers compare against the
// exported sentinels.
type Error struct {
	Kind    Kind
	Op      string
	Message string

	cause error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// StackTrace exposes the stack captured for storage failures.
func (e *Error) StackTrace() pkgerrors.StackTrace {
	type stackTracer interface {
		StackTrace() pkgerrors.StackTrace
	}
	var st stackTracer
	if errors.As(e.cause, &st) {
		return st.StackTrace()
	}
	return nil
}

var (
	ErrInvalidTransition    = &Error{Kind: KindInvalidTransition, Message: "transition not allowed from current state"}
	ErrDuplicateApplication = &Error{Kind: KindDuplicateApplication, Message: "a pending application already exists"}
	ErrCapacityExceeded     = &Error{Kind: KindCapacityExceeded, Message: "opportunity has no free slots"}
	ErrOpportunityClosed    = &Error{Kind: KindOpportunityClosed, Message: "opportunity is not accepting applications"}
	ErrInvalidHours         = &Error{Kind: KindInvalidHours, Message: "hours must be greater than 0 and at most 24"}
	ErrAssignmentNotActive  = &Error{Kind: KindAssignmentNotActive, Message: "assignment is not active"}
	ErrAlreadyApproved      = &Error{Kind: KindAlreadyApproved, Message: "time log is already approved"}
	ErrUnauthorized         = &Error{Kind: KindUnauthorized, Message: "actor is not allowed to perform this operation"}
	ErrCounterUnderflow     = &Error{Kind: KindCounterUnderflow, Message: "hours_completed would become negative"}
	ErrStorageUnavailable   = &Error{Kind: KindStorageUnavailable, Message: "storage unavailable"}
	ErrNotFound             = &Error{Kind: KindNotFound, Message: "resource not found"}
	ErrInvalidInput         = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrResourceInUse        = &Error{Kind: KindResourceInUse, Message: "resource is still in use"}
)

func newError(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a lifecycle error, or KindStorageUnavailable
// for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorageUnavailable
}

// classify turns a repository error into a lifecycle error. Missing rows
// become NotFound and anything else is a storage failure carrying a stack
// trace. Lifecycle errors pass through.
func classify(op, entity string, err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		if e.Op == "" {
			return &Error{Kind: e.Kind, Op: op, Message: e.Message, cause: e.cause}
		}
		return e
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(KindNotFound, op, "%s not found", entity)
	}
	return &Error{Kind: KindStorageUnavailable, Op: op, Message: ErrStorageUnavailable.Message, cause: pkgerrors.WithStack(err)}
}
