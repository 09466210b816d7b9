package codeact

import (
	"fmt"
	"strings"
	"time"
)

// LoopError is the base error type for all codeact errors.
type LoopError struct {
	Message string
	Cause   error
}

func (e *LoopError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *LoopError) Unwrap() error {
	return e.Cause
}

// SandboxSyntaxError reports that a submitted script failed to parse or
// resolve. Recoverable: fed back into the history as error text.
type SandboxSyntaxError struct{ LoopError }

// SandboxRuntimeError reports that a submitted script failed during
// evaluation, including capability denials raised inside the sandbox.
// Recoverable: fed back into the history as error text.
type SandboxRuntimeError struct{ LoopError }

// SubmissionShapeError reports that a submitted payload was not a keyed
// mapping of output fields.
type SubmissionShapeError struct{ LoopError }

// MissingFieldsError reports declared output fields absent from a
// submission payload.
type MissingFieldsError struct {
	LoopError
	Missing []string
}

// CoercionFailure describes one output field whose value could not be
// coerced to its declared type.
type CoercionFailure struct {
	Field        string
	DeclaredType FieldType
	ReceivedType string
	Detail       string
}

// TypeCoercionError aggregates every per-field coercion failure from one
// submission. Validation never fails fast on the first bad field.
type TypeCoercionError struct {
	LoopError
	Failures []CoercionFailure
}

func newTypeCoercionError(failures []CoercionFailure) *TypeCoercionError {
	var sb strings.Builder
	sb.WriteString("submitted values do not match the declared output types:")
	for _, f := range failures {
		fmt.Fprintf(&sb, "\n  - %s: expected %s, got %s (%s)", f.Field, f.DeclaredType, f.ReceivedType, f.Detail)
	}
	return &TypeCoercionError{
		LoopError: LoopError{Message: sb.String()},
		Failures:  failures,
	}
}

// BudgetExceededError reports that the sub-call ceiling was reached. Fatal
// to the offending call only: the script sees it as an ordinary failure and
// the loop continues.
type BudgetExceededError struct {
	LoopError
	Limit int
}

func newBudgetExceededError(limit int) *BudgetExceededError {
	return &BudgetExceededError{
		LoopError: LoopError{Message: fmt.Sprintf("sub-call budget of %d calls exhausted", limit)},
		Limit:     limit,
	}
}

// TimeoutError reports that the run exceeded its time ceiling. Fatal to the
// whole run, propagated to the caller without retry.
type TimeoutError struct {
	LoopError
	Elapsed time.Duration
	Limit   time.Duration
}

// IsRecoverable reports whether an error stays inside the loop as textual
// feedback the model can react to, rather than aborting the run.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	switch err.(type) {
	case *SandboxSyntaxError:
		return true
	case *SandboxRuntimeError:
		return true
	case *SubmissionShapeError:
		return true
	case *MissingFieldsError:
		return true
	case *TypeCoercionError:
		return true
	case *BudgetExceededError:
		// The offending script call fails, but the run survives.
		return true
	case *TimeoutError:
		return false
	default:
		return false
	}
}
