package model

import (
	"errors"
	"fmt"
)

// ErrBudgetExceeded marks a run that stopped at the budget gate.
// It is a controlled branch, not a failure.
var ErrBudgetExceeded = errors.New("budget exceeded: verification skipped")

// Cause classifies a failure for user messaging
type Cause int

const (
	CauseGeneric  Cause = iota // Anything not attributable to cost or quota
	CauseCapacity              // Upstream quota, credit or rate limit exhausted
)

func (c Cause) String() string {
	if c == CauseCapacity {
		return "capacity"
	}
	return "generic"
}

// CapacityError tags an error as a capacity failure where it originates
type CapacityError struct {
	Err error
}

func (e *CapacityError) Error() string { return e.Err.Error() }
func (e *CapacityError) Unwrap() error { return e.Err }

// MarkCapacity tags err as a capacity failure. nil stays nil.
func MarkCapacity(err error) error {
	if err == nil {
		return nil
	}
	return &CapacityError{Err: err}
}

// CauseOf returns the tagged cause of err, CauseGeneric when untagged
func CauseOf(err error) Cause {
	var capErr *CapacityError
	if errors.As(err, &capErr) {
		return CauseCapacity
	}
	return CauseGeneric
}

// TransientError marks an error that may succeed on retry
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// MarkTransient wraps err as retryable. nil stays nil.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err (or anything it wraps) is retryable
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// GenerationError is returned when claim generation fails
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return "claim generation: " + e.Err.Error() }
func (e *GenerationError) Unwrap() error { return e.Err }

// RetrievalError is returned when the search collaborator fails
type RetrievalError struct {
	Query string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve %q: %v", e.Query, e.Err)
}
func (e *RetrievalError) Unwrap() error { return e.Err }

// JudgmentError is returned on malformed judge output or upstream failure
type JudgmentError struct {
	Claim string
	Err   error
}

func (e *JudgmentError) Error() string {
	return fmt.Sprintf("judge %q: %v", e.Claim, e.Err)
}
func (e *JudgmentError) Unwrap() error { return e.Err }

// VerificationError wraps the first failed per-claim chain
type VerificationError struct {
	Index int // Position of the failing claim in the truncated input; -1 when the run was cancelled
	Err   error
}

func (e *VerificationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("verify claims: %v", e.Err)
	}
	return fmt.Sprintf("verify claim %d: %v", e.Index+1, e.Err)
}
func (e *VerificationError) Unwrap() error { return e.Err }

// PersistenceError is returned when a ledger write fails
type PersistenceError struct {
	Op  string // "bundle", "blob", "analytics"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s %s: %v", e.Op, e.Key, e.Err)
}
func (e *PersistenceError) Unwrap() error { return e.Err }

// NotificationError is returned by notifiers; callers log and swallow it
type NotificationError struct {
	To  string
	Err error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify %s: %v", e.To, e.Err)
}
func (e *NotificationError) Unwrap() error { return e.Err }
