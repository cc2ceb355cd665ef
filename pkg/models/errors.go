package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEligibleAgent is returned by routing when no agent scores above zero.
	ErrNoEligibleAgent = errors.New("no eligible agent")
	// ErrCancelled is returned when a request is cancelled or times out mid-execution.
	ErrCancelled = errors.New("request cancelled")
	// ErrModelUnavailable is returned when the language model cannot be reached at all.
	ErrModelUnavailable = errors.New("language model unavailable")
	// ErrUnknownAgent is returned when a routing decision names an unregistered agent.
	ErrUnknownAgent = errors.New("unknown agent")
	// ErrUnknownTool is returned when an agent asks for a tool that is not in its catalog.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrPermissionDenied is returned by tools that require a permission the user lacks.
	ErrPermissionDenied = errors.New("permission denied")
)

// TransientError marks a failure that may succeed on retry (timeouts, transport errors).
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a TransientError. A nil err returns nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err or anything it wraps is a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
