package domain

import (
	"errors"
	"fmt"
)

// ErrNoParticipantsResolved is returned when no participant address could be located.
var ErrNoParticipantsResolved = errors.New("could not locate anyone's address")

// ErrUserNotFound is returned by a UserDirectory for an unknown user ID.
var ErrUserNotFound = errors.New("user not found")

// ResolutionReason classifies a failed address lookup.
type ResolutionReason string

const (
	ReasonNotFound     ResolutionReason = "not_found"
	ReasonServiceError ResolutionReason = "service_error"
)

// ResolutionFailure is returned by the resolver when an address has no coordinate.
type ResolutionFailure struct {
	Address string
	Reason  ResolutionReason
	Err     error
}

func (e *ResolutionFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve %q: %s: %v", e.Address, e.Reason, e.Err)
	}
	return fmt.Sprintf("resolve %q: %s", e.Address, e.Reason)
}

func (e *ResolutionFailure) Unwrap() error { return e.Err }
