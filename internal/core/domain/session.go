package domain

import (
	"fmt"
	"time"
)

// SessionState is a stage of a planning session.
type SessionState string

const (
	StateCollectingParticipants SessionState = "collecting_participants"
	StateResolving              SessionState = "resolving"
	StateComputingCentroid      SessionState = "computing_centroid"
	StateValidating             SessionState = "validating"
	StateRankingVenues          SessionState = "ranking_venues"
	StateComplete               SessionState = "complete"
	StateFailed                 SessionState = "failed"
	StateCancelled              SessionState = "cancelled"
)

var nextState = map[SessionState]SessionState{
	StateCollectingParticipants: StateResolving,
	StateResolving:              StateComputingCentroid,
	StateComputingCentroid:      StateValidating,
	StateValidating:             StateRankingVenues,
	StateRankingVenues:          StateComplete,
}

// Terminal reports whether no further transition is possible.
func (s SessionState) Terminal() bool {
	return s == StateComplete || s == StateFailed || s == StateCancelled
}

// Session tracks one planning run. It moves strictly forward; replanning
// starts a new Session.
type Session struct {
	ID        string
	State     SessionState
	StartedAt time.Time
	// Transitions records when each state was entered.
	Transitions []StateTransition
}

// StateTransition is a single entry of a session's history.
type StateTransition struct {
	State SessionState `json:"state"`
	At    time.Time    `json:"at"`
}

// NewSession starts a session in CollectingParticipants.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:          id,
		State:       StateCollectingParticipants,
		StartedAt:   now,
		Transitions: []StateTransition{{State: StateCollectingParticipants, At: now}},
	}
}

// Advance moves to the next stage in the fixed sequence.
func (s *Session) Advance(now time.Time) error {
	if s.State.Terminal() {
		return fmt.Errorf("session %s is %s", s.ID, s.State)
	}
	next, ok := nextState[s.State]
	if !ok {
		return fmt.Errorf("session %s: no transition from %s", s.ID, s.State)
	}
	s.enter(next, now)
	return nil
}

// Fail moves the session to Failed.
func (s *Session) Fail(now time.Time) {
	if !s.State.Terminal() {
		s.enter(StateFailed, now)
	}
}

// Cancel moves the session to Cancelled.
func (s *Session) Cancel(now time.Time) {
	if !s.State.Terminal() {
		s.enter(StateCancelled, now)
	}
}

func (s *Session) enter(state SessionState, now time.Time) {
	s.State = state
	s.Transitions = append(s.Transitions, StateTransition{State: state, At: now})
}
