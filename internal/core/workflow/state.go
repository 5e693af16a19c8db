// Package workflow contains the pure business logic for the assignment workflow.
// This is part of the Functional Core - no I/O, only pure functions.
package workflow

import (
	"errors"
	"fmt"
)

// State is a workflow stage. States are totally ordered; Ready is terminal.
type State string

const (
	StateQueued    State = "queued"
	StatePlanning  State = "planning"
	StateDrafting  State = "drafting"
	StateReviewing State = "reviewing"
	StateReady     State = "ready"
)

var stateOrder = []State{StateQueued, StatePlanning, StateDrafting, StateReviewing, StateReady}

// InitialState returns the state a new workflow run starts in.
func InitialState() State {
	return StateQueued
}

// ParseState converts a persisted state name into a State.
func ParseState(s string) (State, error) {
	for _, st := range stateOrder {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown workflow state %q", s)
}

// Index returns the position of the state in the fixed order, or -1.
func (s State) Index() int {
	for i, st := range stateOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the state after s. The boolean is false when s is terminal
// or unknown.
func (s State) Next() (State, bool) {
	i := s.Index()
	if i < 0 || i+1 >= len(stateOrder) {
		return "", false
	}
	return stateOrder[i+1], true
}

// IsTerminal reports whether no further stage follows s.
func (s State) IsTerminal() bool {
	return s == StateReady
}

// Remaining returns the states still to run after s, in order.
func (s State) Remaining() []State {
	var out []State
	for next, ok := s.Next(); ok; next, ok = next.Next() {
		out = append(out, next)
	}
	return out
}

func (s State) String() string { return string(s) }

// Mode selects which templated content the planning stage produces.
type Mode string

const (
	ModeTutor   Mode = "tutor"
	ModeOutline Mode = "outline"
	ModeDraft   Mode = "draft"
	ModePolish  Mode = "polish"
)

// AllModes returns every supported mode.
func AllModes() []Mode {
	return []Mode{ModeTutor, ModeOutline, ModeDraft, ModePolish}
}

var errMode = errors.New("Mode must be one of: tutor, outline, draft, polish.")

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	for _, m := range AllModes() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", errMode
}

func (m Mode) String() string { return string(m) }
