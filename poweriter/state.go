// SPDX-License-Identifier: MIT

package poweriter

import "fmt"

// State is a phase of the iteration state machine:
//
//	Initializing → Iterating → {Converged, MaxIterationsReached, DivergenceAborted}
//
// The last three are terminal and appear as Result.Reason.
type State uint8

const (
	StateInitializing State = iota
	StateIterating
	StateConverged
	StateMaxIterationsReached
	StateDivergenceAborted
)

var stateNames = [...]string{
	StateInitializing:         "initializing",
	StateIterating:            "iterating",
	StateConverged:            "converged",
	StateMaxIterationsReached: "max_iterations_reached",
	StateDivergenceAborted:    "divergence_aborted",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}

	return fmt.Sprintf("State(%d)", uint8(s))
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s >= StateConverged && s <= StateDivergenceAborted
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if int(s) >= len(stateNames) {
		return nil, fmt.Errorf("poweriter: unknown state %d", uint8(s))
	}

	return []byte(stateNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}

	return fmt.Errorf("poweriter: unknown state %q", text)
}
