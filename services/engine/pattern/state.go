// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pattern

// State is the current, not-yet-learned window of recent events.
//
// Matching operates on the flattened symbol sequence; the event
// boundaries are retained for temporal segmentation of matched patterns.
type State struct {
	events []Event
	flat   []Symbol
}

// NewState builds a State from a sequence of events.
//
// The events are copied; later mutation of the inputs does not affect
// the state. The flattened form is computed once up front since every
// candidate comparison reads it.
func NewState(events ...Event) *State {
	copied := make([]Event, len(events))
	for i, e := range events {
		cp := make(Event, len(e))
		copy(cp, e)
		copied[i] = cp
	}
	return &State{
		events: copied,
		flat:   Flatten(copied),
	}
}

// Events returns the event sequence. Callers must not mutate it.
func (s *State) Events() []Event {
	return s.events
}

// Flatten returns the state's ordered symbol sequence. Callers must not
// mutate it.
func (s *State) Flatten() []Symbol {
	return s.flat
}

// Len returns the total symbol count across all events.
func (s *State) Len() int {
	return len(s.flat)
}

// IsEmpty reports whether the state carries no symbols.
func (s *State) IsEmpty() bool {
	return len(s.flat) == 0
}
