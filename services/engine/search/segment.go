// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package search

import (
	"github.com/presage-ai/presage/services/engine/pattern"
	"github.com/presage-ai/presage/services/engine/sequence"
)

// evaluate matches one candidate pattern against the state.
//
// # Description
//
// Runs the sequence matcher with the pattern's flattened events as the
// reference and the state as the candidate side. When the similarity
// ratio clears the cutoff, the pattern is segmented into past, present,
// and future event spans around the matched region and the missing and
// extra symbols are derived from a second, narrower match.
//
// # Outputs
//
//   - *RawMatch: The raw match, nil when the candidate is below cutoff.
//   - error: Non-nil when the candidate record is malformed or the
//     matched region cannot be segmented. The caller drops the candidate
//     and continues.
func evaluate(state *pattern.State, name string, events []pattern.Event, cutoff float64) (*RawMatch, error) {
	flat := pattern.Flatten(events)
	if len(flat) == 0 {
		return nil, ErrEmptyPattern
	}

	stateFlat := state.Flatten()
	m := sequence.NewMatcher(flat, stateFlat)

	ratio := m.Ratio()
	if ratio < cutoff {
		return nil, nil
	}

	blocks := m.MatchingBlocks()
	real := blocks[:len(blocks)-1]
	if len(real) == 0 {
		return nil, ErrNoMatchedRegion
	}

	// State-side symbols of every matched run, in order.
	intersection := make([]pattern.Symbol, 0, len(stateFlat))
	for _, b := range real {
		intersection = append(intersection, stateFlat[b.B:b.B+b.Size]...)
	}

	// Flat boundaries of a match within the pattern: start of the first
	// block, end of the last block.
	first := real[0]
	last := real[len(real)-1]
	matchStart := first.A
	matchEnd := last.A + last.Size

	past, present, future := segmentEvents(events, matchStart, matchEnd)

	// When a match begins mid-event, the straddling event lands in past
	// even though it contains the first matched symbol. Pull it forward.
	if len(past) > 0 && past[len(past)-1].Contains(flat[matchStart]) {
		present = append([]pattern.Event{past[len(past)-1]}, present...)
		past = past[:len(past)-1]
	}

	missing, extras := diffPresent(present, stateFlat[first.B:last.B+last.Size])

	return &RawMatch{
		Name:                 name,
		Ratio:                ratio,
		Blocks:               len(real),
		MatchingIntersection: intersection,
		Past:                 past,
		Present:              present,
		Future:               future,
		Missing:              missing,
		Extras:               extras,
	}, nil
}

// segmentEvents splits an event sequence around flat symbol boundaries.
//
// Events are never split: an event joins past while the accumulated
// length is still short of matchStart, then present until matchEnd is
// covered, and future takes the rest.
func segmentEvents(events []pattern.Event, matchStart, matchEnd int) (past, present, future []pattern.Event) {
	cum := 0
	idx := 0
	for idx < len(events) && cum < matchStart {
		past = append(past, events[idx])
		cum += len(events[idx])
		idx++
	}
	for idx < len(events) && cum < matchEnd {
		present = append(present, events[idx])
		cum += len(events[idx])
		idx++
	}
	future = events[idx:]
	return past, present, future
}

// diffPresent recomputes the matcher strictly between the present region
// and the slice of the state aligned to it, and reads the missing and
// extra symbols off the opcode decomposition.
//
// Delete spans are present-only symbols (missing); insert spans are
// state-only symbols (extras); replace spans contribute to both.
func diffPresent(present []pattern.Event, alignedState []pattern.Symbol) (missing, extras []pattern.Symbol) {
	presentFlat := pattern.Flatten(present)
	m := sequence.NewMatcher(presentFlat, alignedState)

	missing = []pattern.Symbol{}
	extras = []pattern.Symbol{}
	for _, op := range m.OpCodes() {
		switch op.Tag {
		case sequence.OpDelete:
			missing = append(missing, presentFlat[op.A1:op.A2]...)
		case sequence.OpInsert:
			extras = append(extras, alignedState[op.B1:op.B2]...)
		case sequence.OpReplace:
			missing = append(missing, presentFlat[op.A1:op.A2]...)
			extras = append(extras, alignedState[op.B1:op.B2]...)
		}
	}
	return missing, extras
}
