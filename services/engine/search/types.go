// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package search

import "github.com/presage-ai/presage/services/engine/pattern"

// Candidates maps pattern names to their event sequences.
//
// Upstream narrowing stages (or an unfiltered "all patterns" listing)
// supply this mapping; the orchestrator needs nothing else about a
// candidate to match it.
type Candidates map[string][]pattern.Event

// RawMatch is the per-candidate output of the search stage.
//
// # Description
//
// RawMatch captures everything the prediction builder needs without
// re-running the matcher: the temporal segmentation of the pattern
// against the observed state, the symbols the two sides share, and the
// symbols each side has that the other lacks within the matched region.
//
// The invariant Past + Present + Future == the pattern's full event
// sequence holds for every RawMatch, in order, with no gaps or overlaps.
type RawMatch struct {
	// Name is the matched pattern's content-addressed name.
	Name string

	// Ratio is the LCS similarity of the pattern against the state.
	Ratio float64

	// Blocks is the number of disjoint matched runs (sentinel excluded).
	Blocks int

	// MatchingIntersection is the state-side symbols of every matched
	// run, concatenated in order.
	MatchingIntersection []pattern.Symbol

	// Past holds the pattern events entirely before the matched region.
	Past []pattern.Event

	// Present holds the pattern events overlapping the matched region.
	Present []pattern.Event

	// Future holds the pattern events entirely after the matched region.
	Future []pattern.Event

	// Missing are symbols expected in Present but absent from the
	// aligned portion of the state.
	Missing []pattern.Symbol

	// Extras are state symbols inside the matched region that Present
	// does not account for.
	Extras []pattern.Symbol
}

// PresentLen returns the flattened symbol count of the present region.
func (r *RawMatch) PresentLen() int {
	n := 0
	for _, e := range r.Present {
		n += len(e)
	}
	return n
}

// Diagnostics summarizes search-side failure accounting across the
// lifetime of an orchestrator. Counters only ever grow.
type Diagnostics struct {
	// Evaluated is the number of candidate patterns run through the
	// matcher.
	Evaluated uint64

	// Matched is the number of candidates at or above the cutoff.
	Matched uint64

	// Skipped is the number of candidates dropped because their match
	// computation failed.
	Skipped uint64
}
