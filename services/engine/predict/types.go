// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package predict

import "github.com/presage-ai/presage/services/engine/pattern"

// Prediction is a fully-formed prediction record: a raw match joined
// with its authoritative pattern and scored by the ranking metrics.
//
// # Description
//
// Predictions are immutable once the scoring pass completes. Ordering
// between predictions is defined by Potential (descending), with ties
// broken by stable insertion order.
type Prediction struct {
	// Name is the source pattern's content-addressed name.
	Name string

	// Frequency is how many times the source pattern was observed.
	Frequency int

	// Emotives carries the source pattern's averaged emotive values.
	Emotives map[string]float64

	// Similarity is the LCS ratio of the pattern against the state.
	Similarity float64

	// MatchingIntersection is the state-side symbols of all matched
	// runs, in order.
	MatchingIntersection []pattern.Symbol

	// Past, Present, and Future are the temporal segmentation of the
	// source pattern around the matched region. Their concatenation is
	// the pattern's full event sequence.
	Past    []pattern.Event
	Present []pattern.Event
	Future  []pattern.Event

	// Missing are symbols expected in Present but absent from the
	// observed state.
	Missing []pattern.Symbol

	// Extras are observed symbols the Present region does not account
	// for.
	Extras []pattern.Symbol

	// Evidence is matched symbols over total pattern length.
	Evidence float64

	// Confidence is matched symbols over the present region's length.
	Confidence float64

	// SNR is (2m − e) / (2m + e) for m matched and e extra symbols;
	// 0 when the denominator is 0.
	SNR float64

	// Fragmentation is the number of disjoint matched runs minus one.
	Fragmentation int

	// Information-theoretic scores, computed by the scoring pass from
	// corpus statistics. Zero until then.
	Entropy          float64
	Hamiltonian      float64
	GrandHamiltonian float64
	Confluence       float64
	ITFDFSimilarity  float64

	// Potential is the composite ranking score.
	Potential float64
}

// PresentFlat returns the present region's flattened symbols.
func (p *Prediction) PresentFlat() []pattern.Symbol {
	return pattern.Flatten(p.Present)
}
