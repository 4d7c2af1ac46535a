// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pattern

// Statistics is a read-only snapshot of corpus-wide symbol statistics.
//
// # Description
//
// Ranking metrics weight symbols by how common they are across the whole
// learned corpus. A Statistics value must reflect the same corpus version
// as the candidate set being ranked; the engine never mutates it.
type Statistics struct {
	// TotalSymbols is the number of distinct symbols in the corpus.
	TotalSymbols int

	// TotalOccurrences is the total symbol occurrence count across all
	// learned patterns.
	TotalOccurrences int

	// Probabilities maps each symbol to its corpus-wide occurrence
	// probability (occurrences / TotalOccurrences).
	Probabilities map[Symbol]float64

	// TotalPatternFrequency is the aggregate frequency across all
	// patterns (each relearn of a pattern counts once).
	TotalPatternFrequency int
}

// Probability returns the corpus-wide occurrence probability of a symbol,
// or 0 for a symbol the corpus has never seen.
func (s Statistics) Probability(sym Symbol) float64 {
	return s.Probabilities[sym]
}
