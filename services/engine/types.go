// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

// Options tunes one prediction query. The zero value takes the
// engine's configured defaults for every field.
type Options struct {
	// Cutoff overrides the configured recall threshold when positive.
	Cutoff float64

	// MaxPredictions overrides the configured top-K cap when positive.
	MaxPredictions int

	// Targets restricts the search to the named patterns. Empty means
	// the whole corpus.
	Targets []string
}

// Diagnostics is a snapshot of the engine's cumulative side-channel
// counters. Skips are recoverable per-candidate failures that were
// logged and dropped rather than failing a query.
type Diagnostics struct {
	// CandidatesEvaluated counts candidates run through the matcher.
	CandidatesEvaluated uint64

	// CandidatesMatched counts candidates at or above the cutoff.
	CandidatesMatched uint64

	// CandidatesSkipped counts candidates dropped by match failures.
	CandidatesSkipped uint64

	// StoreMisses counts raw matches whose pattern record had vanished
	// from the store by build time.
	StoreMisses uint64

	// ScoreFailures counts predictions dropped by scoring failures.
	ScoreFailures uint64
}
