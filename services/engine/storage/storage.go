// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package storage defines the persistence contracts the prediction
// engine consumes: pattern lookup by name, corpus-wide symbol
// statistics, and candidate-set listing.
//
// The engine only reads through these interfaces during a query. The
// write side (Learn) exists so a corpus can be built and re-observed;
// it is the minimal insert-or-bump the statistics model needs, not a
// full learning pipeline.
package storage

import (
	"context"
	"errors"

	"github.com/presage-ai/presage/services/engine/pattern"
)

// Sentinel errors for storage implementations.
var (
	// ErrNotFound indicates a pattern name with no stored record.
	ErrNotFound = errors.New("pattern not found")

	// ErrUnavailable indicates the backing store cannot be reached or
	// has been closed. Distinct from an empty result.
	ErrUnavailable = errors.New("pattern store unavailable")
)

// PatternReader fetches authoritative pattern records by name.
type PatternReader interface {
	// GetPattern returns the pattern record for a content-addressed
	// name. Returns an error wrapping ErrNotFound when no record
	// exists, or ErrUnavailable when the store cannot serve reads.
	GetPattern(ctx context.Context, name string) (*pattern.Pattern, error)
}

// StatisticsProvider supplies corpus-wide symbol statistics.
type StatisticsProvider interface {
	// Statistics returns a read-only snapshot consistent with the
	// corpus at the time of the call.
	Statistics(ctx context.Context) (pattern.Statistics, error)
}

// CandidateProvider lists patterns for the search stage.
type CandidateProvider interface {
	// Candidates returns the name → event sequence mapping for every
	// stored pattern. Pre-filtering stages may wrap this to narrow the
	// set before matching.
	Candidates(ctx context.Context) (map[string][]pattern.Event, error)

	// CorpusVersion returns an opaque token that changes whenever the
	// stored corpus changes. The search stage keys its retained
	// partition table on it.
	CorpusVersion(ctx context.Context) (string, error)
}

// Store is the full persistence surface: read side consumed by the
// engine plus the minimal write side used to build a corpus.
type Store interface {
	PatternReader
	StatisticsProvider
	CandidateProvider

	// Learn inserts an event sequence as a pattern, or bumps the
	// frequency and folds the emotives into the running average when
	// the same sequence was seen before. Returns the stored record.
	Learn(ctx context.Context, events []pattern.Event, emotives map[string]float64) (*pattern.Pattern, error)

	// Close releases the store's resources.
	Close() error
}
