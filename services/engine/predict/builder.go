// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package predict turns raw match output into ranked prediction
// records.
//
// The pipeline inside this package has three stages: Builder joins raw
// matches against authoritative pattern records and computes the
// count-based fields; Scorer adds the information-theoretic metrics
// from corpus statistics; Rank selects and orders the top K by
// potential.
package predict

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/presage-ai/presage/pkg/logging"
	"github.com/presage-ai/presage/services/engine/search"
	"github.com/presage-ai/presage/services/engine/storage"
)

// Builder converts raw match tuples into Prediction records by joining
// against the authoritative pattern store.
//
// # Thread Safety
//
// Safe for concurrent use; per-call state lives on the stack.
type Builder struct {
	store   storage.PatternReader
	workers int
	logger  *logging.Logger

	misses atomic.Uint64
}

// NewBuilder creates a builder over a pattern store.
//
// # Inputs
//
//   - store: Pattern lookup collaborator. Must not be nil.
//   - workers: Worker pool size; values < 1 fall back to
//     runtime.NumCPU().
//   - logger: Destination for store-miss warnings; nil falls back to
//     logging.Default().
func NewBuilder(store storage.PatternReader, workers int, logger *logging.Logger) *Builder {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Builder{
		store:   store,
		workers: workers,
		logger:  logger.With("component", "predict"),
	}
}

// Build joins each raw match with its pattern record and computes the
// count-based prediction fields.
//
// # Description
//
// Raw matches are partitioned across a worker pool symmetric to the
// search stage. Each worker performs its own store lookups; the lookups
// are the pipeline's only I/O-bound suspension point. A name the store
// no longer knows is an internal inconsistency — the search stage and
// the store are supposed to reference the same corpus snapshot — so it
// is logged and skipped rather than failing the build. A store that
// cannot serve reads at all fails the build with an error wrapping
// storage.ErrUnavailable.
//
// Output order follows input order regardless of worker interleaving.
//
// # Outputs
//
//   - []*Prediction: Built (but not yet scored) predictions.
//   - error: Context or store-availability error.
func (b *Builder) Build(ctx context.Context, raw []search.RawMatch) ([]*Prediction, error) {
	if len(raw) == 0 {
		return []*Prediction{}, nil
	}

	ctx, span := startBuildSpan(ctx, len(raw))
	defer span.End()
	start := time.Now()

	type built struct {
		idx  int
		pred *Prediction
	}

	workers := b.workers
	if workers > len(raw) {
		workers = len(raw)
	}

	results := make(chan built, workers*2)
	g, gctx := errgroup.WithContext(ctx)

	chunk := (len(raw) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(raw) {
			hi = len(raw)
		}
		if lo >= hi {
			break
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				rm := &raw[i]
				p, err := b.store.GetPattern(gctx, rm.Name)
				if err != nil {
					if errors.Is(err, storage.ErrNotFound) {
						b.misses.Add(1)
						b.logger.Warn("pattern missing from store", "pattern", rm.Name)
						continue
					}
					return fmt.Errorf("build prediction for %s: %w", rm.Name, err)
				}

				select {
				case results <- built{idx: i, pred: newPrediction(rm, p.Frequency, p.Length, p.Emotives)}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
		close(results)
	}()

	collected := make([]built, 0, len(raw))
	for r := range results {
		collected = append(collected, r)
	}
	if err := <-done; err != nil {
		return nil, err
	}

	sort.Slice(collected, func(i, j int) bool { return collected[i].idx < collected[j].idx })

	out := make([]*Prediction, 0, len(collected))
	for _, r := range collected {
		out = append(out, r.pred)
	}

	recordBuildMetrics(ctx, time.Since(start), len(out), len(raw)-len(out))
	return out, nil
}

// Misses returns the cumulative count of store-lookup misses.
func (b *Builder) Misses() uint64 {
	return b.misses.Load()
}

// newPrediction computes the count-based fields of a prediction. The
// ranking metrics stay zero until the scoring pass.
func newPrediction(rm *search.RawMatch, frequency, patternLength int, emotives map[string]float64) *Prediction {
	matches := len(rm.MatchingIntersection)
	extras := len(rm.Extras)

	evidence := 0.0
	if patternLength > 0 {
		evidence = float64(matches) / float64(patternLength)
	}

	confidence := 0.0
	if presentLen := rm.PresentLen(); presentLen > 0 {
		confidence = float64(matches) / float64(presentLen)
	}

	snr := 0.0
	if denom := 2*matches + extras; denom > 0 {
		snr = float64(2*matches-extras) / float64(denom)
	}

	return &Prediction{
		Name:                 rm.Name,
		Frequency:            frequency,
		Emotives:             emotives,
		Similarity:           rm.Ratio,
		MatchingIntersection: rm.MatchingIntersection,
		Past:                 rm.Past,
		Present:              rm.Present,
		Future:               rm.Future,
		Missing:              rm.Missing,
		Extras:               rm.Extras,
		Evidence:             evidence,
		Confidence:           confidence,
		SNR:                  snr,
		Fragmentation:        rm.Blocks - 1,
	}
}
