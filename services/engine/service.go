// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package engine is the caller-facing surface of the prediction
// pipeline: search, build, score, rank.
//
// An Engine owns no corpus. It reads candidates, pattern records, and
// symbol statistics through the storage interfaces, so any store
// implementation (embedded badger, a remote service, a test fake) can
// back it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/presage-ai/presage/pkg/logging"
	"github.com/presage-ai/presage/services/engine/config"
	"github.com/presage-ai/presage/services/engine/pattern"
	"github.com/presage-ai/presage/services/engine/predict"
	"github.com/presage-ai/presage/services/engine/search"
	"github.com/presage-ai/presage/services/engine/storage"
)

// Engine runs prediction queries against a pattern store.
//
// # Thread Safety
//
// Safe for concurrent use. Queries share the store and the cumulative
// diagnostics counters but no per-query state.
type Engine struct {
	store    storage.Store
	searcher *search.Orchestrator
	builder  *predict.Builder
	logger   *logging.Logger

	cutoff         float64
	maxPredictions int
	maxStateEvents int

	scoreFailures atomic.Uint64
}

// New creates an engine over a store.
//
// # Inputs
//
//   - store: Pattern persistence. Must not be nil.
//   - cfg: Engine parameters; zero-value fields take config.Default().
//   - logger: Destination for query logs; nil falls back to
//     logging.Default().
func New(store storage.Store, cfg config.EngineConfig, logger *logging.Logger) *Engine {
	defaults := config.Default().Engine
	if cfg.RecallThreshold <= 0 {
		cfg.RecallThreshold = defaults.RecallThreshold
	}
	if cfg.MaxPredictions <= 0 {
		cfg.MaxPredictions = defaults.MaxPredictions
	}
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.With("component", "engine")

	return &Engine{
		store:          store,
		searcher:       search.NewOrchestrator(cfg.Workers, logger),
		builder:        predict.NewBuilder(store, cfg.Workers, logger),
		logger:         logger,
		cutoff:         cfg.RecallThreshold,
		maxPredictions: cfg.MaxPredictions,
		maxStateEvents: cfg.MaxStateEvents,
	}
}

// Predict runs the full pipeline for one observed state.
//
// # Description
//
// Candidates are searched for similarity against the state, surviving
// matches are joined with their pattern records, scored against a
// statistics snapshot, and the top K by potential are returned in
// descending order. Repeated calls with identical inputs and an
// unchanged corpus yield identical output.
//
// An empty corpus, or a corpus with no candidate at or above the
// cutoff, yields an empty slice and no error. A store that cannot
// serve reads yields an error wrapping ErrStoreUnavailable.
//
// # Inputs
//
//   - ctx: Deadline governs the search stage; on expiry the query
//     degrades to whatever was collected rather than failing.
//   - state: Observed events to predict from. Must be non-empty.
//   - opts: Per-query overrides; zero values take engine defaults.
//
// # Outputs
//
//   - []*predict.Prediction: At most MaxPredictions entries, highest
//     potential first.
//   - error: Validation, store-availability, or context error.
func (e *Engine) Predict(ctx context.Context, state *pattern.State, opts Options) ([]*predict.Prediction, error) {
	cutoff := e.cutoff
	if opts.Cutoff != 0 {
		cutoff = opts.Cutoff
	}
	maxPredictions := e.maxPredictions
	if opts.MaxPredictions != 0 {
		maxPredictions = opts.MaxPredictions
	}

	if cutoff <= 0 || cutoff > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCutoff, cutoff)
	}
	if maxPredictions <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxPredictions, maxPredictions)
	}
	if state == nil || state.IsEmpty() {
		return nil, ErrStateTooShort
	}

	// A bounded state window keeps match cost flat as observations
	// accumulate; older events roll off the front.
	if e.maxStateEvents > 0 && len(state.Events()) > e.maxStateEvents {
		events := state.Events()
		state = pattern.NewState(events[len(events)-e.maxStateEvents:]...)
	}

	queryID := uuid.NewString()
	logger := e.logger.With("query_id", queryID)
	ctx, span := startPredictSpan(ctx, queryID, state.Len())
	defer span.End()
	start := time.Now()

	candidates, err := e.store.Candidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	version, err := e.store.CorpusVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	raw, err := e.searcher.Search(ctx, state, candidates, search.Options{
		Cutoff:        cutoff,
		Targets:       opts.Targets,
		CorpusVersion: version,
	})
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}

	// Worker interleaving makes raw-match order arbitrary; fix it
	// before the build stage so identical queries build identical
	// prediction sequences.
	sort.Slice(raw, func(i, j int) bool { return raw[i].Name < raw[j].Name })

	preds, err := e.builder.Build(ctx, raw)
	if err != nil {
		if errors.Is(err, storage.ErrUnavailable) {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return nil, fmt.Errorf("build predictions: %w", err)
	}

	stats, err := e.store.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	scorer := predict.NewScorer(stats)
	scored := preds[:0]
	for _, pred := range preds {
		if err := scorer.Score(pred, state); err != nil {
			e.scoreFailures.Add(1)
			logger.Warn("dropping unscorable prediction",
				"pattern", pred.Name, "error", err.Error())
			continue
		}
		scored = append(scored, pred)
	}

	ranked, err := predict.Rank(scored, maxPredictions)
	if err != nil {
		return nil, fmt.Errorf("rank predictions: %w", err)
	}

	logger.Info("prediction query complete",
		"candidates", len(candidates),
		"matched", len(raw),
		"returned", len(ranked),
		"duration_ms", time.Since(start).Milliseconds())
	recordPredictMetrics(ctx, time.Since(start), len(ranked))
	return ranked, nil
}

// Diagnostics returns the cumulative side-channel counters across all
// queries on this engine.
func (e *Engine) Diagnostics() Diagnostics {
	sd := e.searcher.Diagnostics()
	return Diagnostics{
		CandidatesEvaluated: sd.Evaluated,
		CandidatesMatched:   sd.Matched,
		CandidatesSkipped:   sd.Skipped,
		StoreMisses:         e.builder.Misses(),
		ScoreFailures:       e.scoreFailures.Load(),
	}
}
