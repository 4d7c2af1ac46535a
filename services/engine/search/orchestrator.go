// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package search evaluates an observed state against a candidate pattern
// corpus and returns the candidates at or above a similarity cutoff.
//
// # Description
//
// The orchestrator statically partitions the candidate set across a
// fixed-size worker pool, runs the sequence matcher per partition, and
// collects per-candidate raw match data over a shared channel. Workers
// hold no shared mutable state during a search; a failing candidate is
// logged and skipped without aborting its worker.
//
// The partition table is retained between searches behind a corpus
// version token, so a stable corpus is not repartitioned on every query.
//
// # Thread Safety
//
// Orchestrator is safe for concurrent use.
package search

import (
	"context"
	"errors"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/presage-ai/presage/pkg/logging"
	"github.com/presage-ai/presage/services/engine/pattern"
)

// Options configures one search invocation.
type Options struct {
	// Cutoff is the minimum similarity ratio in [0, 1]. Candidates
	// below it are discarded.
	Cutoff float64

	// Targets, when non-empty, restricts evaluation to the named
	// candidates. Used for targeted re-querying.
	Targets []string

	// CorpusVersion identifies the corpus snapshot the candidates were
	// drawn from. When it matches the previous search's version (and
	// the candidate count is unchanged) the retained partition table is
	// reused. An empty version always repartitions.
	CorpusVersion string
}

// Orchestrator fans a candidate set out across a worker pool and fans
// the surviving raw matches back in.
type Orchestrator struct {
	workers int
	logger  *logging.Logger

	// Retained partition table, keyed by corpus version.
	mu          sync.Mutex
	partVersion string
	partCount   int
	partitions  [][]string

	evaluated atomic.Uint64
	matched   atomic.Uint64
	skipped   atomic.Uint64
}

// NewOrchestrator creates an orchestrator.
//
// # Inputs
//
//   - workers: Worker pool size. Values < 1 fall back to
//     runtime.NumCPU().
//   - logger: Destination for per-candidate warnings. A nil logger
//     falls back to logging.Default().
func NewOrchestrator(workers int, logger *logging.Logger) *Orchestrator {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Orchestrator{
		workers: workers,
		logger:  logger.With("component", "search"),
	}
}

// Search evaluates the state against every candidate and returns the raw
// matches at or above the cutoff.
//
// # Description
//
// Candidates are partitioned near-equally across the worker pool; each
// worker emits one RawMatch per surviving candidate into a shared
// channel, and the caller drains until every worker has finished.
// Result order across workers is non-deterministic; ranking restores
// determinism downstream.
//
// A context deadline degrades the search rather than failing it: the
// matches collected before the deadline are returned with a nil error.
// Explicit cancellation propagates as an error.
//
// # Inputs
//
//   - ctx: Context for cancellation and deadline.
//   - state: The observed state. An empty state yields an empty result.
//   - candidates: Name → event sequence mapping. May be pre-filtered.
//   - opts: Cutoff, optional target subset, corpus version token.
//
// # Outputs
//
//   - []RawMatch: Surviving candidates with segmentation data.
//   - error: ErrInvalidCutoff on a bad cutoff, or a context error on
//     explicit cancellation.
func (o *Orchestrator) Search(ctx context.Context, state *pattern.State, candidates Candidates, opts Options) ([]RawMatch, error) {
	if opts.Cutoff < 0 || opts.Cutoff > 1 {
		return nil, ErrInvalidCutoff
	}
	if state == nil || state.IsEmpty() || len(candidates) == 0 {
		return []RawMatch{}, nil
	}

	ctx, span := startSearchSpan(ctx, len(candidates), opts.Cutoff)
	defer span.End()
	start := time.Now()

	var targets map[string]bool
	if len(opts.Targets) > 0 {
		targets = make(map[string]bool, len(opts.Targets))
		for _, name := range opts.Targets {
			targets[name] = true
		}
	}

	partitions := o.partition(candidates, opts.CorpusVersion)

	var evaluated, skipped atomic.Int64
	results := make(chan RawMatch, o.workers*4)

	g, gctx := errgroup.WithContext(ctx)
	for _, part := range partitions {
		part := part
		g.Go(func() error {
			for _, name := range part {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				if targets != nil && !targets[name] {
					continue
				}
				events, ok := candidates[name]
				if !ok {
					continue
				}

				evaluated.Add(1)
				rm, err := evaluate(state, name, events, opts.Cutoff)
				if err != nil {
					skipped.Add(1)
					o.logger.Warn("candidate skipped", "pattern", name, "error", err)
					continue
				}
				if rm == nil {
					continue
				}

				select {
				case results <- *rm:
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

	out := make([]RawMatch, 0, len(candidates)/4+1)
	for rm := range results {
		out = append(out, rm)
	}
	err := <-done

	o.evaluated.Add(uint64(evaluated.Load()))
	o.matched.Add(uint64(len(out)))
	o.skipped.Add(uint64(skipped.Load()))

	partial := false
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// A slow corpus degrades prediction count, not the caller.
			partial = true
			o.logger.Warn("search deadline exceeded, returning partial results",
				"collected", len(out),
				"candidates", len(candidates),
			)
			err = nil
		}
	}

	recordSearchMetrics(ctx, time.Since(start), int(evaluated.Load()), len(out), int(skipped.Load()), partial)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Diagnostics returns cumulative failure accounting for this
// orchestrator. Counters span all searches since construction.
func (o *Orchestrator) Diagnostics() Diagnostics {
	return Diagnostics{
		Evaluated: o.evaluated.Load(),
		Matched:   o.matched.Load(),
		Skipped:   o.skipped.Load(),
	}
}

// partition splits the candidate names into near-equal contiguous shares
// over a deterministic (sorted) order.
//
// The table is reused when the corpus version token and candidate count
// match the previous call. An empty version always rebuilds.
func (o *Orchestrator) partition(candidates Candidates, version string) [][]string {
	o.mu.Lock()
	defer o.mu.Unlock()

	if version != "" && version == o.partVersion && len(candidates) == o.partCount {
		return o.partitions
	}

	names := make([]string, 0, len(candidates))
	for name := range candidates {
		names = append(names, name)
	}
	sort.Strings(names)

	workers := o.workers
	if workers > len(names) {
		workers = len(names)
	}
	parts := make([][]string, 0, workers)
	base := len(names) / workers
	rem := len(names) % workers
	idx := 0
	for w := 0; w < workers; w++ {
		size := base
		if w < rem {
			size++
		}
		parts = append(parts, names[idx:idx+size])
		idx += size
	}

	o.partVersion = version
	o.partCount = len(candidates)
	o.partitions = parts
	return parts
}
