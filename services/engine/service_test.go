// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presage-ai/presage/pkg/logging"
	"github.com/presage-ai/presage/services/engine/config"
	"github.com/presage-ai/presage/services/engine/pattern"
	"github.com/presage-ai/presage/services/engine/storage"
	"github.com/presage-ai/presage/services/engine/storage/badgerstore"
)

func quietLogger() *logging.Logger {
	return logging.New(logging.Config{Quiet: true})
}

func openTestEngine(t *testing.T) (*Engine, *badgerstore.Store) {
	t.Helper()
	store, err := badgerstore.Open(badgerstore.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(store, config.EngineConfig{}, quietLogger()), store
}

func learn(t *testing.T, store *badgerstore.Store, events ...pattern.Event) *pattern.Pattern {
	t.Helper()
	p, err := store.Learn(context.Background(), events, nil)
	require.NoError(t, err)
	return p
}

func TestPredictSingleCandidate(t *testing.T) {
	eng, store := openTestEngine(t)
	learn(t, store, pattern.Event{"x", "y", "z"})

	state := pattern.NewState(pattern.Event{"x", "y"})
	preds, err := eng.Predict(context.Background(), state, Options{Cutoff: 0.1})
	require.NoError(t, err)
	require.Len(t, preds, 1)

	got := preds[0]
	assert.Equal(t, []pattern.Event{{"x", "y", "z"}}, got.Present)
	assert.Equal(t, []pattern.Symbol{"z"}, got.Missing)
	assert.Empty(t, got.Past)
	assert.Empty(t, got.Future)
	assert.Equal(t, 1, got.Frequency)
	assert.Greater(t, got.Potential, 0.0)
}

func TestPredictEmptyCorpus(t *testing.T) {
	eng, _ := openTestEngine(t)

	state := pattern.NewState(pattern.Event{"x"})
	preds, err := eng.Predict(context.Background(), state, Options{})
	require.NoError(t, err)
	assert.Empty(t, preds)
}

func TestPredictCutoffFilters(t *testing.T) {
	eng, store := openTestEngine(t)
	learn(t, store, pattern.Event{"a", "b", "c"})
	learn(t, store, pattern.Event{"q", "r", "s"})

	state := pattern.NewState(pattern.Event{"a", "b"})
	preds, err := eng.Predict(context.Background(), state, Options{Cutoff: 0.5})
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, []pattern.Symbol{"a", "b"}, preds[0].MatchingIntersection)
}

func TestPredictRanksByPotential(t *testing.T) {
	eng, store := openTestEngine(t)
	// A near-exact candidate should outrank a fragmented partial one.
	learn(t, store, pattern.Event{"a"}, pattern.Event{"b"}, pattern.Event{"c"})
	learn(t, store, pattern.Event{"a"}, pattern.Event{"q"}, pattern.Event{"c"}, pattern.Event{"r"})

	state := pattern.NewState(pattern.Event{"a"}, pattern.Event{"b"}, pattern.Event{"c"})
	preds, err := eng.Predict(context.Background(), state, Options{Cutoff: 0.1})
	require.NoError(t, err)
	require.Len(t, preds, 2)
	assert.Greater(t, preds[0].Potential, preds[1].Potential)
	assert.Equal(t, 3, len(preds[0].MatchingIntersection))
}

func TestPredictTopKCap(t *testing.T) {
	eng, store := openTestEngine(t)
	for i := 0; i < 8; i++ {
		learn(t, store, pattern.Event{"a", fmt.Sprintf("extra-%d", i)})
	}

	state := pattern.NewState(pattern.Event{"a"})
	preds, err := eng.Predict(context.Background(), state, Options{Cutoff: 0.1, MaxPredictions: 3})
	require.NoError(t, err)
	assert.Len(t, preds, 3)
}

func TestPredictIdempotent(t *testing.T) {
	eng, store := openTestEngine(t)
	learn(t, store, pattern.Event{"a", "b"}, pattern.Event{"c"})
	learn(t, store, pattern.Event{"a"}, pattern.Event{"d"})
	learn(t, store, pattern.Event{"b", "c"})

	state := pattern.NewState(pattern.Event{"a", "b"}, pattern.Event{"c"})
	first, err := eng.Predict(context.Background(), state, Options{Cutoff: 0.1})
	require.NoError(t, err)
	second, err := eng.Predict(context.Background(), state, Options{Cutoff: 0.1})
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
		assert.Equal(t, first[i].Potential, second[i].Potential)
	}
}

func TestPredictBoundedStateWindow(t *testing.T) {
	store, err := badgerstore.Open(badgerstore.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	eng := New(store, config.EngineConfig{MaxStateEvents: 1}, quietLogger())

	learn(t, store, pattern.Event{"old"})
	learn(t, store, pattern.Event{"recent"})

	// Only the newest event survives the window, so the "old" pattern
	// no longer matches.
	state := pattern.NewState(pattern.Event{"old"}, pattern.Event{"recent"})
	preds, err := eng.Predict(context.Background(), state, Options{Cutoff: 0.1})
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, []pattern.Symbol{"recent"}, preds[0].MatchingIntersection)
}

func TestPredictInputValidation(t *testing.T) {
	eng, _ := openTestEngine(t)
	state := pattern.NewState(pattern.Event{"a"})

	_, err := eng.Predict(context.Background(), state, Options{Cutoff: -0.5})
	assert.ErrorIs(t, err, ErrInvalidCutoff)

	_, err = eng.Predict(context.Background(), state, Options{Cutoff: 1.5})
	assert.ErrorIs(t, err, ErrInvalidCutoff)

	_, err = eng.Predict(context.Background(), state, Options{MaxPredictions: -1})
	assert.ErrorIs(t, err, ErrInvalidMaxPredictions)

	_, err = eng.Predict(context.Background(), nil, Options{})
	assert.ErrorIs(t, err, ErrStateTooShort)

	_, err = eng.Predict(context.Background(), pattern.NewState(), Options{})
	assert.ErrorIs(t, err, ErrStateTooShort)
}

// unavailableStore fails every read to model a store that cannot be
// reached.
type unavailableStore struct{}

func (unavailableStore) GetPattern(context.Context, string) (*pattern.Pattern, error) {
	return nil, fmt.Errorf("get: %w", storage.ErrUnavailable)
}

func (unavailableStore) Statistics(context.Context) (pattern.Statistics, error) {
	return pattern.Statistics{}, fmt.Errorf("stats: %w", storage.ErrUnavailable)
}

func (unavailableStore) Candidates(context.Context) (map[string][]pattern.Event, error) {
	return nil, fmt.Errorf("candidates: %w", storage.ErrUnavailable)
}

func (unavailableStore) CorpusVersion(context.Context) (string, error) {
	return "", fmt.Errorf("version: %w", storage.ErrUnavailable)
}

func (unavailableStore) Learn(context.Context, []pattern.Event, map[string]float64) (*pattern.Pattern, error) {
	return nil, fmt.Errorf("learn: %w", storage.ErrUnavailable)
}

func (unavailableStore) Close() error { return nil }

func TestPredictStoreUnavailable(t *testing.T) {
	eng := New(unavailableStore{}, config.EngineConfig{}, quietLogger())
	state := pattern.NewState(pattern.Event{"a"})

	_, err := eng.Predict(context.Background(), state, Options{})
	require.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestDiagnosticsAccumulate(t *testing.T) {
	eng, store := openTestEngine(t)
	learn(t, store, pattern.Event{"a", "b"})

	state := pattern.NewState(pattern.Event{"a"})
	_, err := eng.Predict(context.Background(), state, Options{Cutoff: 0.1})
	require.NoError(t, err)

	d := eng.Diagnostics()
	assert.Equal(t, uint64(1), d.CandidatesEvaluated)
	assert.Equal(t, uint64(1), d.CandidatesMatched)
	assert.Zero(t, d.CandidatesSkipped)
	assert.Zero(t, d.StoreMisses)
	assert.Zero(t, d.ScoreFailures)
}
