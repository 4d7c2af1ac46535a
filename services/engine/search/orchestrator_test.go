// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package search

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presage-ai/presage/pkg/logging"
	"github.com/presage-ai/presage/services/engine/pattern"
)

func quietLogger() *logging.Logger {
	return logging.New(logging.Config{Quiet: true})
}

// ============================================================================
// Search Tests
// ============================================================================

func TestSearch_SingleEventPattern(t *testing.T) {
	// A state ["x","y"] against a one-event pattern [["x","y","z"]] must
	// survive a low cutoff with present = the whole event and missing z.
	o := NewOrchestrator(2, quietLogger())
	state := pattern.NewState(pattern.Event{"x", "y"})
	candidates := Candidates{
		"p1": {pattern.Event{"x", "y", "z"}},
	}

	out, err := o.Search(context.Background(), state, candidates, Options{Cutoff: 0.1})
	require.NoError(t, err)
	require.Len(t, out, 1)

	rm := out[0]
	assert.Equal(t, "p1", rm.Name)
	assert.Empty(t, rm.Past)
	assert.Empty(t, rm.Future)
	require.Len(t, rm.Present, 1)
	assert.Equal(t, pattern.Event{"x", "y", "z"}, rm.Present[0])
	assert.Equal(t, []pattern.Symbol{"z"}, rm.Missing)
	assert.Empty(t, rm.Extras)
	assert.Equal(t, []pattern.Symbol{"x", "y"}, rm.MatchingIntersection)
	assert.Equal(t, 1, rm.Blocks)
}

func TestSearch_EmptyCandidates(t *testing.T) {
	o := NewOrchestrator(2, quietLogger())
	state := pattern.NewState(pattern.Event{"x"})

	out, err := o.Search(context.Background(), state, Candidates{}, Options{Cutoff: 0.5})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSearch_EmptyState(t *testing.T) {
	o := NewOrchestrator(2, quietLogger())
	candidates := Candidates{"p1": {pattern.Event{"a"}}}

	out, err := o.Search(context.Background(), pattern.NewState(), candidates, Options{Cutoff: 0.5})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSearch_InvalidCutoff(t *testing.T) {
	o := NewOrchestrator(2, quietLogger())
	state := pattern.NewState(pattern.Event{"x"})
	candidates := Candidates{"p1": {pattern.Event{"a"}}}

	_, err := o.Search(context.Background(), state, candidates, Options{Cutoff: -0.1})
	assert.ErrorIs(t, err, ErrInvalidCutoff)

	_, err = o.Search(context.Background(), state, candidates, Options{Cutoff: 1.5})
	assert.ErrorIs(t, err, ErrInvalidCutoff)
}

func TestSearch_CutoffFilters(t *testing.T) {
	o := NewOrchestrator(2, quietLogger())
	state := pattern.NewState(pattern.Event{"a"}, pattern.Event{"b"})
	candidates := Candidates{
		"close": {pattern.Event{"a"}, pattern.Event{"b"}, pattern.Event{"c"}},
		"far":   {pattern.Event{"q"}, pattern.Event{"r"}},
	}

	out, err := o.Search(context.Background(), state, candidates, Options{Cutoff: 0.5})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "close", out[0].Name)
}

func TestSearch_TargetSubset(t *testing.T) {
	o := NewOrchestrator(2, quietLogger())
	state := pattern.NewState(pattern.Event{"a"})
	candidates := Candidates{
		"p1": {pattern.Event{"a"}},
		"p2": {pattern.Event{"a"}},
	}

	out, err := o.Search(context.Background(), state, candidates, Options{
		Cutoff:  0.5,
		Targets: []string{"p2"},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "p2", out[0].Name)
}

func TestSearch_MalformedCandidateSkipped(t *testing.T) {
	o := NewOrchestrator(2, quietLogger())
	state := pattern.NewState(pattern.Event{"a"})
	candidates := Candidates{
		"empty": {},
		"good":  {pattern.Event{"a"}},
	}

	out, err := o.Search(context.Background(), state, candidates, Options{Cutoff: 0.5})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "good", out[0].Name)
	assert.Equal(t, uint64(1), o.Diagnostics().Skipped)
}

func TestSearch_Cancellation(t *testing.T) {
	o := NewOrchestrator(2, quietLogger())
	state := pattern.NewState(pattern.Event{"a"})
	candidates := Candidates{"p1": {pattern.Event{"a"}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Search(ctx, state, candidates, Options{Cutoff: 0.5})
	assert.ErrorIs(t, err, context.Canceled)
}

// ============================================================================
// Segmentation Tests
// ============================================================================

func TestSegmentation_PastPresentFutureCoverPattern(t *testing.T) {
	o := NewOrchestrator(1, quietLogger())
	events := []pattern.Event{{"a"}, {"b"}, {"c"}, {"d"}}
	state := pattern.NewState(pattern.Event{"b"}, pattern.Event{"c"})

	out, err := o.Search(context.Background(), state, Candidates{"p": events}, Options{Cutoff: 0.1})
	require.NoError(t, err)
	require.Len(t, out, 1)

	rm := out[0]
	assert.Equal(t, []pattern.Event{{"a"}}, rm.Past)
	assert.Equal(t, []pattern.Event{{"b"}, {"c"}}, rm.Present)
	assert.Equal(t, []pattern.Event{{"d"}}, rm.Future)

	// Past + Present + Future must reconstruct the full pattern.
	var recombined []pattern.Event
	recombined = append(recombined, rm.Past...)
	recombined = append(recombined, rm.Present...)
	recombined = append(recombined, rm.Future...)
	assert.True(t, reflect.DeepEqual(events, recombined),
		"expected %v, got %v", events, recombined)
}

func TestSegmentation_BoundaryCorrection(t *testing.T) {
	// The match starts mid-pattern at a symbol the straddling event also
	// carries; that event must move from past into present.
	o := NewOrchestrator(1, quietLogger())
	events := []pattern.Event{{"a", "x"}, {"x", "y"}, {"z"}}
	state := pattern.NewState(pattern.Event{"x", "y"})

	out, err := o.Search(context.Background(), state, Candidates{"p": events}, Options{Cutoff: 0.1})
	require.NoError(t, err)
	require.Len(t, out, 1)

	rm := out[0]
	assert.Empty(t, rm.Past)
	assert.Equal(t, []pattern.Event{{"a", "x"}, {"x", "y"}}, rm.Present)
	assert.Equal(t, []pattern.Event{{"z"}}, rm.Future)
}

func TestDiffPresent_ReplaceCountsBothSides(t *testing.T) {
	missing, extras := diffPresent(
		[]pattern.Event{{"a", "b", "c"}},
		[]pattern.Symbol{"a", "q", "c"},
	)
	assert.Equal(t, []pattern.Symbol{"b"}, missing)
	assert.Equal(t, []pattern.Symbol{"q"}, extras)
}

// ============================================================================
// Partition Tests
// ============================================================================

func TestPartition_NearEqualShares(t *testing.T) {
	o := NewOrchestrator(3, quietLogger())
	candidates := Candidates{}
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		candidates[n] = []pattern.Event{{"s"}}
	}

	parts := o.partition(candidates, "v1")
	require.Len(t, parts, 3)

	total := 0
	for _, p := range parts {
		total += len(p)
		assert.InDelta(t, float64(7)/3.0, float64(len(p)), 1.0)
	}
	assert.Equal(t, 7, total)
}

func TestPartition_ReusedForSameVersion(t *testing.T) {
	o := NewOrchestrator(2, quietLogger())
	candidates := Candidates{
		"a": []pattern.Event{{"s"}},
		"b": []pattern.Event{{"s"}},
	}

	first := o.partition(candidates, "v1")
	second := o.partition(candidates, "v1")
	assert.True(t, reflect.DeepEqual(first, second))

	third := o.partition(candidates, "v2")
	assert.Equal(t, 2, len(third[0])+len(third[1]))
}

func TestPartition_MoreWorkersThanCandidates(t *testing.T) {
	o := NewOrchestrator(8, quietLogger())
	candidates := Candidates{"only": []pattern.Event{{"s"}}}

	parts := o.partition(candidates, "")
	require.Len(t, parts, 1)
	assert.Equal(t, []string{"only"}, parts[0])
}
