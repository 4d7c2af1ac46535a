// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package predict

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func predsWithPotentials(potentials ...float64) []*Prediction {
	out := make([]*Prediction, len(potentials))
	for i, p := range potentials {
		out[i] = &Prediction{Name: fmt.Sprintf("PTRN|%02d", i), Potential: p}
	}
	return out
}

func TestRankSelectsTopKDescending(t *testing.T) {
	preds := predsWithPotentials(0.3, 0.9, 0.1, 0.7, 0.5)

	top, err := Rank(preds, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, 0.9, top[0].Potential)
	assert.Equal(t, 0.7, top[1].Potential)
	assert.Equal(t, 0.5, top[2].Potential)
}

func TestRankMatchesFullSort(t *testing.T) {
	// Deterministic pseudo-random potentials, with deliberate
	// duplicates so tie handling is exercised too.
	var potentials []float64
	seed := uint64(0x9e3779b97f4a7c15)
	for i := 0; i < 200; i++ {
		seed = seed*6364136223846793005 + 1442695040888963407
		potentials = append(potentials, float64(seed%97)/97.0)
	}
	preds := predsWithPotentials(potentials...)

	type entry struct {
		pred *Prediction
		idx  int
	}
	full := make([]entry, len(preds))
	for i, p := range preds {
		full[i] = entry{pred: p, idx: i}
	}
	sort.SliceStable(full, func(i, j int) bool {
		return full[i].pred.Potential > full[j].pred.Potential
	})

	for _, k := range []int{1, 7, 50, 200, 500} {
		top, err := Rank(preds, k)
		require.NoError(t, err)

		want := k
		if want > len(preds) {
			want = len(preds)
		}
		require.Len(t, top, want, "k=%d", k)
		for i := 0; i < want; i++ {
			assert.Same(t, full[i].pred, top[i], "k=%d position %d", k, i)
		}
	}
}

func TestRankStableTies(t *testing.T) {
	preds := predsWithPotentials(0.5, 0.5, 0.9, 0.5)

	top, err := Rank(preds, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)

	// The 0.9 entry leads; the tied 0.5 entries keep input order and
	// the latest tied entry is the one cut.
	assert.Equal(t, "PTRN|02", top[0].Name)
	assert.Equal(t, "PTRN|00", top[1].Name)
	assert.Equal(t, "PTRN|01", top[2].Name)
}

func TestRankInvalidK(t *testing.T) {
	preds := predsWithPotentials(0.5)
	_, err := Rank(preds, 0)
	require.ErrorIs(t, err, ErrInvalidTopK)
	_, err = Rank(preds, -3)
	require.ErrorIs(t, err, ErrInvalidTopK)
}

func TestRankEmptyInput(t *testing.T) {
	top, err := Rank(nil, 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}
