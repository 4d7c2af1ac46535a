// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sequence

import (
	"math"
	"testing"
)

// ============================================================================
// Ratio Tests
// ============================================================================

func TestRatio_ClassicOverlap(t *testing.T) {
	m := NewMatcher(
		[]string{"A", "B", "C", "D"},
		[]string{"B", "C", "D", "E"},
	)

	if got := m.Ratio(); math.Abs(got-0.75) > 1e-12 {
		t.Errorf("expected ratio 0.75, got %v", got)
	}

	blocks := m.MatchingBlocks()
	// One real block covering B, C, D plus the sentinel.
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d: %v", len(blocks), blocks)
	}
	if blocks[0] != (Match{A: 1, B: 0, Size: 3}) {
		t.Errorf("unexpected first block: %+v", blocks[0])
	}
}

func TestRatio_SelfIsOne(t *testing.T) {
	seqs := [][]string{
		{"x"},
		{"x", "y", "z"},
		{"a", "a", "b", "a"},
	}
	for _, s := range seqs {
		m := NewMatcher(s, s)
		if got := m.Ratio(); got != 1.0 {
			t.Errorf("ratio of %v against itself = %v, want 1.0", s, got)
		}
	}
}

func TestRatio_BothEmpty(t *testing.T) {
	m := NewMatcher(nil, nil)
	if got := m.Ratio(); got != 1.0 {
		t.Errorf("ratio of two empty sequences = %v, want 1.0", got)
	}
}

func TestRatio_OneEmpty(t *testing.T) {
	m := NewMatcher([]string{"a", "b"}, nil)
	if got := m.Ratio(); got != 0.0 {
		t.Errorf("ratio against empty = %v, want 0.0", got)
	}
}

func TestRatio_Bounds(t *testing.T) {
	pairs := [][2][]string{
		{{"a", "b", "c"}, {"d", "e", "f"}},
		{{"a", "b", "c"}, {"c", "b", "a"}},
		{{"a"}, {"a", "a", "a", "a"}},
		{{"q", "q", "q"}, {"q"}},
	}
	for _, p := range pairs {
		m := NewMatcher(p[0], p[1])
		r := m.Ratio()
		if r < 0.0 || r > 1.0 {
			t.Errorf("ratio(%v, %v) = %v out of [0,1]", p[0], p[1], r)
		}
	}
}

// ============================================================================
// Matching Block Tests
// ============================================================================

func TestMatchingBlocks_MonotoneAndSentinel(t *testing.T) {
	a := []string{"a", "b", "x", "c", "d", "y", "e"}
	b := []string{"a", "b", "c", "d", "q", "e"}

	m := NewMatcher(a, b)
	blocks := m.MatchingBlocks()

	last := blocks[len(blocks)-1]
	if last != (Match{A: len(a), B: len(b), Size: 0}) {
		t.Fatalf("missing terminal sentinel, got %+v", last)
	}

	prevA, prevB := -1, -1
	for _, blk := range blocks[:len(blocks)-1] {
		if blk.Size <= 0 {
			t.Errorf("non-sentinel block with size %d", blk.Size)
		}
		if blk.A < prevA || blk.B < prevB {
			t.Errorf("blocks not monotone: %+v after (%d,%d)", blk, prevA, prevB)
		}
		prevA, prevB = blk.A+blk.Size, blk.B+blk.Size
	}
}

func TestMatchingBlocks_AdjacentMerged(t *testing.T) {
	// The divide-and-conquer can produce abutting runs; they must come
	// back as a single block.
	a := []string{"a", "b", "c", "d", "e", "f"}
	b := []string{"a", "b", "c", "d", "e", "f"}

	m := NewMatcher(a, b)
	blocks := m.MatchingBlocks()
	if len(blocks) != 2 {
		t.Fatalf("expected one merged block plus sentinel, got %v", blocks)
	}
	if blocks[0].Size != 6 {
		t.Errorf("expected merged size 6, got %d", blocks[0].Size)
	}
}

func TestFindLongestMatch_TieBreakLeftmost(t *testing.T) {
	// Two runs of length 1 ("a" at index 0 and 2); the leftmost wins.
	m := NewMatcher([]string{"a", "x", "a"}, []string{"a"})
	best := m.findLongestMatch(0, 3, 0, 1)
	if best.A != 0 || best.Size != 1 {
		t.Errorf("expected leftmost run at A=0, got %+v", best)
	}
}

func TestMatchingBlocks_RepeatedSymbols(t *testing.T) {
	a := []string{"a", "b", "a", "b", "a"}
	b := []string{"b", "a", "b"}

	m := NewMatcher(a, b)
	total := 0
	for _, blk := range m.MatchingBlocks() {
		total += blk.Size
	}
	if total != 3 {
		t.Errorf("expected 3 matched symbols, got %d", total)
	}
}

// ============================================================================
// OpCode Tests
// ============================================================================

func TestOpCodes_CoverBothSequences(t *testing.T) {
	cases := [][2][]string{
		{{"a", "b", "c", "d"}, {"b", "c", "d", "e"}},
		{{"x", "y", "z"}, {"p", "q"}},
		{{"a", "b", "a", "b"}, {"b", "a"}},
		{nil, {"only", "b"}},
		{{"only", "a"}, nil},
	}

	for _, c := range cases {
		m := NewMatcher(c[0], c[1])
		codes := m.OpCodes()

		var rebuiltA, rebuiltB []string
		prevA2, prevB2 := 0, 0
		for _, op := range codes {
			if op.A1 != prevA2 || op.B1 != prevB2 {
				t.Errorf("opcodes not contiguous at %+v", op)
			}
			prevA2, prevB2 = op.A2, op.B2
			rebuiltA = append(rebuiltA, c[0][op.A1:op.A2]...)
			rebuiltB = append(rebuiltB, c[1][op.B1:op.B2]...)
		}
		if prevA2 != len(c[0]) || prevB2 != len(c[1]) {
			t.Errorf("opcodes do not cover sequences: ended at (%d,%d)", prevA2, prevB2)
		}
		if !equalSeq(rebuiltA, c[0]) || !equalSeq(rebuiltB, c[1]) {
			t.Errorf("opcode spans do not reconstruct inputs for %v / %v", c[0], c[1])
		}
	}
}

func TestOpCodes_Tags(t *testing.T) {
	m := NewMatcher(
		[]string{"a", "b", "c", "d"},
		[]string{"a", "x", "c", "d", "e"},
	)
	codes := m.OpCodes()

	want := []OpTag{OpEqual, OpReplace, OpEqual, OpInsert}
	if len(codes) != len(want) {
		t.Fatalf("expected %d opcodes, got %v", len(want), codes)
	}
	for i, op := range codes {
		if op.Tag != want[i] {
			t.Errorf("opcode %d: got %s, want %s", i, op.Tag, want[i])
		}
	}
}

func equalSeq(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
