// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package sequence implements longest-common-subsequence matching over
// symbol slices.
//
// # Description
//
// Matcher compares two ordered symbol sequences and reports their
// matching blocks, an opcode decomposition, and a similarity ratio in
// [0, 1]. It is the primitive underneath candidate search: a pattern
// survives the search stage when its ratio against the observed state
// clears the caller's cutoff.
//
// Every symbol participates in matching. There is no junk heuristic and
// no popularity-based pruning: predictions ride on rare symbols at least
// as much as on common ones, so discarding "too frequent" elements the
// way diff tools do would silently bias the match.
//
// # Thread Safety
//
// A Matcher is not safe for concurrent use. It is cheap to construct;
// create one per comparison.
package sequence

import "sort"

// Match is a run of identical symbols: A[a:a+Size] == B[b:b+Size].
type Match struct {
	// A is the starting index in the reference sequence.
	A int

	// B is the starting index in the candidate sequence.
	B int

	// Size is the run length. The terminal sentinel block has Size 0.
	Size int
}

// OpTag classifies an opcode span.
type OpTag byte

const (
	// OpEqual means A[A1:A2] == B[B1:B2].
	OpEqual OpTag = 'e'

	// OpReplace means A[A1:A2] should be replaced by B[B1:B2].
	OpReplace OpTag = 'r'

	// OpInsert means B[B1:B2] is present only in the candidate.
	OpInsert OpTag = 'i'

	// OpDelete means A[A1:A2] is present only in the reference.
	OpDelete OpTag = 'd'
)

// String returns the difflib-style tag name.
func (t OpTag) String() string {
	switch t {
	case OpEqual:
		return "equal"
	case OpReplace:
		return "replace"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// OpCode is one span of the gap-filling decomposition of two sequences.
// The spans of all opcodes cover both sequences completely and
// contiguously: A1 of each opcode equals A2 of the previous one, and
// likewise for B.
type OpCode struct {
	Tag OpTag
	A1  int
	A2  int
	B1  int
	B2  int
}

// Matcher computes LCS-based similarity between a reference sequence A
// and a candidate sequence B.
type Matcher struct {
	a, b []string

	// b2j maps each distinct symbol of b to the ascending list of
	// positions where it occurs.
	b2j map[string][]int

	matchingBlocks []Match
	opCodes        []OpCode
}

// NewMatcher creates a Matcher over the two sequences.
//
// # Inputs
//
//   - a: The reference sequence (typically a pattern's flattened symbols).
//   - b: The candidate sequence (typically the observed state).
//
// Empty sequences are valid. Two empty sequences have ratio 1.0.
func NewMatcher(a, b []string) *Matcher {
	m := &Matcher{}
	m.SetSeqs(a, b)
	return m
}

// SetSeqs replaces both sequences and invalidates cached results.
func (m *Matcher) SetSeqs(a, b []string) {
	m.SetSeqA(a)
	m.SetSeqB(b)
}

// SetSeqA replaces the reference sequence.
func (m *Matcher) SetSeqA(a []string) {
	m.a = a
	m.matchingBlocks = nil
	m.opCodes = nil
}

// SetSeqB replaces the candidate sequence and rebuilds the position index.
func (m *Matcher) SetSeqB(b []string) {
	m.b = b
	m.matchingBlocks = nil
	m.opCodes = nil
	m.chainB()
}

// chainB builds the symbol → positions index over b.
func (m *Matcher) chainB() {
	m.b2j = make(map[string][]int, len(m.b))
	for j, sym := range m.b {
		m.b2j[sym] = append(m.b2j[sym], j)
	}
}

// findLongestMatch finds the longest matching run within the window
// a[alo:ahi] x b[blo:bhi].
//
// # Description
//
// Classic rolling run-length recurrence: walking a left to right, the
// length of the run ending at (i, j) is one more than the run ending at
// (i-1, j-1). Among runs of equal maximal length the one starting at the
// smallest reference index wins, then the smallest candidate index; both
// fall out of the ascending scan order, so only strictly longer runs
// displace the current best.
//
// # Outputs
//
//   - Match: The best run. Size is 0 when the window shares no symbols;
//     A and B then sit at the window start.
func (m *Matcher) findLongestMatch(alo, ahi, blo, bhi int) Match {
	besti, bestj, bestSize := alo, blo, 0
	j2len := map[int]int{}

	for i := alo; i < ahi; i++ {
		newJ2len := map[int]int{}
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newJ2len[j] = k
			if k > bestSize {
				besti, bestj, bestSize = i-k+1, j-k+1, k
			}
		}
		j2len = newJ2len
	}

	return Match{A: besti, B: bestj, Size: bestSize}
}

// MatchingBlocks returns the maximal set of non-overlapping matching
// runs, ascending in both indices, with adjacent runs merged and a
// zero-length sentinel at (len(a), len(b), 0).
//
// # Description
//
// Divide and conquer over an explicit work queue: find the longest match
// in a window, then recurse into the sub-windows strictly left and
// strictly right of it. The accumulated matches are sorted and adjacent
// runs collapsed into one.
//
// The result is cached; subsequent calls are O(1) until the sequences
// change.
func (m *Matcher) MatchingBlocks() []Match {
	if m.matchingBlocks != nil {
		return m.matchingBlocks
	}

	type window struct{ alo, ahi, blo, bhi int }
	queue := []window{{0, len(m.a), 0, len(m.b)}}
	var matched []Match

	for len(queue) > 0 {
		w := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		best := m.findLongestMatch(w.alo, w.ahi, w.blo, w.bhi)
		if best.Size == 0 {
			continue
		}
		matched = append(matched, best)
		if w.alo < best.A && w.blo < best.B {
			queue = append(queue, window{w.alo, best.A, w.blo, best.B})
		}
		if best.A+best.Size < w.ahi && best.B+best.Size < w.bhi {
			queue = append(queue, window{best.A + best.Size, w.ahi, best.B + best.Size, w.bhi})
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].A != matched[j].A {
			return matched[i].A < matched[j].A
		}
		return matched[i].B < matched[j].B
	})

	// Collapse adjacent runs into one block.
	blocks := make([]Match, 0, len(matched)+1)
	var cur Match
	for _, b := range matched {
		if cur.Size > 0 && cur.A+cur.Size == b.A && cur.B+cur.Size == b.B {
			cur.Size += b.Size
			continue
		}
		if cur.Size > 0 {
			blocks = append(blocks, cur)
		}
		cur = b
	}
	if cur.Size > 0 {
		blocks = append(blocks, cur)
	}

	blocks = append(blocks, Match{A: len(m.a), B: len(m.b), Size: 0})
	m.matchingBlocks = blocks
	return blocks
}

// OpCodes returns the gap-filling decomposition of the two sequences
// into equal, replace, insert, and delete spans.
//
// Concatenating the reference-side spans reconstructs the reference
// exactly, and likewise for the candidate side.
func (m *Matcher) OpCodes() []OpCode {
	if m.opCodes != nil {
		return m.opCodes
	}

	i, j := 0, 0
	blocks := m.MatchingBlocks()
	codes := make([]OpCode, 0, len(blocks)*2)

	for _, b := range blocks {
		tag := OpTag(0)
		switch {
		case i < b.A && j < b.B:
			tag = OpReplace
		case i < b.A:
			tag = OpDelete
		case j < b.B:
			tag = OpInsert
		}
		if tag != 0 {
			codes = append(codes, OpCode{Tag: tag, A1: i, A2: b.A, B1: j, B2: b.B})
		}
		i, j = b.A+b.Size, b.B+b.Size
		if b.Size > 0 {
			codes = append(codes, OpCode{Tag: OpEqual, A1: b.A, A2: i, B1: b.B, B2: j})
		}
	}

	m.opCodes = codes
	return codes
}

// Ratio returns the similarity of the two sequences in [0, 1].
//
// Ratio is 2*M / (len(a)+len(b)) where M is the total length of all
// matched blocks. Two empty sequences have ratio 1.0; if exactly one
// side is empty the ratio is 0.
func (m *Matcher) Ratio() float64 {
	matches := 0
	for _, b := range m.MatchingBlocks() {
		matches += b.Size
	}
	return calculateRatio(matches, len(m.a)+len(m.b))
}

func calculateRatio(matches, length int) float64 {
	if length == 0 {
		return 1.0
	}
	return 2.0 * float64(matches) / float64(length)
}
