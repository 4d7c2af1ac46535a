// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package predict

import (
	"container/heap"
	"sort"
)

// ranked pairs a prediction with its position in the unranked input so
// that ties on potential resolve to the earlier entry.
type ranked struct {
	pred *Prediction
	idx  int
}

// rankedHeap is a min-heap on potential. The root is the weakest of the
// currently selected predictions; on a potential tie the later entry is
// weaker, so it is evicted first.
type rankedHeap []ranked

func (h rankedHeap) Len() int { return len(h) }

func (h rankedHeap) Less(i, j int) bool {
	if h[i].pred.Potential != h[j].pred.Potential {
		return h[i].pred.Potential < h[j].pred.Potential
	}
	return h[i].idx > h[j].idx
}

func (h rankedHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *rankedHeap) Push(x any) { *h = append(*h, x.(ranked)) }

func (h *rankedHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Rank selects the top-k predictions by potential, descending, with
// ties broken by input order.
//
// # Description
//
// Selection is a partial top-k pass over a bounded min-heap rather than
// a full sort, so ranking stays cheap when the candidate set is much
// larger than k. Only the selected k entries are sorted at the end.
//
// # Inputs
//
//   - preds: Scored predictions in their build order.
//   - k: Maximum number of predictions to return. Must be positive.
//
// # Outputs
//
//   - []*Prediction: At most k predictions, highest potential first.
//   - error: ErrInvalidTopK when k is not positive.
func Rank(preds []*Prediction, k int) ([]*Prediction, error) {
	if k <= 0 {
		return nil, ErrInvalidTopK
	}
	if len(preds) == 0 {
		return []*Prediction{}, nil
	}

	h := make(rankedHeap, 0, k)
	heap.Init(&h)
	for i, p := range preds {
		entry := ranked{pred: p, idx: i}
		if len(h) < k {
			heap.Push(&h, entry)
			continue
		}
		if weaker(h[0], entry) {
			h[0] = entry
			heap.Fix(&h, 0)
		}
	}

	selected := []ranked(h)
	sort.Slice(selected, func(i, j int) bool {
		if selected[i].pred.Potential != selected[j].pred.Potential {
			return selected[i].pred.Potential > selected[j].pred.Potential
		}
		return selected[i].idx < selected[j].idx
	})

	out := make([]*Prediction, len(selected))
	for i, r := range selected {
		out[i] = r.pred
	}
	return out, nil
}

// weaker reports whether a ranks below b, i.e. a would be evicted in
// favor of b.
func weaker(a, b ranked) bool {
	if a.pred.Potential != b.pred.Potential {
		return a.pred.Potential < b.pred.Potential
	}
	return a.idx > b.idx
}
