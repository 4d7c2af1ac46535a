// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package predict

import (
	"math"

	"github.com/presage-ai/presage/services/engine/pattern"
)

// floorProbability stands in for the probability of a symbol the corpus
// has never seen, keeping log-space math away from log(0).
const floorProbability = 1e-10

// Scorer computes the information-theoretic ranking metrics from a
// corpus statistics snapshot.
//
// # Description
//
// The snapshot must reflect the same corpus version as the candidate
// set being ranked; the scorer treats it as read-only for the duration
// of one ranking pass.
type Scorer struct {
	stats pattern.Statistics
}

// NewScorer creates a scorer over a statistics snapshot.
func NewScorer(stats pattern.Statistics) *Scorer {
	return &Scorer{stats: stats}
}

// Score fills in a prediction's ranking metrics in place and computes
// its potential.
//
// # Inputs
//
//   - pred: The prediction to score. Its present region must be
//     non-empty; an empty present is a contract violation reported as
//     ErrEmptySequence.
//   - state: The observed state the prediction was matched against.
//
// # Outputs
//
//   - error: ErrEmptySequence on a malformed prediction; nil otherwise.
//     Numeric edge cases (zero denominators, log of zero) resolve to
//     0.0 per metric instead of erroring.
func (sc *Scorer) Score(pred *Prediction, state *pattern.State) error {
	present := pred.PresentFlat()

	hamiltonian, err := sc.hamiltonian(present)
	if err != nil {
		return err
	}

	pred.Entropy = sc.entropy(present)
	pred.Hamiltonian = hamiltonian
	pred.GrandHamiltonian = sc.grandHamiltonian(present)
	pred.Confluence = sc.confluence(present, pred.Frequency)
	pred.ITFDFSimilarity = sc.itfdfSimilarity(present, state.Flatten(), pred.Frequency)
	pred.Potential = potential(pred)
	return nil
}

// potential combines the per-prediction signals into the composite
// ranking score.
func potential(pred *Prediction) float64 {
	return (pred.Evidence+pred.Confidence)*pred.SNR +
		pred.ITFDFSimilarity +
		1.0/float64(pred.Fragmentation+1)
}

// entropy is the summed classic expectation of each symbol's
// corpus-wide probability.
func (sc *Scorer) entropy(seq []pattern.Symbol) float64 {
	sum := 0.0
	for _, s := range seq {
		sum += classicExpectation(sc.stats.Probability(s))
	}
	return sum
}

// hamiltonian sums, per symbol occurrence, the normalized expectation
// of that symbol's relative frequency within the sequence itself.
func (sc *Scorer) hamiltonian(seq []pattern.Symbol) (float64, error) {
	if len(seq) == 0 {
		return 0, ErrEmptySequence
	}

	counts := make(map[pattern.Symbol]int, len(seq))
	for _, s := range seq {
		counts[s]++
	}

	sum := 0.0
	for _, s := range seq {
		p := float64(counts[s]) / float64(len(seq))
		sum += expectation(p, sc.stats.TotalSymbols)
	}
	return sum, nil
}

// grandHamiltonian sums the normalized expectation of the corpus-wide
// probability of each distinct symbol in the sequence.
func (sc *Scorer) grandHamiltonian(seq []pattern.Symbol) float64 {
	seen := make(map[pattern.Symbol]bool, len(seq))
	sum := 0.0
	for _, s := range seq {
		if seen[s] {
			continue
		}
		seen[s] = true
		sum += expectation(sc.stats.Probability(s), sc.stats.TotalSymbols)
	}
	return sum
}

// conditionalProbability approximates the joint probability of the
// sequence occurring by chance under an independence assumption,
// computed in log space for numerical stability. Unseen symbols take
// the floor probability.
func (sc *Scorer) conditionalProbability(seq []pattern.Symbol) float64 {
	logSum := 0.0
	for _, s := range seq {
		p := sc.stats.Probability(s)
		if p <= 0 {
			p = floorProbability
		}
		logSum += math.Log10(p)
	}
	return math.Pow(10, logSum)
}

// confluence weighs how often the pattern occurs against how unlikely
// its present region is to occur by chance.
func (sc *Scorer) confluence(present []pattern.Symbol, frequency int) float64 {
	if sc.stats.TotalPatternFrequency <= 0 {
		return 0
	}
	pModel := float64(frequency) / float64(sc.stats.TotalPatternFrequency)
	return pModel * (1 - sc.conditionalProbability(present))
}

// itfdfSimilarity is an inverse-frequency weighted cosine comparison of
// the present region against the observed state, scaled by how much of
// the total ensemble frequency this pattern carries.
func (sc *Scorer) itfdfSimilarity(present, state []pattern.Symbol, frequency int) float64 {
	union := make(map[pattern.Symbol]bool, len(present)+len(state))
	presentCounts := make(map[pattern.Symbol]float64, len(present))
	stateCounts := make(map[pattern.Symbol]float64, len(state))
	for _, s := range present {
		presentCounts[s]++
		union[s] = true
	}
	for _, s := range state {
		stateCounts[s]++
		union[s] = true
	}

	dot, normP, normS := 0.0, 0.0, 0.0
	for s := range union {
		w := sc.stats.Probability(s)
		if w <= 0 {
			w = floorProbability
		}
		a := presentCounts[s] * w
		b := stateCounts[s] * w
		dot += a * b
		normP += a * a
		normS += b * b
	}

	similarity := 0.0
	if denom := math.Sqrt(normP) * math.Sqrt(normS); denom > 0 {
		similarity = dot / denom
	}
	distance := 1 - similarity

	weight := 0.0
	if sc.stats.TotalPatternFrequency > 0 {
		weight = float64(frequency) / float64(sc.stats.TotalPatternFrequency)
	}
	return 1 - distance*weight
}

// classicExpectation is -p·log2(p), 0 when p is not positive.
func classicExpectation(p float64) float64 {
	if p <= 0 {
		return 0
	}
	return -p * math.Log2(p)
}

// expectation is -p·logN(p), 0 unless p > 0 and the base N > 1.
func expectation(p float64, n int) float64 {
	if p <= 0 || n <= 1 {
		return 0
	}
	return -p * math.Log(p) / math.Log(float64(n))
}
