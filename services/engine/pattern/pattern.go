// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package pattern defines the symbolic data model for the prediction engine.
//
// The vocabulary is small and layered:
//
//   - Symbol: an opaque string token.
//   - Event: an ordered set of symbols observed at one time-step.
//   - State: the current short-term window of events (the query).
//   - Pattern: a persisted, content-addressed sequence of events
//     representing a previously learned behavior.
//
// Patterns are immutable inside the engine. Their identity is a
// deterministic hash of the event sequence, so the same behavior always
// learns to the same name regardless of when or where it was observed.
package pattern

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Symbol is an opaque interned token. Symbols are value-comparable and
// order-sensitive within an event.
type Symbol = string

// Event is the set of symbols observed simultaneously at one time-step.
type Event []Symbol

// Sorted returns a copy of the event with its symbols in canonical
// (lexicographic) order. The receiver is not modified.
func (e Event) Sorted() Event {
	out := make(Event, len(e))
	copy(out, e)
	sort.Strings(out)
	return out
}

// Contains reports whether the event includes the given symbol.
func (e Event) Contains(sym Symbol) bool {
	for _, s := range e {
		if s == sym {
			return true
		}
	}
	return false
}

// Flatten concatenates a sequence of events into a single ordered symbol
// slice, preserving event order and intra-event order.
func Flatten(events []Event) []Symbol {
	total := 0
	for _, e := range events {
		total += len(e)
	}
	flat := make([]Symbol, 0, total)
	for _, e := range events {
		flat = append(flat, e...)
	}
	return flat
}

// namePrefix marks content-addressed pattern names.
const namePrefix = "PTRN|"

// HashEvents computes the deterministic content-addressed name for an
// event sequence.
//
// # Description
//
// The name is "PTRN|" followed by the hex SHA-256 of a canonical
// serialization of the events. Event boundaries participate in the hash,
// so [["a","b"]] and [["a"],["b"]] produce different names.
//
// # Inputs
//
//   - events: The event sequence. May be empty.
//
// # Outputs
//
//   - string: The content-addressed name.
func HashEvents(events []Event) string {
	h := sha256.New()
	for _, e := range events {
		h.Write([]byte(strings.Join(e, "\x1f")))
		h.Write([]byte{'\x1e'})
	}
	return namePrefix + hex.EncodeToString(h.Sum(nil))
}

// Pattern is an immutable, content-addressed sequence of events.
//
// # Description
//
// A Pattern is created once when a behavior is learned and is read-only
// afterwards. Frequency counts how many times the same event sequence has
// been observed; Emotives carries auxiliary numeric annotations averaged
// across occurrences.
//
// # Thread Safety
//
// Patterns are never mutated by the engine, so sharing across goroutines
// is safe as long as callers honor the read-only contract.
type Pattern struct {
	// Name is the content-addressed identity ("PTRN|<sha256>").
	Name string

	// Events is the ordered event sequence.
	Events []Event

	// Length is the total symbol count across all events.
	Length int

	// Frequency is how many times this pattern has been observed.
	Frequency int

	// Emotives holds auxiliary numeric annotations, averaged across
	// occurrences. May be nil when the pattern carries none.
	Emotives map[string]float64
}

// New builds a Pattern from an event sequence.
//
// # Description
//
// Computes the content-addressed name and total length. When sortSymbols
// is true each event is first put into canonical order, which makes
// learning insensitive to intra-event observation order.
//
// # Inputs
//
//   - events: The event sequence. Must contain at least one event.
//   - sortSymbols: Canonicalize intra-event symbol order before hashing.
//
// # Outputs
//
//   - *Pattern: The constructed pattern with Frequency 1.
//   - error: ErrEmptyPattern when events is empty or contains no symbols.
func New(events []Event, sortSymbols bool) (*Pattern, error) {
	if len(events) == 0 {
		return nil, ErrEmptyPattern
	}

	canonical := make([]Event, len(events))
	length := 0
	for i, e := range events {
		if sortSymbols {
			canonical[i] = e.Sorted()
		} else {
			cp := make(Event, len(e))
			copy(cp, e)
			canonical[i] = cp
		}
		length += len(e)
	}
	if length == 0 {
		return nil, ErrEmptyPattern
	}

	return &Pattern{
		Name:      HashEvents(canonical),
		Events:    canonical,
		Length:    length,
		Frequency: 1,
	}, nil
}

// Flatten returns the pattern's full symbol sequence in order.
func (p *Pattern) Flatten() []Symbol {
	return Flatten(p.Events)
}

// MergeEmotives folds a new occurrence's emotive values into a running
// average over priorCount previous occurrences.
//
// Keys present only in the incoming map enter the average as if all
// previous occurrences carried zero for that key.
func MergeEmotives(avg map[string]float64, priorCount int, incoming map[string]float64) map[string]float64 {
	if len(incoming) == 0 && len(avg) == 0 {
		return avg
	}
	if priorCount < 0 {
		priorCount = 0
	}
	merged := make(map[string]float64, len(avg)+len(incoming))
	n := float64(priorCount)
	for k, v := range avg {
		merged[k] = v * n / (n + 1)
	}
	for k, v := range incoming {
		merged[k] += v / (n + 1)
	}
	return merged
}
