// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package badgerstore implements the storage contracts on BadgerDB.
//
// BadgerDB gives the engine low-latency embedded lookups (~100µs) with
// no external service to run, which suits the per-candidate GetPattern
// traffic the prediction builder generates.
//
// Key layout:
//
//	pat|<name>   → JSON pattern record (events, frequency, emotives)
//	sym|<symbol> → big-endian uint64 occurrence count
//	meta|...     → corpus totals and version counter
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package badgerstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/presage-ai/presage/pkg/logging"
	"github.com/presage-ai/presage/services/engine/pattern"
	"github.com/presage-ai/presage/services/engine/storage"
)

// Key prefixes and meta keys.
var (
	patPrefix = []byte("pat|")
	symPrefix = []byte("sym|")

	metaSymbolTotal   = []byte("meta|symbol_total")
	metaPatternFreq   = []byte("meta|pattern_frequency_total")
	metaCorpusVersion = []byte("meta|version")
)

// Config holds configuration for a badger-backed store.
type Config struct {
	// Path is the directory for database files. Required unless
	// InMemory is true; created if it does not exist.
	Path string

	// InMemory enables in-memory mode (no disk persistence). Useful
	// for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// SortSymbols canonicalizes intra-event symbol order when learning,
	// making pattern identity insensitive to observation order.
	SortSymbols bool

	// Logger receives BadgerDB's internal logging. If nil, it is
	// disabled.
	Logger *logging.Logger
}

// DefaultConfig returns production defaults: durable writes and
// canonical symbol ordering.
func DefaultConfig(path string) Config {
	return Config{
		Path:        path,
		SyncWrites:  true,
		SortSymbols: true,
	}
}

// InMemoryConfig returns a configuration for testing: in-memory mode,
// no sync overhead.
func InMemoryConfig() Config {
	return Config{
		InMemory:    true,
		SortSymbols: true,
	}
}

// Store is a BadgerDB-backed pattern store.
//
// # Thread Safety
//
// Safe for concurrent use; BadgerDB transactions provide isolation.
type Store struct {
	db          *badger.DB
	sortSymbols bool
}

// Compile-time contract check.
var _ storage.Store = (*Store)(nil)

// Open creates and opens a store with the given configuration.
//
// # Outputs
//
//   - *Store: The opened store. Caller must Close() when done.
//   - error: Non-nil if the path is invalid or the database cannot open.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, fmt.Errorf("path is required for persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	return &Store{db: db, sortSymbols: cfg.SortSymbols}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// storedPattern is the JSON persistence form of a pattern record. The
// name and length are derivable and not stored.
type storedPattern struct {
	Events    [][]string         `json:"events"`
	Frequency int                `json:"frequency"`
	Emotives  map[string]float64 `json:"emotives,omitempty"`
}

// Learn inserts or re-observes an event sequence.
//
// # Description
//
// A first observation stores the record with frequency 1; a repeat
// observation bumps the frequency and folds the emotives into the
// running average. Symbol occurrence counts and corpus totals advance
// on every observation, so statistics are frequency-weighted.
func (s *Store) Learn(ctx context.Context, events []pattern.Event, emotives map[string]float64) (*pattern.Pattern, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := pattern.New(events, s.sortSymbols)
	if err != nil {
		return nil, err
	}

	key := patKey(p.Name)
	var result storedPattern

	err = s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		switch {
		case err == badger.ErrKeyNotFound:
			result = storedPattern{
				Events:    eventsToSlices(p.Events),
				Frequency: 1,
				Emotives:  pattern.MergeEmotives(nil, 0, emotives),
			}
		case err != nil:
			return err
		default:
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &result)
			}); err != nil {
				return fmt.Errorf("decode pattern %s: %w", p.Name, err)
			}
			prior := result.Frequency
			result.Frequency = prior + 1
			result.Emotives = pattern.MergeEmotives(result.Emotives, prior, emotives)
		}

		encoded, err := json.Marshal(result)
		if err != nil {
			return err
		}
		if err := txn.Set(key, encoded); err != nil {
			return err
		}

		for _, sym := range p.Flatten() {
			if err := incrCounter(txn, symKey(sym), 1); err != nil {
				return err
			}
		}
		if err := incrCounter(txn, metaSymbolTotal, uint64(p.Length)); err != nil {
			return err
		}
		if err := incrCounter(txn, metaPatternFreq, 1); err != nil {
			return err
		}
		return incrCounter(txn, metaCorpusVersion, 1)
	})
	if err != nil {
		return nil, fmt.Errorf("learn pattern: %w", err)
	}

	return &pattern.Pattern{
		Name:      p.Name,
		Events:    p.Events,
		Length:    p.Length,
		Frequency: result.Frequency,
		Emotives:  result.Emotives,
	}, nil
}

// GetPattern returns the authoritative record for a name.
func (s *Store) GetPattern(ctx context.Context, name string) (*pattern.Pattern, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var stored storedPattern
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(patKey(name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, fmt.Errorf("%s: %w", name, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("get pattern %s: %w: %v", name, storage.ErrUnavailable, err)
	}

	events := slicesToEvents(stored.Events)
	return &pattern.Pattern{
		Name:      name,
		Events:    events,
		Length:    len(pattern.Flatten(events)),
		Frequency: stored.Frequency,
		Emotives:  stored.Emotives,
	}, nil
}

// Statistics builds a corpus-wide snapshot from the symbol counters.
func (s *Store) Statistics(ctx context.Context) (pattern.Statistics, error) {
	if err := ctx.Err(); err != nil {
		return pattern.Statistics{}, err
	}

	stats := pattern.Statistics{
		Probabilities: make(map[pattern.Symbol]float64),
	}

	err := s.db.View(func(txn *badger.Txn) error {
		totalOcc, err := readCounter(txn, metaSymbolTotal)
		if err != nil {
			return err
		}
		totalFreq, err := readCounter(txn, metaPatternFreq)
		if err != nil {
			return err
		}
		stats.TotalOccurrences = int(totalOcc)
		stats.TotalPatternFrequency = int(totalFreq)

		it := txn.NewIterator(badger.IteratorOptions{Prefix: symPrefix, PrefetchValues: true})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			sym := string(bytes.TrimPrefix(item.Key(), symPrefix))
			var count uint64
			if err := item.Value(func(val []byte) error {
				count = binary.BigEndian.Uint64(val)
				return nil
			}); err != nil {
				return err
			}
			if totalOcc > 0 {
				stats.Probabilities[sym] = float64(count) / float64(totalOcc)
			}
		}
		stats.TotalSymbols = len(stats.Probabilities)
		return nil
	})
	if err != nil {
		return pattern.Statistics{}, fmt.Errorf("read statistics: %w: %v", storage.ErrUnavailable, err)
	}

	return stats, nil
}

// Candidates lists every stored pattern as name → events.
func (s *Store) Candidates(ctx context.Context) (map[string][]pattern.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(map[string][]pattern.Event)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: patPrefix, PrefetchValues: true})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			name := string(bytes.TrimPrefix(item.Key(), patPrefix))
			var stored storedPattern
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &stored)
			}); err != nil {
				return fmt.Errorf("decode pattern %s: %w", name, err)
			}
			out[name] = slicesToEvents(stored.Events)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w: %v", storage.ErrUnavailable, err)
	}

	return out, nil
}

// CorpusVersion returns a token that advances on every Learn.
func (s *Store) CorpusVersion(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var version uint64
	err := s.db.View(func(txn *badger.Txn) error {
		v, err := readCounter(txn, metaCorpusVersion)
		if err != nil {
			return err
		}
		version = v
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("read corpus version: %w: %v", storage.ErrUnavailable, err)
	}

	return "v" + strconv.FormatUint(version, 10), nil
}

// ============================================================================
// Helpers
// ============================================================================

func patKey(name string) []byte {
	return append(append([]byte{}, patPrefix...), name...)
}

func symKey(sym pattern.Symbol) []byte {
	return append(append([]byte{}, symPrefix...), sym...)
}

// incrCounter adds delta to a big-endian uint64 counter key.
func incrCounter(txn *badger.Txn, key []byte, delta uint64) error {
	current := uint64(0)
	item, err := txn.Get(key)
	switch {
	case err == badger.ErrKeyNotFound:
		// First increment.
	case err != nil:
		return err
	default:
		if err := item.Value(func(val []byte) error {
			current = binary.BigEndian.Uint64(val)
			return nil
		}); err != nil {
			return err
		}
	}

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, current+delta)
	return txn.Set(key, buf)
}

// readCounter reads a counter key, treating a missing key as zero.
func readCounter(txn *badger.Txn, key []byte) (uint64, error) {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var out uint64
	err = item.Value(func(val []byte) error {
		out = binary.BigEndian.Uint64(val)
		return nil
	})
	return out, err
}

func eventsToSlices(events []pattern.Event) [][]string {
	out := make([][]string, len(events))
	for i, e := range events {
		out[i] = []string(e)
	}
	return out
}

func slicesToEvents(slices [][]string) []pattern.Event {
	out := make([]pattern.Event, len(slices))
	for i, s := range slices {
		out[i] = pattern.Event(s)
	}
	return out
}

// badgerLogger adapts our logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *logging.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
