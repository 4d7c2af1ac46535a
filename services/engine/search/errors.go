// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package search

import "errors"

// Sentinel errors for the search package.
var (
	// ErrInvalidCutoff indicates a cutoff outside [0, 1].
	ErrInvalidCutoff = errors.New("cutoff must be in [0, 1]")

	// ErrEmptyPattern indicates a candidate whose event sequence
	// flattens to nothing; such a record is malformed.
	ErrEmptyPattern = errors.New("candidate pattern has no symbols")

	// ErrNoMatchedRegion indicates a candidate that cleared the cutoff
	// without a single matched block, so no temporal segmentation
	// exists. Only reachable at cutoff 0.
	ErrNoMatchedRegion = errors.New("no matched region to segment")
)
