// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import "errors"

// Sentinel errors for engine input validation and pipeline failures.
var (
	// ErrInvalidCutoff indicates a recall threshold outside (0, 1].
	ErrInvalidCutoff = errors.New("recall threshold must be in (0, 1]")

	// ErrStateTooShort indicates an empty observed state; there is
	// nothing to match against.
	ErrStateTooShort = errors.New("state must contain at least one event")

	// ErrInvalidMaxPredictions indicates a non-positive top-K cap.
	ErrInvalidMaxPredictions = errors.New("max predictions must be positive")

	// ErrStoreUnavailable indicates the pattern store could not serve
	// the query. Distinct from an empty corpus, which yields an empty
	// prediction list and no error.
	ErrStoreUnavailable = errors.New("pattern store unavailable")
)
