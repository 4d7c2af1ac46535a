// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package predict

import "errors"

// Sentinel errors for the predict package.
var (
	// ErrEmptySequence indicates a hamiltonian over a zero-length
	// sequence. That is a caller contract violation, not a numeric
	// edge case, so it is reported instead of resolving to zero.
	ErrEmptySequence = errors.New("hamiltonian of empty sequence")

	// ErrInvalidTopK indicates a non-positive max predictions value.
	ErrInvalidTopK = errors.New("max predictions must be positive")
)
