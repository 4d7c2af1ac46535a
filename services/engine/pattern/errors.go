// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pattern

import "errors"

// Sentinel errors for the pattern package.
var (
	// ErrEmptyPattern indicates an attempt to build a pattern with no
	// events or no symbols.
	ErrEmptyPattern = errors.New("pattern has no symbols")
)
