// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"strings"

	"github.com/presage-ai/presage/services/engine/pattern"
	"github.com/presage-ai/presage/services/engine/storage/badgerstore"
)

// openStore opens the pattern store described by the loaded config.
func openStore() (*badgerstore.Store, error) {
	sc := badgerstore.DefaultConfig(cfg.Store.Path)
	sc.InMemory = cfg.Store.InMemory
	sc.SortSymbols = cfg.Store.SortSymbols
	sc.Logger = logger
	return badgerstore.Open(sc)
}

// parseEvents turns CLI arguments into events. Each argument is one
// event; commas separate the symbols observed together.
func parseEvents(args []string) []pattern.Event {
	events := make([]pattern.Event, 0, len(args))
	for _, arg := range args {
		var ev pattern.Event
		for _, sym := range strings.Split(arg, ",") {
			sym = strings.TrimSpace(sym)
			if sym != "" {
				ev = append(ev, sym)
			}
		}
		if len(ev) > 0 {
			events = append(events, ev)
		}
	}
	return events
}
