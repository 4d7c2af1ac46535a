// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/presage-ai/presage/services/engine/pattern"
)

// corpusFile is the YAML shape the load command ingests.
type corpusFile struct {
	Observations []observation `yaml:"observations"`
}

type observation struct {
	// Events is the observed sequence; each inner list is one event's
	// symbols.
	Events [][]string `yaml:"events"`

	// Emotives are optional numeric annotations folded into the
	// pattern's running averages.
	Emotives map[string]float64 `yaml:"emotives"`
}

func runLoad(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read corpus %s: %w", args[0], err)
	}

	var corpus corpusFile
	if err := yaml.Unmarshal(data, &corpus); err != nil {
		return fmt.Errorf("parse corpus %s: %w", args[0], err)
	}
	if len(corpus.Observations) == 0 {
		return fmt.Errorf("corpus %s contains no observations", args[0])
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	learned := 0
	for i, obs := range corpus.Observations {
		events := make([]pattern.Event, 0, len(obs.Events))
		for _, ev := range obs.Events {
			if len(ev) > 0 {
				events = append(events, pattern.Event(ev))
			}
		}
		if len(events) == 0 {
			printWarn(fmt.Sprintf("observation %d is empty, skipping", i))
			continue
		}

		p, err := store.Learn(cmd.Context(), events, obs.Emotives)
		if err != nil {
			return fmt.Errorf("learn observation %d: %w", i, err)
		}
		logger.Debug("learned observation", "pattern", p.Name, "frequency", p.Frequency)
		learned++
	}

	version, err := store.CorpusVersion(cmd.Context())
	if err != nil {
		return err
	}
	printSuccess(fmt.Sprintf("learned %d observations (corpus %s)", learned, version))
	return nil
}
