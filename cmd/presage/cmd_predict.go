// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/presage-ai/presage/services/engine"
	"github.com/presage-ai/presage/services/engine/pattern"
)

func runPredict(cmd *cobra.Command, args []string) error {
	if err := requireStoreConfig(cmd); err != nil {
		return err
	}

	events := parseEvents(args)
	if len(events) == 0 {
		return fmt.Errorf("no symbols given to predict from")
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	eng := engine.New(store, cfg.Engine, logger)
	preds, err := eng.Predict(cmd.Context(), pattern.NewState(events...), engine.Options{
		Cutoff:         cutoff,
		MaxPredictions: maxPreds,
	})
	if err != nil {
		return err
	}

	renderPredictions(cmd.OutOrStdout(), preds)
	return nil
}
