// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

func runStats(cmd *cobra.Command, args []string) error {
	if err := requireStoreConfig(cmd); err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Statistics(cmd.Context())
	if err != nil {
		return err
	}
	version, err := store.CorpusVersion(cmd.Context())
	if err != nil {
		return err
	}

	renderStatistics(cmd.OutOrStdout(), stats, version)
	return nil
}
