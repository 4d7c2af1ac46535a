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

	"github.com/presage-ai/presage/pkg/logging"
	"github.com/presage-ai/presage/services/engine/config"
)

// --- Global Command Variables ---
var (
	configPath string
	storePath  string
	inMemory   bool
	cutoff     float64
	maxPreds   int
	plain      bool

	cfg    config.Config
	logger *logging.Logger

	rootCmd = &cobra.Command{
		Use:   "presage",
		Short: "A sequence prediction engine over learned event patterns",
		Long: `Presage learns sequences of symbolic events and predicts what
comes next: given a partial observation, it finds the learned patterns
most similar to it and returns them ranked by predictive potential.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			if storePath != "" {
				cfg.Store.Path = storePath
			}
			if inMemory {
				cfg.Store.InMemory = true
			}
			logger = logging.New(logging.Config{
				Level:  logging.ParseLevel(cfg.Logging.Level),
				LogDir: cfg.Logging.Dir,
				JSON:   cfg.Logging.JSON,
				Quiet:  true,
			})
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Close()
			}
		},
	}

	loadCmd = &cobra.Command{
		Use:   "load [corpus.yaml]",
		Short: "Learn the observations in a YAML corpus file",
		Args:  cobra.ExactArgs(1),
		RunE:  runLoad,
	}

	predictCmd = &cobra.Command{
		Use:   "predict [event]...",
		Short: "Predict from a sequence of observed events",
		Long: `Each argument is one event: a comma-separated list of symbols
observed together. For example:

  presage predict smoke alarm,heat evacuate`,
		Args: cobra.MinimumNArgs(1),
		RunE: runPredict,
	}

	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show corpus-wide symbol statistics",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "override the pattern store directory")
	rootCmd.PersistentFlags().BoolVar(&inMemory, "in-memory", false, "use an ephemeral in-memory store")
	rootCmd.PersistentFlags().BoolVar(&plain, "plain", false, "disable styled output")

	predictCmd.Flags().Float64Var(&cutoff, "cutoff", 0, "recall threshold override in (0, 1]")
	predictCmd.Flags().IntVar(&maxPreds, "max", 0, "maximum predictions to return")

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(statsCmd)
}

// requireStoreConfig rejects flag combinations that would silently run
// against an empty throwaway corpus.
func requireStoreConfig(cmd *cobra.Command) error {
	if cfg.Store.InMemory && cmd.Name() != "load" {
		return fmt.Errorf("an in-memory store starts empty; %s needs a persistent --store", cmd.Name())
	}
	return nil
}
