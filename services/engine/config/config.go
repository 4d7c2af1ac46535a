// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config holds the engine's tunable parameters and loads them
// from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// configValidate is the validator instance for engine configuration.
var configValidate = validator.New()

// Config is the engine's full configuration.
type Config struct {
	// Engine holds query-time parameters.
	Engine EngineConfig `yaml:"engine"`

	// Store holds persistence parameters.
	Store StoreConfig `yaml:"store"`

	// Logging holds log output parameters.
	Logging LoggingConfig `yaml:"logging"`

	// Telemetry holds trace/metric export parameters.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// EngineConfig tunes a prediction query.
type EngineConfig struct {
	// RecallThreshold is the minimum similarity ratio a candidate
	// pattern must reach against the state. Range (0, 1].
	RecallThreshold float64 `yaml:"recall_threshold" validate:"gt=0,lte=1"`

	// MaxPredictions is the top-K cap on returned predictions.
	MaxPredictions int `yaml:"max_predictions" validate:"gt=0"`

	// Workers sizes the search and build worker pools. Zero means one
	// per CPU.
	Workers int `yaml:"workers" validate:"gte=0"`

	// MaxStateEvents bounds the observed state; older events roll off.
	// Zero disables the bound.
	MaxStateEvents int `yaml:"max_state_events" validate:"gte=0"`
}

// StoreConfig tunes the pattern store.
type StoreConfig struct {
	// Path is the on-disk location of the store.
	Path string `yaml:"path"`

	// InMemory selects an ephemeral store, ignoring Path.
	InMemory bool `yaml:"in_memory"`

	// SortSymbols canonicalizes each learned event's symbols before
	// hashing, so symbol order within an event does not change pattern
	// identity.
	SortSymbols bool `yaml:"sort_symbols"`
}

// LoggingConfig tunes log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`

	// JSON switches the console handler to JSON lines.
	JSON bool `yaml:"json"`

	// Dir is where log files are written; empty uses ~/.presage/logs.
	Dir string `yaml:"dir"`
}

// TelemetryConfig tunes trace and metric export.
type TelemetryConfig struct {
	// Exporter is one of none, stdout, prometheus, otlp.
	Exporter string `yaml:"exporter" validate:"omitempty,oneof=none stdout prometheus otlp"`

	// Endpoint is the OTLP gRPC target, used when Exporter is otlp.
	Endpoint string `yaml:"endpoint"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		Engine: EngineConfig{
			RecallThreshold: 0.1,
			MaxPredictions:  100,
			Workers:         0,
			MaxStateEvents:  0,
		},
		Store: StoreConfig{
			Path:        filepath.Join(home, ".presage", "store"),
			SortSymbols: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			Exporter: "none",
		},
	}
}

// Validate checks the configuration's field constraints.
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Load reads a YAML config file over the defaults.
//
// # Description
//
// Fields absent from the file keep their default values. An empty path
// returns the defaults unchanged; a path that does not exist is an
// error, since the caller asked for that specific file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
