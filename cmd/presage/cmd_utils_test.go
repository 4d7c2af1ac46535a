// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/presage-ai/presage/services/engine/pattern"
	"github.com/presage-ai/presage/services/engine/predict"
)

func TestParseEvents(t *testing.T) {
	events := parseEvents([]string{"smoke", "alarm,heat", " evacuate , "})
	assert.Equal(t, []pattern.Event{
		{"smoke"},
		{"alarm", "heat"},
		{"evacuate"},
	}, events)
}

func TestParseEventsDropsEmpty(t *testing.T) {
	assert.Empty(t, parseEvents([]string{"", " , "}))
}

func TestShortName(t *testing.T) {
	assert.Equal(t, "short", shortName("short"))
	long := "PTRN|0123456789abcdef0123456789abcdef"
	assert.Len(t, shortName(long), 18)
	assert.True(t, strings.HasSuffix(shortName(long), "..."))
}

func TestFormatEvents(t *testing.T) {
	got := formatEvents([]pattern.Event{{"a", "b"}, {"c"}})
	assert.Equal(t, "(a b)(c)", got)
}

func TestRenderPredictionsPlain(t *testing.T) {
	plain = true
	defer func() { plain = false }()

	var buf bytes.Buffer
	renderPredictions(&buf, []*predict.Prediction{{
		Name:       "PTRN|abc",
		Potential:  2.5,
		Similarity: 0.75,
		Frequency:  3,
		Confidence: 0.5,
		Future:     []pattern.Event{{"z"}},
		Missing:    []pattern.Symbol{"y"},
	}})

	out := buf.String()
	assert.Contains(t, out, "PTRN|abc")
	assert.Contains(t, out, "2.5000")
	assert.Contains(t, out, "(z)")
	assert.Contains(t, out, "missing: y")
	assert.NotContains(t, out, "\x1b[")
}

func TestRenderPredictionsEmpty(t *testing.T) {
	plain = true
	defer func() { plain = false }()

	var buf bytes.Buffer
	renderPredictions(&buf, nil)
	assert.Contains(t, buf.String(), "no predictions")
}
