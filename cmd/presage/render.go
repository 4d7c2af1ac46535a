// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/presage-ai/presage/services/engine/pattern"
	"github.com/presage-ai/presage/services/engine/predict"
)

// Presage color palette - dusk violets
var (
	colorPrimary = lipgloss.Color("#9D7CD8")
	colorBright  = lipgloss.Color("#C0A8F0")
	colorMuted   = lipgloss.Color("#565F89")
	colorSuccess = lipgloss.Color("#9ECE6A")
	colorWarning = lipgloss.Color("#E0AF68")
)

var styles = struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Value   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(colorBright),
	Header:  lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
	Value:   lipgloss.NewStyle().Foreground(colorBright),
	Muted:   lipgloss.NewStyle().Foreground(colorMuted),
	Success: lipgloss.NewStyle().Foreground(colorSuccess),
	Warning: lipgloss.NewStyle().Foreground(colorWarning),
}

// styled reports whether output should carry ANSI styling. Piped
// output and --plain stay machine-readable.
func styled() bool {
	return !plain && isatty.IsTerminal(os.Stdout.Fd())
}

func render(s lipgloss.Style, text string) string {
	if !styled() {
		return text
	}
	return s.Render(text)
}

func printSuccess(text string) {
	fmt.Println(render(styles.Success, "✓ "+text))
}

func printWarn(text string) {
	fmt.Println(render(styles.Warning, "⚠ "+text))
}

// renderPredictions writes the ranked predictions as a table.
func renderPredictions(w io.Writer, preds []*predict.Prediction) {
	if len(preds) == 0 {
		fmt.Fprintln(w, render(styles.Muted, "no predictions"))
		return
	}

	fmt.Fprintln(w, render(styles.Title, fmt.Sprintf("%d prediction(s)", len(preds))))
	fmt.Fprintln(w, render(styles.Header,
		fmt.Sprintf("%-4s %-18s %9s %9s %6s %9s", "#", "PATTERN", "POTENTIAL", "SIMILARITY", "FREQ", "CONFIDENCE")))

	for i, p := range preds {
		fmt.Fprintf(w, "%-4d %-18s %9.4f %9.4f %6d %9.4f\n",
			i+1, shortName(p.Name), p.Potential, p.Similarity, p.Frequency, p.Confidence)
		if len(p.Future) > 0 {
			fmt.Fprintf(w, "     %s %s\n",
				render(styles.Muted, "next:"), render(styles.Value, formatEvents(p.Future)))
		}
		if len(p.Missing) > 0 {
			fmt.Fprintf(w, "     %s %s\n",
				render(styles.Muted, "missing:"), strings.Join(p.Missing, " "))
		}
	}
}

// renderStatistics writes the corpus statistics summary.
func renderStatistics(w io.Writer, stats pattern.Statistics, version string) {
	fmt.Fprintln(w, render(styles.Title, "corpus statistics"))
	fmt.Fprintf(w, "%s %s\n", render(styles.Muted, "version:"), version)
	fmt.Fprintf(w, "%s %d\n", render(styles.Muted, "distinct symbols:"), stats.TotalSymbols)
	fmt.Fprintf(w, "%s %d\n", render(styles.Muted, "symbol occurrences:"), stats.TotalOccurrences)
	fmt.Fprintf(w, "%s %d\n", render(styles.Muted, "total pattern frequency:"), stats.TotalPatternFrequency)

	if len(stats.Probabilities) == 0 {
		return
	}

	// Top symbols by probability, capped so a large corpus stays
	// readable.
	type symProb struct {
		sym  pattern.Symbol
		prob float64
	}
	top := make([]symProb, 0, len(stats.Probabilities))
	for s, p := range stats.Probabilities {
		top = append(top, symProb{sym: s, prob: p})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].prob != top[j].prob {
			return top[i].prob > top[j].prob
		}
		return top[i].sym < top[j].sym
	})
	if len(top) > 10 {
		top = top[:10]
	}

	fmt.Fprintln(w, render(styles.Header, "top symbols"))
	for _, sp := range top {
		fmt.Fprintf(w, "  %-24s %.4f\n", sp.sym, sp.prob)
	}
}

// shortName abbreviates a content-addressed pattern name for display.
func shortName(name string) string {
	if len(name) <= 18 {
		return name
	}
	return name[:15] + "..."
}

// formatEvents renders events as (a b)(c) groups.
func formatEvents(events []pattern.Event) string {
	var sb strings.Builder
	for _, ev := range events {
		sb.WriteString("(")
		sb.WriteString(strings.Join(ev, " "))
		sb.WriteString(")")
	}
	return sb.String()
}
