// Package render turns grids and run results into console text.
//
// Text and Legend produce the plain symbol output; a Palette adds lipgloss
// colours for terminals. Printer writes the per-leg report of a run in the
// order the CLI shows it: legend, initial world, legs, final world, totals.
package render
