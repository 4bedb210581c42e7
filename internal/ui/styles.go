package ui

import (
	"fmt"
	"strings"

	"github.com/alfredjeanlab/flightpath/internal/model"
)

// ANSI256 color codes.
const (
	colorAccent = 74  // blue
	colorMuted  = 245 // medium gray
	colorLow    = 114 // green
	colorMedium = 179 // amber
	colorHigh   = 167 // red
)

var noColor bool

func render(color int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", color, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderConcurrency labels an airport's concurrency class, colored by load.
func RenderConcurrency(c model.Concurrency) string {
	label := fmt.Sprintf("%d (%s)", int(c), c)
	switch c {
	case model.ConcurrencyLow:
		return render(colorLow, label)
	case model.ConcurrencyMedium:
		return render(colorMedium, label)
	case model.ConcurrencyHigh:
		return render(colorHigh, label)
	}
	return label
}

// RenderPath joins stop labels with arrows, highlighting both endpoints.
func RenderPath(labels []string) string {
	out := make([]string, len(labels))
	for i, l := range labels {
		if i == 0 || i == len(labels)-1 {
			out[i] = RenderAccent(l)
		} else {
			out[i] = l
		}
	}
	return strings.Join(out, RenderMuted(" → "))
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
