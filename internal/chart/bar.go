package chart

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// BarOptions controls horizontal bar chart rendering.
type BarOptions struct {
	// Width is the total character width available for the chart.
	// If 0, auto-detects from $COLUMNS, falls back to 80.
	Width int
	// Title overrides DatasetLabel in the header line.
	Title string
}

// Bar renders a horizontal bar chart of d to w, one bar per type, scaled so
// the largest count fills the bar area.
//
// Output example:
//
//	Equipment Types  (10 total)
//	Pump   3   30.0%  ██████████
//	Valve  7   70.0%  ████████████████████████
func Bar(w io.Writer, d Data, opts BarOptions) error {
	if d.Empty() {
		return ErrNoData
	}
	totalWidth := opts.Width
	if totalWidth <= 0 {
		totalWidth = termWidth()
	}
	title := opts.Title
	if title == "" {
		title = d.Label
	}

	labelWidth, valWidth := 0, 0
	maxVal := 0
	for i, label := range d.Labels {
		if n := utf8.RuneCountInString(label); n > labelWidth {
			labelWidth = n
		}
		if n := len(strconv.Itoa(d.Values[i])); n > valWidth {
			valWidth = n
		}
		if d.Values[i] > maxVal {
			maxVal = d.Values[i]
		}
	}
	const pctWidth = 6 // "100.0%"

	// Bar area = total - label - value - percent - separators (6 chars)
	barAreaWidth := totalWidth - labelWidth - valWidth - pctWidth - 6
	if barAreaWidth < 4 {
		barAreaWidth = 4
	}

	total := d.Total()
	fmt.Fprintf(w, "%s  (%d total)\n", title, total)

	for i, label := range d.Labels {
		v := d.Values[i]
		pct := 0.0
		if total > 0 {
			pct = float64(v) / float64(total) * 100
		}
		barLen := 0
		if maxVal > 0 {
			barLen = int(math.Round(float64(v) / float64(maxVal) * float64(barAreaWidth)))
		}
		if barLen < 1 && v > 0 {
			barLen = 1 // every non-zero type stays visible
		}
		if barLen < 0 {
			barLen = 0
		}
		pad := labelWidth - utf8.RuneCountInString(label)
		fmt.Fprintf(w, "%s%s  %*d  %5.1f%%  %s\n",
			label, strings.Repeat(" ", pad),
			valWidth, v,
			pct,
			strings.Repeat("█", barLen),
		)
	}
	return nil
}

// termWidth returns the terminal width from $COLUMNS, defaulting to 80.
func termWidth() int {
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if n, err := strconv.Atoi(cols); err == nil && n > 20 {
			return n
		}
	}
	return 80
}
