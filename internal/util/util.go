// Package util provides shared display helpers and a small error collector.
package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Placeholders for absent values.
const (
	// MissingSummary marks an absent metric in the summary panel.
	MissingSummary = "N/A"
	// MissingCell marks an absent metric in the history table.
	MissingCell = "—"
)

// ─── Metric Formatting ────────────────────────────────────────────────────────

// FormatMetric renders an optional average as the server sent it, or missing
// when v is nil.
func FormatMetric(v *float64, missing string) string {
	if v == nil {
		return missing
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// ─── Time Formatting ──────────────────────────────────────────────────────────

const timestampLayout = "2006-01-02 15:04:05"

// FormatTimestamp renders t in the local zone. The zero time renders as "—".
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return MissingCell
	}
	return t.Local().Format(timestampLayout)
}

// ─── Sizes ────────────────────────────────────────────────────────────────────

// HumanBytes formats n as a short binary-unit size, e.g. "1.5 KiB".
func HumanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// Truncate shortens s to at most n runes, ending with "…" when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

// ─── Error Helpers ────────────────────────────────────────────────────────────

// MultiError collects multiple errors and presents them as one.
type MultiError struct {
	Errors []error
}

func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

func (m *MultiError) Err() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

func (m *MultiError) Error() string {
	msgs := make([]string, len(m.Errors))
	for i, e := range m.Errors {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}
