// Package pipeline reads and writes DatasetRecord streams as JSONL, the
// canonical pipe format between eqviz commands (history -> chart).
package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/derickschaefer/eqviz/internal/model"
)

// ReadRecords reads one JSON DatasetRecord per line from r.
// Blank lines and lines starting with "//" are skipped.
func ReadRecords(r io.Reader) (model.HistoryCollection, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	var recs model.HistoryCollection
	lineNum := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lineNum++
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if !strings.HasPrefix(line, "{") {
			return nil, fmt.Errorf("line %d: expected a JSON object", lineNum)
		}
		var rec model.DatasetRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("line %d: invalid JSON: %w", lineNum, err)
		}
		recs = append(recs, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("no records read from input (is stdin empty?)")
	}
	return recs, nil
}

// WriteRecords writes recs as JSONL to w.
func WriteRecords(w io.Writer, recs model.HistoryCollection) error {
	enc := json.NewEncoder(w)
	for _, rec := range recs {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

// IsTTY returns true if stdout is a terminal (not a pipe).
func IsTTY() bool {
	return isCharDevice(os.Stdout)
}

// StdinIsTTY returns true if stdin is a terminal, meaning nothing was piped.
func StdinIsTTY() bool {
	return isCharDevice(os.Stdin)
}

func isCharDevice(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
