// Package model defines the canonical data types used throughout eqviz.
// These types are the single source of truth for the equipment API entities
// and the result envelope that every command returns.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ─── API Entity Types ─────────────────────────────────────────────────────────

// RecordID identifies a dataset on the server. The API emits UUID strings,
// but numeric IDs are accepted so fixtures and older servers decode too.
type RecordID string

// UnmarshalJSON accepts a JSON string, number, or null.
func (id *RecordID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = RecordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("record id: %w", err)
	}
	*id = RecordID(n.String())
	return nil
}

// String returns the raw identifier.
func (id RecordID) String() string { return string(id) }

// UUID parses the identifier as a UUID. ok is false for non-UUID IDs.
func (id RecordID) UUID() (uuid.UUID, bool) {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return uuid.Nil, false
	}
	return u, true
}

// DatasetRecord is one analysed upload as returned by the API.
// Average fields are nil when the server could not compute them.
// SummaryPDF is a path relative to the API host; empty means not yet available.
type DatasetRecord struct {
	ID               RecordID         `json:"id"`
	OriginalFilename string           `json:"original_filename"`
	UploadedAt       time.Time        `json:"uploaded_at"`
	TotalRecords     int              `json:"total_records"`
	AvgFlowrate      *float64         `json:"avg_flowrate"`
	AvgPressure      *float64         `json:"avg_pressure"`
	AvgTemperature   *float64         `json:"avg_temperature"`
	TypeDistribution TypeDistribution `json:"type_distribution"`
	SummaryPDF       string           `json:"summary_pdf,omitempty"`
}

// HasReport reports whether the server has attached a PDF to the record.
func (r DatasetRecord) HasReport() bool {
	return r.SummaryPDF != ""
}

// HistoryCollection is the upload history, most recent first, exactly as the
// API returned it. It is never re-sorted or de-duplicated client-side.
type HistoryCollection []DatasetRecord

// Latest returns the first record, or nil if the collection is empty.
func (h HistoryCollection) Latest() *DatasetRecord {
	if len(h) == 0 {
		return nil
	}
	rec := h[0]
	return &rec
}

// ─── Type Distribution ────────────────────────────────────────────────────────

// TypeCount is one entry of a type distribution.
type TypeCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TypeDistribution maps equipment type to count. It is an ordered slice
// because the on-wire JSON object order is significant for charting and a
// Go map would lose it.
type TypeDistribution []TypeCount

// Get returns the count for name.
func (d TypeDistribution) Get(name string) (int, bool) {
	for _, tc := range d {
		if tc.Name == name {
			return tc.Count, true
		}
	}
	return 0, false
}

// Total returns the sum of all counts.
func (d TypeDistribution) Total() int {
	total := 0
	for _, tc := range d {
		total += tc.Count
	}
	return total
}

// UnmarshalJSON decodes a JSON object, keeping keys in received order.
// null decodes to an empty distribution.
func (d *TypeDistribution) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("type_distribution: %w", err)
	}
	if tok == nil {
		*d = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("type_distribution: expected object, got %v", tok)
	}

	out := TypeDistribution{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("type_distribution: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("type_distribution: unexpected key %v", keyTok)
		}
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("type_distribution %q: %w", key, err)
		}
		count, err := countFromNumber(n)
		if err != nil {
			return fmt.Errorf("type_distribution %q: %w", key, err)
		}
		out = append(out, TypeCount{Name: key, Count: count})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("type_distribution: %w", err)
	}
	*d = out
	return nil
}

// MarshalJSON encodes the distribution as a JSON object in slice order.
func (d TypeDistribution) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, tc := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(tc.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", tc.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func countFromNumber(n json.Number) (int, error) {
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// ─── Upload ───────────────────────────────────────────────────────────────────

// UploadFile is a file selected for upload. Content is held in memory so a
// failed submission can be retried by the user without re-reading the file.
type UploadFile struct {
	Name    string
	Content []byte
}

// ─── Result Envelope ─────────────────────────────────────────────────────────

// ResultStats carries timing metadata for a command result.
type ResultStats struct {
	CacheHit   bool  `json:"cache_hit"`
	DurationMs int64 `json:"duration_ms"`
	Items      int   `json:"items"`
}

// Result is the uniform envelope returned by every command.
// The Data field holds the typed payload; Kind identifies what is in it.
// Renderers switch on Kind to format output appropriately.
type Result struct {
	Kind        string      `json:"kind"`
	GeneratedAt time.Time   `json:"generated_at"`
	Command     string      `json:"command"`
	Data        interface{} `json:"data"`
	Warnings    []string    `json:"warnings,omitempty"`
	Stats       ResultStats `json:"stats"`
}

// Kind constants for Result.Kind.
const (
	KindHistory = "history"
	KindSummary = "summary"
	KindReport  = "report"
)

// HistoryPage is the payload of a KindHistory result. APIHost is used to
// build absolute report links.
type HistoryPage struct {
	APIHost string            `json:"api_host"`
	Records HistoryCollection `json:"records"`
}

// SummaryPage is the payload of a KindSummary result. Record is nil when no
// uploads exist yet.
type SummaryPage struct {
	APIHost string         `json:"api_host"`
	Record  *DatasetRecord `json:"record"`
}

// ReportLink joins host and a record's summary_pdf path.
// Returns "" when the record has no report.
func ReportLink(host string, r DatasetRecord) string {
	if !r.HasReport() {
		return ""
	}
	if strings.HasPrefix(r.SummaryPDF, "http://") || strings.HasPrefix(r.SummaryPDF, "https://") {
		return r.SummaryPDF
	}
	return host + r.SummaryPDF
}

// ReportFile is the payload of a KindReport result.
type ReportFile struct {
	ID       RecordID `json:"id"`
	URL      string   `json:"url"`
	Path     string   `json:"path,omitempty"`
	Bytes    int64    `json:"bytes"`
	CacheHit bool     `json:"cache_hit"`
}
