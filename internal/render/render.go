// Package render converts Result values into human-readable or machine-parseable
// output. Each format is a separate function; the top-level Render dispatcher
// selects based on the format string.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/derickschaefer/eqviz/internal/chart"
	"github.com/derickschaefer/eqviz/internal/model"
	"github.com/derickschaefer/eqviz/internal/pipeline"
	"github.com/derickschaefer/eqviz/internal/util"
)

// Format constants matching --format flag values.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
	FormatTSV   = "tsv"
	FormatMD    = "md"
	FormatXLSX  = "xlsx"
)

// Formats lists every accepted --format value.
var Formats = []string{FormatTable, FormatJSON, FormatJSONL, FormatCSV, FormatTSV, FormatMD, FormatXLSX}

// Placeholder text for empty views.
const (
	TextNoUploads     = "No uploads yet. Upload a CSV file to get started."
	TextNoHistory     = "Upload history will appear here."
	TextNoTypeData    = "No equipment type data detected."
	TextReportPending = "Pending"
)

// ValidFormat reports whether f is an accepted format name.
func ValidFormat(f string) bool {
	for _, v := range Formats {
		if v == f {
			return true
		}
	}
	return false
}

// Render writes result to w in the specified format.
func Render(w io.Writer, result *model.Result, format string) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, result)
	case FormatJSONL:
		return renderJSONL(w, result)
	case FormatCSV:
		return renderDelimited(w, result, ',')
	case FormatTSV:
		return renderDelimited(w, result, '\t')
	case FormatMD:
		return renderMarkdown(w, result)
	case FormatXLSX:
		return renderXLSX(w, result)
	default:
		return renderTable(w, result)
	}
}

// RenderTo writes to stdout by default; if path is non-empty, writes to file.
func RenderTo(path string, result *model.Result, format string) error {
	if path == "" {
		if format == FormatXLSX {
			return fmt.Errorf("xlsx output needs --out FILE")
		}
		return Render(os.Stdout, result, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	return Render(f, result, format)
}

// ─── Payload access ──────────────────────────────────────────────────────────

func historyPage(result *model.Result) (*model.HistoryPage, error) {
	hp, ok := result.Data.(*model.HistoryPage)
	if !ok {
		return nil, fmt.Errorf("unexpected data type for %s: %T", result.Kind, result.Data)
	}
	return hp, nil
}

func summaryPage(result *model.Result) (*model.SummaryPage, error) {
	sp, ok := result.Data.(*model.SummaryPage)
	if !ok {
		return nil, fmt.Errorf("unexpected data type for %s: %T", result.Kind, result.Data)
	}
	return sp, nil
}

func reportFile(result *model.Result) (*model.ReportFile, error) {
	rf, ok := result.Data.(*model.ReportFile)
	if !ok {
		return nil, fmt.Errorf("unexpected data type for %s: %T", result.Kind, result.Data)
	}
	return rf, nil
}

// ─── JSON ─────────────────────────────────────────────────────────────────────

func renderJSON(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// ─── JSONL ────────────────────────────────────────────────────────────────────

// renderJSONL emits one DatasetRecord per line, the format `eqviz chart`
// reads back from stdin.
func renderJSONL(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	switch result.Kind {
	case model.KindHistory:
		hp, err := historyPage(result)
		if err != nil {
			return err
		}
		return pipeline.WriteRecords(w, hp.Records)
	case model.KindSummary:
		sp, err := summaryPage(result)
		if err != nil {
			return err
		}
		if sp.Record == nil {
			return nil
		}
		return enc.Encode(sp.Record)
	default:
		return enc.Encode(result.Data)
	}
}

// ─── Table ────────────────────────────────────────────────────────────────────

func renderTable(w io.Writer, result *model.Result) error {
	switch result.Kind {
	case model.KindHistory:
		hp, err := historyPage(result)
		if err != nil {
			return err
		}
		return renderHistoryTable(w, hp)
	case model.KindSummary:
		sp, err := summaryPage(result)
		if err != nil {
			return err
		}
		return renderSummaryTable(w, sp)
	case model.KindReport:
		rf, err := reportFile(result)
		if err != nil {
			return err
		}
		return renderReportTable(w, rf)
	default:
		// Fallback: JSON
		return renderJSON(w, result)
	}
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)
	return tw
}

func renderHistoryTable(w io.Writer, hp *model.HistoryPage) error {
	if len(hp.Records) == 0 {
		fmt.Fprintln(w, TextNoHistory)
		return nil
	}
	tw := newTable(w, []string{"#", "ID", "FILENAME", "UPLOADED", "TOTAL", "FLOWRATE", "PRESSURE", "TEMPERATURE", "REPORT"})
	tw.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
	})
	for i, rec := range hp.Records {
		tw.Append([]string{
			strconv.Itoa(i + 1),
			shortID(rec.ID),
			util.Truncate(rec.OriginalFilename, 40),
			util.FormatTimestamp(rec.UploadedAt),
			strconv.Itoa(rec.TotalRecords),
			util.FormatMetric(rec.AvgFlowrate, util.MissingCell),
			util.FormatMetric(rec.AvgPressure, util.MissingCell),
			util.FormatMetric(rec.AvgTemperature, util.MissingCell),
			reportCell(rec),
		})
	}
	tw.Render()
	return nil
}

func renderSummaryTable(w io.Writer, sp *model.SummaryPage) error {
	if sp.Record == nil {
		fmt.Fprintln(w, TextNoUploads)
		return nil
	}
	rec := sp.Record
	tw := newTable(w, []string{"FIELD", "VALUE"})
	tw.SetColWidth(80)
	rows := [][]string{
		{"Dataset", rec.ID.String()},
		{"Filename", rec.OriginalFilename},
		{"Uploaded", util.FormatTimestamp(rec.UploadedAt)},
		{"Total Equipment", strconv.Itoa(rec.TotalRecords)},
		{"Avg Flowrate", util.FormatMetric(rec.AvgFlowrate, util.MissingSummary)},
		{"Avg Pressure", util.FormatMetric(rec.AvgPressure, util.MissingSummary)},
		{"Avg Temperature", util.FormatMetric(rec.AvgTemperature, util.MissingSummary)},
	}
	if link := model.ReportLink(sp.APIHost, *rec); link != "" {
		rows = append(rows, []string{"Report", link})
	} else {
		rows = append(rows, []string{"Report", TextReportPending})
	}
	for _, r := range rows {
		tw.Append(r)
	}
	tw.Render()

	d := chart.Project(rec)
	if d.Empty() {
		fmt.Fprintln(w, TextNoTypeData)
		return nil
	}
	tt := newTable(w, []string{"TYPE", "COUNT"})
	tt.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	for i, label := range d.Labels {
		tt.Append([]string{label, strconv.Itoa(d.Values[i])})
	}
	tt.Render()
	return nil
}

func renderReportTable(w io.Writer, rf *model.ReportFile) error {
	tw := newTable(w, []string{"FIELD", "VALUE"})
	tw.SetColWidth(80)
	src := "live"
	if rf.CacheHit {
		src = "cache"
	}
	rows := [][]string{
		{"Dataset", rf.ID.String()},
		{"URL", rf.URL},
	}
	if rf.Path != "" {
		rows = append(rows, []string{"Saved To", rf.Path})
	}
	rows = append(rows,
		[]string{"Size", util.HumanBytes(rf.Bytes)},
		[]string{"Source", src},
	)
	for _, r := range rows {
		tw.Append(r)
	}
	tw.Render()
	return nil
}

// ─── CSV / TSV ────────────────────────────────────────────────────────────────

var recordColumns = []string{
	"id", "original_filename", "uploaded_at", "total_records",
	"avg_flowrate", "avg_pressure", "avg_temperature", "report_url",
}

func recordRow(host string, rec model.DatasetRecord) []string {
	uploaded := ""
	if !rec.UploadedAt.IsZero() {
		uploaded = rec.UploadedAt.Format(time.RFC3339)
	}
	return []string{
		rec.ID.String(),
		rec.OriginalFilename,
		uploaded,
		strconv.Itoa(rec.TotalRecords),
		util.FormatMetric(rec.AvgFlowrate, ""),
		util.FormatMetric(rec.AvgPressure, ""),
		util.FormatMetric(rec.AvgTemperature, ""),
		model.ReportLink(host, rec),
	}
}

func renderDelimited(w io.Writer, result *model.Result, sep rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = sep

	switch result.Kind {
	case model.KindHistory:
		hp, err := historyPage(result)
		if err != nil {
			return err
		}
		_ = cw.Write(recordColumns)
		for _, rec := range hp.Records {
			_ = cw.Write(recordRow(hp.APIHost, rec))
		}
	case model.KindSummary:
		sp, err := summaryPage(result)
		if err != nil {
			return err
		}
		// One row per equipment type, with the dataset columns repeated.
		_ = cw.Write(append(append([]string{}, recordColumns...), "type", "count"))
		if sp.Record != nil {
			base := recordRow(sp.APIHost, *sp.Record)
			if len(sp.Record.TypeDistribution) == 0 {
				_ = cw.Write(append(append([]string{}, base...), "", ""))
			}
			for _, tc := range sp.Record.TypeDistribution {
				_ = cw.Write(append(append([]string{}, base...), tc.Name, strconv.Itoa(tc.Count)))
			}
		}
	case model.KindReport:
		rf, err := reportFile(result)
		if err != nil {
			return err
		}
		_ = cw.Write([]string{"id", "url", "path", "bytes", "cache_hit"})
		_ = cw.Write([]string{rf.ID.String(), rf.URL, rf.Path, strconv.FormatInt(rf.Bytes, 10), strconv.FormatBool(rf.CacheHit)})
	default:
		// Fallback: serialize as JSON on a single line
		b, _ := json.Marshal(result.Data)
		_ = cw.Write([]string{string(b)})
	}

	cw.Flush()
	return cw.Error()
}

// ─── Markdown ─────────────────────────────────────────────────────────────────

func renderMarkdown(w io.Writer, result *model.Result) error {
	switch result.Kind {
	case model.KindHistory:
		hp, err := historyPage(result)
		if err != nil {
			return err
		}
		if len(hp.Records) == 0 {
			fmt.Fprintln(w, TextNoHistory)
			return nil
		}
		fmt.Fprintf(w, "| FILENAME | UPLOADED | TOTAL | FLOWRATE | PRESSURE | TEMPERATURE | REPORT |\n|----|----|----|----|----|----|----|\n")
		for _, rec := range hp.Records {
			report := TextReportPending
			if link := model.ReportLink(hp.APIHost, rec); link != "" {
				report = "[PDF](" + link + ")"
			}
			fmt.Fprintf(w, "| %s | %s | %d | %s | %s | %s | %s |\n",
				mdEscape(rec.OriginalFilename),
				util.FormatTimestamp(rec.UploadedAt),
				rec.TotalRecords,
				util.FormatMetric(rec.AvgFlowrate, util.MissingCell),
				util.FormatMetric(rec.AvgPressure, util.MissingCell),
				util.FormatMetric(rec.AvgTemperature, util.MissingCell),
				report,
			)
		}
		return nil
	case model.KindSummary:
		sp, err := summaryPage(result)
		if err != nil {
			return err
		}
		if sp.Record == nil {
			fmt.Fprintln(w, TextNoUploads)
			return nil
		}
		rec := sp.Record
		fmt.Fprintf(w, "## %s\n\n", mdEscape(rec.OriginalFilename))
		fmt.Fprintf(w, "| METRIC | VALUE |\n|----|----|\n")
		fmt.Fprintf(w, "| Total Equipment | %d |\n", rec.TotalRecords)
		fmt.Fprintf(w, "| Avg Flowrate | %s |\n", util.FormatMetric(rec.AvgFlowrate, util.MissingSummary))
		fmt.Fprintf(w, "| Avg Pressure | %s |\n", util.FormatMetric(rec.AvgPressure, util.MissingSummary))
		fmt.Fprintf(w, "| Avg Temperature | %s |\n", util.FormatMetric(rec.AvgTemperature, util.MissingSummary))
		if len(rec.TypeDistribution) == 0 {
			fmt.Fprintf(w, "\n%s\n", TextNoTypeData)
			return nil
		}
		fmt.Fprintf(w, "\n| TYPE | COUNT |\n|----|----|\n")
		for _, tc := range rec.TypeDistribution {
			fmt.Fprintf(w, "| %s | %d |\n", mdEscape(tc.Name), tc.Count)
		}
		return nil
	default:
		return renderJSON(w, result)
	}
}

// ─── Warnings / Stats Footer ─────────────────────────────────────────────────

// PrintFooter writes warnings and stats to w when verbose mode is on.
func PrintFooter(w io.Writer, result *model.Result, verbose bool) {
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "⚠  %s\n", warn)
	}
	if verbose {
		src := "live"
		if result.Stats.CacheHit {
			src = "cache"
		}
		fmt.Fprintf(w, "\n[%s • %d items • %dms • %s]\n",
			result.GeneratedAt.Format(time.RFC3339),
			result.Stats.Items,
			result.Stats.DurationMs,
			src,
		)
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func reportCell(rec model.DatasetRecord) string {
	if rec.HasReport() {
		return "PDF"
	}
	return TextReportPending
}

// shortID keeps the first UUID group so history rows stay narrow.
func shortID(id model.RecordID) string {
	s := id.String()
	if _, ok := id.UUID(); ok {
		return s[:8]
	}
	return s
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
