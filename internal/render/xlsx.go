package render

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/derickschaefer/eqviz/internal/model"
)

// Sheet names used in workbook output.
const (
	SheetHistory = "History"
	SheetSummary = "Summary"
	SheetTypes   = "Types"
)

// renderXLSX writes result as a workbook. History becomes one sheet of
// records; a summary gets a metrics sheet plus a type sheet with a pie chart.
func renderXLSX(w io.Writer, result *model.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	var err error
	switch result.Kind {
	case model.KindHistory:
		var hp *model.HistoryPage
		if hp, err = historyPage(result); err == nil {
			err = writeHistorySheet(f, hp)
		}
	case model.KindSummary:
		var sp *model.SummaryPage
		if sp, err = summaryPage(result); err == nil {
			err = writeSummarySheets(f, sp)
		}
	default:
		err = fmt.Errorf("xlsx output is not supported for %s results", result.Kind)
	}
	if err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeHistorySheet(f *excelize.File, hp *model.HistoryPage) error {
	if err := f.SetSheetName("Sheet1", SheetHistory); err != nil {
		return err
	}
	header := make([]interface{}, len(recordColumns))
	for i, c := range recordColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetHistory, "A1", &header); err != nil {
		return err
	}
	for i, rec := range hp.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			rec.ID.String(),
			rec.OriginalFilename,
			rec.UploadedAt,
			rec.TotalRecords,
			metricCell(rec.AvgFlowrate),
			metricCell(rec.AvgPressure),
			metricCell(rec.AvgTemperature),
			model.ReportLink(hp.APIHost, rec),
		}
		if rec.UploadedAt.IsZero() {
			row[2] = nil
		}
		if err := f.SetSheetRow(SheetHistory, cell, &row); err != nil {
			return err
		}
	}
	return boldHeader(f, SheetHistory)
}

func writeSummarySheets(f *excelize.File, sp *model.SummaryPage) error {
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	rows := [][]interface{}{{"field", "value"}}
	if sp.Record == nil {
		rows = append(rows, []interface{}{"status", TextNoUploads})
	} else {
		rec := sp.Record
		rows = append(rows,
			[]interface{}{"id", rec.ID.String()},
			[]interface{}{"original_filename", rec.OriginalFilename},
			[]interface{}{"total_records", rec.TotalRecords},
			[]interface{}{"avg_flowrate", metricCell(rec.AvgFlowrate)},
			[]interface{}{"avg_pressure", metricCell(rec.AvgPressure)},
			[]interface{}{"avg_temperature", metricCell(rec.AvgTemperature)},
			[]interface{}{"report_url", model.ReportLink(sp.APIHost, *rec)},
		)
		if !rec.UploadedAt.IsZero() {
			rows = append(rows, []interface{}{"uploaded_at", rec.UploadedAt})
		}
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetSummary, cell, &rows[i]); err != nil {
			return err
		}
	}
	if err := boldHeader(f, SheetSummary); err != nil {
		return err
	}
	if sp.Record == nil || len(sp.Record.TypeDistribution) == 0 {
		return nil
	}
	return writeTypesSheet(f, sp.Record.TypeDistribution)
}

func writeTypesSheet(f *excelize.File, dist model.TypeDistribution) error {
	if _, err := f.NewSheet(SheetTypes); err != nil {
		return err
	}
	header := []interface{}{"type", "count"}
	if err := f.SetSheetRow(SheetTypes, "A1", &header); err != nil {
		return err
	}
	for i, tc := range dist {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{tc.Name, tc.Count}
		if err := f.SetSheetRow(SheetTypes, cell, &row); err != nil {
			return err
		}
	}
	if err := boldHeader(f, SheetTypes); err != nil {
		return err
	}
	last := len(dist) + 1
	return f.AddChart(SheetTypes, "D2", &excelize.Chart{
		Type: excelize.Pie,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", SheetTypes),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", SheetTypes, last),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", SheetTypes, last),
		}},
	})
}

func boldHeader(f *excelize.File, sheet string) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	return f.SetRowStyle(sheet, 1, 1, style)
}

// metricCell leaves absent averages blank rather than writing a placeholder.
func metricCell(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
