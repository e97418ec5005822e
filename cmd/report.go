package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/eqviz/internal/app"
	"github.com/derickschaefer/eqviz/internal/model"
	"github.com/derickschaefer/eqviz/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Resolve and download generated PDF reports",
	Long: `Commands for the PDF report the server generates for each upload.

Datasets are referenced by position in the recent history (#1 is the newest),
by full ID, or by a unique ID prefix. Downloaded reports are cached locally;
see 'eqviz cache'.`,
}

// ─── report url ───────────────────────────────────────────────────────────────

var reportURLCmd = &cobra.Command{
	Use:   "url <ID|#N>",
	Short: "Print the absolute URL of a dataset's PDF report",
	Example: `  eqviz --username ops --password secret report url '#1'
  eqviz --username ops --password secret report url 3f2a9c1e`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		st, err := loadHistory(cmd.Context(), deps)
		if err != nil {
			return err
		}
		rec, err := resolveRecord(st.History, args[0])
		if err != nil {
			return err
		}
		link, err := deps.Client.ReportURL(rec)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), link)
		return nil
	},
}

// ─── report get ───────────────────────────────────────────────────────────────

var (
	reportGetSave    string
	reportGetRefresh bool
)

var reportGetCmd = &cobra.Command{
	Use:   "get <ID|#N>",
	Short: "Download a dataset's PDF report",
	Long: `Download the PDF report for a dataset and save it to disk.

The report is served from the local cache when present. Use --refresh to
download it again.`,
	Example: `  eqviz --username ops --password secret report get '#1'
  eqviz --username ops --password secret report get '#2' --save plant.pdf
  eqviz --username ops --password secret report get 3f2a9c1e --refresh`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		st, err := loadHistory(cmd.Context(), deps)
		if err != nil {
			return err
		}
		rec, err := resolveRecord(st.History, args[0])
		if err != nil {
			return err
		}
		link, err := deps.Client.ReportURL(rec)
		if err != nil {
			return err
		}

		s, err := deps.RequireStore()
		if err != nil {
			return err
		}
		pdf, cacheHit, err := fetchReport(cmd, deps, s, rec, link)
		if err != nil {
			return err
		}

		path := reportGetSave
		if path == "" {
			path = reportFileName(rec)
		}
		if err := os.WriteFile(path, pdf, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}

		rf := &model.ReportFile{
			ID:       rec.ID,
			URL:      link,
			Path:     path,
			Bytes:    int64(len(pdf)),
			CacheHit: cacheHit,
		}
		result := newResult(model.KindReport, "report get", rf, 1, started)
		result.Stats.CacheHit = cacheHit
		return emit(deps, result)
	},
}

// fetchReport returns the cached PDF for rec, or downloads and caches it.
func fetchReport(cmd *cobra.Command, deps *app.Deps, s *store.Store, rec model.DatasetRecord, link string) ([]byte, bool, error) {
	if !reportGetRefresh {
		meta, pdf, found, err := s.GetReport(rec.ID)
		if err != nil {
			return nil, false, fmt.Errorf("reading report cache: %w", err)
		}
		if found && meta.URL == link {
			return pdf, true, nil
		}
	}

	pdf, err := deps.Client.DownloadReport(cmd.Context(), deps.Creds.Auth(), rec)
	if err != nil {
		return nil, false, err
	}
	meta := store.ReportMeta{ID: rec.ID, OriginalFilename: rec.OriginalFilename, URL: link}
	if err := s.PutReport(meta, pdf); err != nil {
		return nil, false, fmt.Errorf("caching report: %w", err)
	}
	return pdf, false, nil
}

// reportFileName derives "<upload name>-report.pdf", falling back to the dataset ID.
func reportFileName(rec model.DatasetRecord) string {
	base := filepath.Base(rec.OriginalFilename)
	if ext := filepath.Ext(base); strings.EqualFold(ext, ".csv") {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = rec.ID.String()
	}
	return base + "-report.pdf"
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportURLCmd)
	reportCmd.AddCommand(reportGetCmd)

	reportGetCmd.Flags().StringVar(&reportGetSave, "save", "", "file to write the PDF to (default: <file>-report.pdf)")
	reportGetCmd.Flags().BoolVar(&reportGetRefresh, "refresh", false, "download again even if the report is cached")
}
