package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/eqviz/internal/app"
	"github.com/derickschaefer/eqviz/internal/chart"
	"github.com/derickschaefer/eqviz/internal/model"
	"github.com/derickschaefer/eqviz/internal/render"
	"github.com/derickschaefer/eqviz/internal/view"
)

var (
	summaryChart string
	summaryPNG   string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the latest dataset summary and type distribution",
	Long: `Show the summary of the most recent upload: total equipment count, the
average flowrate, pressure and temperature, a link to the PDF report and the
equipment type distribution.

In table mode the distribution is also drawn as a bar chart. Use --png to
write the same distribution as a pie chart image.`,
	Example: `  eqviz --username ops --password secret summary
  eqviz --username ops --password secret summary --png types.png
  eqviz --username ops --password secret summary --format xlsx --out summary.xlsx`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if summaryChart != "bar" && summaryChart != "none" {
			return fmt.Errorf("invalid --chart %q: expected bar or none", summaryChart)
		}
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
		return showSummary(deps, st, "summary", started)
	},
}

// showSummary renders the latest summary and, when requested, its chart.
// Shared by summary and upload.
func showSummary(deps *app.Deps, st view.State, command string, started time.Time) error {
	page := &model.SummaryPage{APIHost: deps.Client.APIHost(), Record: st.LatestSummary}
	items := 0
	if st.LatestSummary != nil {
		items = 1
	}
	result := newResult(model.KindSummary, command, page, items, started)
	if st.Error != "" {
		result.Warnings = append(result.Warnings, st.Error)
	}

	if err := emit(deps, result); err != nil {
		return err
	}

	d := st.Chart()
	if summaryChart == "bar" && isTableOnStdout(deps) && !d.Empty() {
		fmt.Fprintln(os.Stdout)
		if err := chart.Bar(os.Stdout, d, chart.BarOptions{}); err != nil {
			return err
		}
	}
	if summaryPNG != "" {
		if err := writePNG(summaryPNG, d); err != nil {
			return err
		}
	}
	return nil
}

// writePNG renders d as a pie chart into path.
func writePNG(path string, d chart.Data) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := chart.RenderPNG(f, d, chart.PieOptions{}); err != nil {
		f.Close()
		os.Remove(path)
		if errors.Is(err, chart.ErrNoData) {
			return fmt.Errorf("%s: %s", path, render.TextNoTypeData)
		}
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	status("✓ Wrote %s", path)
	return nil
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringVar(&summaryChart, "chart", "bar", "terminal chart in table mode: bar|none")
	summaryCmd.Flags().StringVar(&summaryPNG, "png", "", "also write the type distribution as a pie chart PNG")
}
