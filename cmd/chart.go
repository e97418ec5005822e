package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/eqviz/internal/chart"
	"github.com/derickschaefer/eqviz/internal/pipeline"
	"github.com/derickschaefer/eqviz/internal/render"
)

var (
	chartIndex int
	chartWidth int
	chartTitle string
	chartPNG   string
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Chart a dataset's equipment type distribution (reads JSONL from stdin)",
	Long: `Chart reads JSONL dataset records from stdin and draws the equipment type
distribution of one of them as a horizontal bar chart.

Records arrive newest first, so the default --index 1 charts the latest
upload. Use --png to write a pie chart image instead of drawing to the
terminal.`,
	Example: `  eqviz --username ops --password secret history --format jsonl | eqviz chart
  eqviz --username ops --password secret history --format jsonl | eqviz chart --index 3
  eqviz --username ops --password secret summary --format jsonl | eqviz chart --png types.png`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if pipeline.StdinIsTTY() {
			return fmt.Errorf("chart reads JSONL records from stdin\n\n" +
				"  eqviz history --format jsonl | eqviz chart")
		}
		recs, err := pipeline.ReadRecords(os.Stdin)
		if err != nil {
			return err
		}
		if chartIndex < 1 || chartIndex > len(recs) {
			return fmt.Errorf("--index %d is out of range (read %d records)", chartIndex, len(recs))
		}
		rec := recs[chartIndex-1]
		d := chart.Project(&rec)

		if chartPNG != "" {
			return writePNG(chartPNG, d)
		}

		w, closeFn, err := outputWriter(os.Stdout)
		if err != nil {
			return err
		}
		defer closeFn()

		if d.Empty() {
			fmt.Fprintln(w, render.TextNoTypeData)
			return nil
		}
		title := chartTitle
		if title == "" {
			title = fmt.Sprintf("%s: %s", d.Label, rec.OriginalFilename)
		}
		return chart.Bar(w, d, chart.BarOptions{Width: chartWidth, Title: title})
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().IntVar(&chartIndex, "index", 1,
		"1-based position of the record to chart (1 = newest)")
	chartCmd.Flags().IntVar(&chartWidth, "width", 0,
		"total chart width in characters (default: auto-detect from $COLUMNS, fallback 80)")
	chartCmd.Flags().StringVar(&chartTitle, "title", "",
		"chart title (default: Equipment Types and the file name)")
	chartCmd.Flags().StringVar(&chartPNG, "png", "",
		"write a pie chart PNG to this path instead of drawing to the terminal")
}
