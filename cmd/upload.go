package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload FILE",
	Short: "Upload an equipment CSV and show its summary",
	Long: `Upload a CSV file for analysis. The server computes totals, averages and
the equipment type distribution and generates a PDF report.

The returned summary is shown immediately. History is then refreshed; if that
refresh fails the summary is still shown and the failure is printed as a
warning.`,
	Example: `  eqviz --username ops --password secret upload plant.csv
  eqviz --username ops --password secret upload plant.csv --png types.png
  eqviz --username ops --password secret upload plant.csv --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		if err := applyCredentials(deps); err != nil {
			return err
		}
		file, err := readUploadFile(args[0])
		if err != nil {
			return err
		}
		status("Uploading %s ...", file.Name)
		dataset, err := deps.Controller.SubmitFile(cmd.Context(), file)
		if err != nil {
			return withHint(err)
		}
		status("✓ Uploaded %s as dataset %s", file.Name, dataset.ID)

		return showSummary(deps, deps.Controller.Snapshot(), "upload", started)
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&summaryChart, "chart", "bar", "terminal chart in table mode: bar|none")
	uploadCmd.Flags().StringVar(&summaryPNG, "png", "", "also write the type distribution as a pie chart PNG")
}
