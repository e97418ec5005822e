package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/eqviz/internal/model"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the most recent uploads",
	Long: `List the recent uploads returned by the API, newest first.

The server decides how many entries are returned (normally the last five).
Averages the server could not compute are shown as "—". Use --format jsonl
to feed the records into 'eqviz chart'.`,
	Example: `  eqviz --username ops --password secret history
  eqviz --username ops --password secret history --format csv --out history.csv
  eqviz --username ops --password secret history --format jsonl | eqviz chart`,
	Args: cobra.NoArgs,
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

		page := &model.HistoryPage{APIHost: deps.Client.APIHost(), Records: st.History}
		result := newResult(model.KindHistory, "history", page, len(st.History), started)

		if isTableOnStdout(deps) {
			fmt.Fprintln(os.Stdout, "Upload History (Last 5)")
		}
		return emit(deps, result)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
