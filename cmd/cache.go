package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/eqviz/internal/model"
	"github.com/derickschaefer/eqviz/internal/store"
	"github.com/derickschaefer/eqviz/internal/util"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the local report cache",
	Long: `Commands for inspecting and clearing the local bbolt database that holds
downloaded PDF reports.

Only report files are cached. Credentials and upload history are never
written to disk.`,
}

// ─── cache stats ──────────────────────────────────────────────────────────────

var cacheStatsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show row counts and sizes for each bucket",
	Example: `  eqviz cache stats`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		s, err := deps.RequireStore()
		if err != nil {
			return err
		}

		stats, err := s.Stats()
		if err != nil {
			return fmt.Errorf("reading store stats: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Database: %s\n\n", s.Path())
		printSimpleTable(cmd.OutOrStdout(), []string{"BUCKET", "ROWS", "SIZE"}, func(add func(...string)) {
			for _, st := range stats {
				add(st.Name, fmt.Sprintf("%d", st.Count), util.HumanBytes(st.Bytes))
			}
		})
		return nil
	},
}

// ─── cache list ───────────────────────────────────────────────────────────────

var cacheListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List cached reports, newest first",
	Example: `  eqviz cache list`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		s, err := deps.RequireStore()
		if err != nil {
			return err
		}

		metas, err := s.ListReports()
		if err != nil {
			return fmt.Errorf("listing reports: %w", err)
		}
		if len(metas) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No cached reports.")
			return nil
		}
		printSimpleTable(cmd.OutOrStdout(), []string{"ID", "FILENAME", "SIZE", "FETCHED"}, func(add func(...string)) {
			for _, m := range metas {
				add(m.ID.String(), util.Truncate(m.OriginalFilename, 40), util.HumanBytes(m.Bytes), util.FormatTimestamp(m.FetchedAt))
			}
		})
		return nil
	},
}

// ─── cache clear ──────────────────────────────────────────────────────────────

var (
	cacheClearAll    bool
	cacheClearBucket string
)

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete entries from the report cache",
	Long: `Delete entries from one or all buckets.

Note: bbolt does not shrink the database file automatically after clearing.
Free pages are reused internally on the next write. To reclaim disk space,
run 'eqviz cache compact' after clearing.`,
	Example: `  eqviz cache clear --all
  eqviz cache clear --bucket reports`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cacheClearAll && cacheClearBucket == "" {
			return fmt.Errorf("specify --all or --bucket <n>\n\nBuckets: %v", store.AllBuckets)
		}

		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		s, err := deps.RequireStore()
		if err != nil {
			return err
		}

		if cacheClearAll {
			if err := s.ClearAll(); err != nil {
				return fmt.Errorf("clearing all buckets: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Cleared all buckets")
			fmt.Fprintln(cmd.OutOrStdout(), "  Run 'eqviz cache compact' to reclaim disk space.")
			return nil
		}

		if err := s.ClearBucket(cacheClearBucket); err != nil {
			return fmt.Errorf("clearing bucket %q: %w", cacheClearBucket, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared bucket %q\n", cacheClearBucket)
		fmt.Fprintln(cmd.OutOrStdout(), "  Run 'eqviz cache compact' to reclaim disk space.")
		return nil
	},
}

// ─── cache delete ─────────────────────────────────────────────────────────────

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <ID>...",
	Short: "Remove cached reports for the given record IDs",
	Long: `Remove individual reports from the cache. The next 'report get' for that
record downloads it again. IDs are the full values shown by 'cache list'.`,
	Example: `  eqviz cache delete 3f2a9c1e-0000-4000-8000-000000000001`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		s, err := deps.RequireStore()
		if err != nil {
			return err
		}

		for _, id := range args {
			if err := s.DeleteReport(model.RecordID(id)); err != nil {
				return fmt.Errorf("deleting report %s: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s\n", id)
		}
		return nil
	},
}

// ─── cache compact ────────────────────────────────────────────────────────────

var cacheCompactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Rewrite the database file to reclaim freed disk space",
	Long: `Compact rewrites the bbolt database to a new file, recovering space freed
by prior 'cache clear' operations. Live data is copied to a temporary file
first, then the original is replaced.`,
	Example: `  eqviz cache compact`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		s, err := deps.RequireStore()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Compacting %s ...\n", s.Path())

		before, after, err := s.Compact()
		if err != nil {
			return fmt.Errorf("compaction failed: %w", err)
		}

		saved := before - after
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Compaction complete\n")
		fmt.Fprintf(cmd.OutOrStdout(), "  Before: %s\n", util.HumanBytes(before))
		fmt.Fprintf(cmd.OutOrStdout(), "  After:  %s\n", util.HumanBytes(after))
		if saved > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "  Saved:  %s\n", util.HumanBytes(saved))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "  No space reclaimed (database was already compact).")
		}
		return nil
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheDeleteCmd)
	cacheCmd.AddCommand(cacheCompactCmd)

	cacheClearCmd.Flags().BoolVar(&cacheClearAll, "all", false, "clear all buckets")
	cacheClearCmd.Flags().StringVar(&cacheClearBucket, "bucket", "", "clear a specific bucket: reports|report_meta")
}
