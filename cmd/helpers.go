package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/derickschaefer/eqviz/internal/api"
	"github.com/derickschaefer/eqviz/internal/app"
	"github.com/derickschaefer/eqviz/internal/credentials"
	"github.com/derickschaefer/eqviz/internal/model"
	"github.com/derickschaefer/eqviz/internal/pipeline"
	"github.com/derickschaefer/eqviz/internal/render"
	"github.com/derickschaefer/eqviz/internal/view"
)

// resolveFormat returns the effective format string, falling back to "table".
func resolveFormat(cfgFormat string) string {
	if globalFlags.Format != "" {
		return globalFlags.Format
	}
	if cfgFormat != "" {
		return cfgFormat
	}
	return render.FormatTable
}

// applyCredentials copies --username/--password into the credential store
// without triggering a refresh.
func applyCredentials(deps *app.Deps) error {
	if err := deps.Creds.Set(credentials.FieldUsername, globalFlags.Username); err != nil {
		return err
	}
	return deps.Creds.Set(credentials.FieldPassword, globalFlags.Password)
}

// loadHistory signs in with the flag credentials and refreshes history.
func loadHistory(ctx context.Context, deps *app.Deps) (view.State, error) {
	if err := applyCredentials(deps); err != nil {
		return view.State{}, err
	}
	if err := deps.Controller.Refresh(ctx); err != nil {
		return deps.Controller.Snapshot(), withHint(err)
	}
	return deps.Controller.Snapshot(), nil
}

// withHint adds the flag names to a missing-credentials error.
func withHint(err error) error {
	var pe *api.PreconditionError
	if errors.As(err, &pe) && pe.Message == api.MsgCredentialsRequired {
		return fmt.Errorf("%w\n\nPass --username and --password", err)
	}
	return err
}

// resolveRecord finds a record in history by "#N" (1-based position), full
// ID, or a unique ID prefix.
func resolveRecord(history model.HistoryCollection, ref string) (model.DatasetRecord, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.DatasetRecord{}, fmt.Errorf("dataset reference is empty")
	}
	if strings.HasPrefix(ref, "#") {
		n, err := strconv.Atoi(ref[1:])
		if err != nil || n < 1 {
			return model.DatasetRecord{}, fmt.Errorf("invalid position %q: expected #1, #2, ...", ref)
		}
		if n > len(history) {
			return model.DatasetRecord{}, fmt.Errorf("position %s is out of range (history has %d entries)", ref, len(history))
		}
		return history[n-1], nil
	}

	var matches []model.DatasetRecord
	for _, rec := range history {
		id := rec.ID.String()
		if id == ref {
			return rec, nil
		}
		if strings.HasPrefix(id, ref) {
			matches = append(matches, rec)
		}
	}
	switch len(matches) {
	case 0:
		return model.DatasetRecord{}, fmt.Errorf("no dataset %q in recent history", ref)
	case 1:
		return matches[0], nil
	}
	return model.DatasetRecord{}, fmt.Errorf("dataset prefix %q is ambiguous (%d matches)", ref, len(matches))
}

// readUploadFile loads a CSV from disk for submission.
func readUploadFile(path string) (*model.UploadFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &model.UploadFile{Name: filepath.Base(path), Content: content}, nil
}

// outputWriter returns the --out file when set, otherwise def. The returned
// close function is always safe to call.
func outputWriter(def io.Writer) (io.Writer, func() error, error) {
	if globalFlags.Out == "" {
		return def, func() error { return nil }, nil
	}
	f, err := os.Create(globalFlags.Out)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}

// emit renders result honouring --format, --out, --quiet and --verbose.
func emit(deps *app.Deps, result *model.Result) error {
	if globalFlags.Quiet && globalFlags.Out == "" {
		return nil
	}
	if err := render.RenderTo(globalFlags.Out, result, resolveFormat(deps.Config.Format)); err != nil {
		return err
	}
	if !globalFlags.Quiet {
		render.PrintFooter(os.Stderr, result, globalFlags.Verbose)
	}
	return nil
}

// status prints a progress line to stderr unless --quiet is set.
func status(format string, args ...interface{}) {
	if globalFlags.Quiet {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// isTableOnStdout reports whether output goes to the terminal as a table,
// the only case where headings and bar charts are added. Piped tables stay
// plain.
func isTableOnStdout(deps *app.Deps) bool {
	return globalFlags.Out == "" && !globalFlags.Quiet && pipeline.IsTTY() &&
		resolveFormat(deps.Config.Format) == render.FormatTable
}

// printSimpleTable renders a simple table with headers using tablewriter.
// The add callback is called with row values as variadic strings.
func printSimpleTable(w io.Writer, headers []string, fill func(add func(...string))) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(headers)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)

	fill(func(cols ...string) {
		tw.Append(cols)
	})
	tw.Render()
}

// printKVTable renders a two-column key/value listing using aligned columns.
func printKVTable(w io.Writer, rows [][]string) {
	maxKey := 0
	for _, r := range rows {
		if len(r[0]) > maxKey {
			maxKey = len(r[0])
		}
	}
	for _, r := range rows {
		padding := strings.Repeat(" ", maxKey-len(r[0]))
		fmt.Fprintf(w, "  %s%s  %s\n", r[0], padding, r[1])
	}
}

// newResult wraps a payload in a Result envelope.
func newResult(kind, command string, data interface{}, items int, started time.Time) *model.Result {
	return &model.Result{
		Kind:        kind,
		GeneratedAt: time.Now(),
		Command:     command,
		Data:        data,
		Stats: model.ResultStats{
			Items:      items,
			DurationMs: time.Since(started).Milliseconds(),
		},
	}
}
