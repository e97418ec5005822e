package chart_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/derickschaefer/eqviz/internal/chart"
	"github.com/derickschaefer/eqviz/internal/model"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// record builds a DatasetRecord from alternating (name, count) pairs.
func record(pairs ...interface{}) *model.DatasetRecord {
	rec := &model.DatasetRecord{ID: "1"}
	for i := 0; i < len(pairs)-1; i += 2 {
		rec.TypeDistribution = append(rec.TypeDistribution, model.TypeCount{
			Name:  pairs[i].(string),
			Count: pairs[i+1].(int),
		})
	}
	return rec
}

// ─── Project ──────────────────────────────────────────────────────────────────

func TestProjectPreservesOrderAndPairs(t *testing.T) {
	rec := record("Pump", 3, "Valve", 7)
	d := chart.Project(rec)

	if strings.Join(d.Labels, ",") != "Pump,Valve" {
		t.Errorf("labels: %v", d.Labels)
	}
	if fmt.Sprint(d.Values) != "[3 7]" {
		t.Errorf("values: %v", d.Values)
	}
	for i, label := range d.Labels {
		want, _ := rec.TypeDistribution.Get(label)
		if d.Values[i] != want {
			t.Errorf("values[%d] = %d, want %d", i, d.Values[i], want)
		}
	}
	if d.Label != chart.DatasetLabel {
		t.Errorf("label: %q", d.Label)
	}
}

func TestProjectEmpty(t *testing.T) {
	for name, rec := range map[string]*model.DatasetRecord{
		"nil":   nil,
		"empty": {ID: "1"},
	} {
		d := chart.Project(rec)
		if !d.Empty() {
			t.Errorf("%s: expected empty data", name)
		}
		if d.Labels == nil || d.Values == nil {
			t.Errorf("%s: slices should be non-nil", name)
		}
		if len(d.Labels) != 0 || len(d.Values) != 0 {
			t.Errorf("%s: expected zero length, got %d/%d", name, len(d.Labels), len(d.Values))
		}
	}
}

func TestProjectColorsCyclePalette(t *testing.T) {
	var pairs []interface{}
	for i := 0; i < len(chart.Palette)+2; i++ {
		pairs = append(pairs, fmt.Sprintf("T%d", i), i+1)
	}
	d := chart.Project(record(pairs...))
	if len(d.Colors) != len(d.Labels) {
		t.Fatalf("colors %d labels %d", len(d.Colors), len(d.Labels))
	}
	for i, c := range d.Colors {
		if c != chart.Palette[i%len(chart.Palette)] {
			t.Errorf("color %d: %s", i, c)
		}
	}

	short := chart.Project(record("Pump", 1, "Valve", 2))
	if len(short.Colors) != 2 || short.Colors[0] != chart.Palette[0] || short.Colors[1] != chart.Palette[1] {
		t.Errorf("short distributions should truncate the palette: %v", short.Colors)
	}
}

func TestPaletteHasAtLeastSixColors(t *testing.T) {
	if len(chart.Palette) < 6 {
		t.Errorf("palette has %d colours", len(chart.Palette))
	}
}

// ─── Bar ─────────────────────────────────────────────────────────────────────

func TestBarBasic(t *testing.T) {
	var buf strings.Builder
	err := chart.Bar(&buf, chart.Project(record("Pump", 3, "Valve", 7)), chart.BarOptions{Width: 60})
	if err != nil {
		t.Fatalf("Bar: %v", err)
	}
	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 bars, got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "10 total") {
		t.Errorf("header missing total: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Pump") || !strings.Contains(lines[1], "30.0%") {
		t.Errorf("pump line: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "Valve") || !strings.Contains(lines[2], "70.0%") {
		t.Errorf("valve line: %q", lines[2])
	}
	if strings.Count(lines[1], "█") >= strings.Count(lines[2], "█") {
		t.Error("larger count should have the longer bar")
	}
}

func TestBarEmpty(t *testing.T) {
	var buf strings.Builder
	if err := chart.Bar(&buf, chart.Project(nil), chart.BarOptions{}); !errors.Is(err, chart.ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestBarWidthRespected(t *testing.T) {
	var buf strings.Builder
	_ = chart.Bar(&buf, chart.Project(record("Pump", 100, "Valve", 1)), chart.BarOptions{Width: 40})
	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")[1:] {
		if n := len([]rune(line)); n > 40 {
			t.Errorf("line exceeds width (%d): %q", n, line)
		}
	}
}

func TestBarNegativeCountDrawsNoBar(t *testing.T) {
	var buf strings.Builder
	d := chart.Data{Label: chart.DatasetLabel, Labels: []string{"Pump", "Valve"}, Values: []int{5, -2}, Colors: chart.Palette[:2]}
	if err := chart.Bar(&buf, d, chart.BarOptions{Width: 60}); err != nil {
		t.Fatalf("Bar: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got:\n%s", buf.String())
	}
	if strings.Contains(lines[2], "█") {
		t.Errorf("negative count should have no bar: %q", lines[2])
	}
	if !strings.Contains(lines[1], "█") {
		t.Errorf("positive count should keep its bar: %q", lines[1])
	}
}

// ─── PNG ─────────────────────────────────────────────────────────────────────

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := chart.RenderPNG(&buf, chart.Project(record("Pump", 3, "Valve", 7)), chart.PieOptions{Width: 200, Height: 200}); err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
}

func TestRenderPNGEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := chart.RenderPNG(&buf, chart.Project(nil), chart.PieOptions{}); !errors.Is(err, chart.ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}
