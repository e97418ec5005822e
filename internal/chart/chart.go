// Package chart derives chart-ready data from a dataset's type distribution
// and renders it. Project is the pure projection; Bar and RenderPNG are
// presentation helpers built on top of it:
//
//   - Bar: horizontal terminal bar chart, one bar per equipment type
//   - RenderPNG: pie chart image via go-chart, using the shared palette
package chart

import (
	"errors"

	"github.com/derickschaefer/eqviz/internal/model"
)

// DatasetLabel is the legend title for the type distribution.
const DatasetLabel = "Equipment Types"

// Palette is the ordered slice colour sequence. Distributions longer than the
// palette reuse colours from the start.
var Palette = []string{
	"#2563eb",
	"#ea580c",
	"#16a34a",
	"#f97316",
	"#a855f7",
	"#0ea5e9",
}

// ErrNoData is returned by renderers when there is nothing to draw.
var ErrNoData = errors.New("no equipment type data detected")

// Data is the chart-ready view of a type distribution. Labels, Values and
// Colors are parallel slices.
type Data struct {
	Label  string   `json:"label"`
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
	Colors []string `json:"colors"`
}

// Empty reports whether there is nothing to chart.
func (d Data) Empty() bool {
	return len(d.Labels) == 0
}

// Total returns the sum of all values.
func (d Data) Total() int {
	total := 0
	for _, v := range d.Values {
		total += v
	}
	return total
}

// Project builds chart data from rec's type distribution in received order.
// A nil record or empty distribution yields empty (non-nil) slices.
func Project(rec *model.DatasetRecord) Data {
	d := Data{
		Label:  DatasetLabel,
		Labels: []string{},
		Values: []int{},
		Colors: []string{},
	}
	if rec == nil {
		return d
	}
	for i, tc := range rec.TypeDistribution {
		d.Labels = append(d.Labels, tc.Name)
		d.Values = append(d.Values, tc.Count)
		d.Colors = append(d.Colors, Palette[i%len(Palette)])
	}
	return d
}
