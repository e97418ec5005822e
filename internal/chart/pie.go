package chart

import (
	"fmt"
	"io"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// PieOptions controls PNG pie chart rendering.
type PieOptions struct {
	Width  int // pixels, default 480
	Height int // pixels, default 480
}

// RenderPNG draws d as a pie chart PNG to w. Slice colours follow Colors.
func RenderPNG(w io.Writer, d Data, opts PieOptions) error {
	if d.Empty() || d.Total() <= 0 {
		return ErrNoData
	}
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = 480
	}
	if height <= 0 {
		height = 480
	}

	values := make([]gochart.Value, 0, len(d.Labels))
	for i, label := range d.Labels {
		if d.Values[i] <= 0 {
			continue
		}
		values = append(values, gochart.Value{
			Label: fmt.Sprintf("%s (%d)", label, d.Values[i]),
			Value: float64(d.Values[i]),
			Style: gochart.Style{
				FillColor:   drawing.ColorFromHex(strings.TrimPrefix(d.Colors[i], "#")),
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 1,
			},
		})
	}

	pie := gochart.PieChart{
		Title:  d.Label,
		Width:  width,
		Height: height,
		Values: values,
	}
	if err := pie.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("rendering pie chart: %w", err)
	}
	return nil
}
