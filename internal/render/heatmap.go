package render

import (
	"bytes"
	"fmt"

	svg "github.com/ajstarks/svgo"

	"github.com/EmilyChristy/weather-images/internal/core/apperr"
	"github.com/EmilyChristy/weather-images/internal/core/model"
)

const (
	heatmapMarginLeft  = 34
	heatmapMarginRight = 10
	heatmapMarginTop   = 18
	legendHeight       = 44
	legendBarHeight    = 10

	minCellSize = 1
	maxCellSize = 64
)

type HeatmapOptions struct {
	Metric      string
	CellSize    int
	Border      bool
	BorderColor string
}

// Heatmap draws one row per date with 24 fixed-size cells, column index =
// hour-of-day. "Noon-centered" is purely where column 12 sits on the
// canvas; samples are never reordered.
func Heatmap(grid model.GridAggregate, opts HeatmapOptions) ([]byte, int, int, error) {
	if len(grid.Cells) == 0 {
		return nil, 0, 0, apperr.ErrEmptyDataset
	}
	// bound geometry before sizing the canvas from it
	if opts.CellSize < minCellSize || opts.CellSize > maxCellSize {
		return nil, 0, 0, apperr.Validationf("cell size %d out of range [%d,%d]", opts.CellSize, minCellSize, maxCellSize)
	}

	cell := opts.CellSize
	colorOf := MetricColor(opts.Metric)

	width := heatmapMarginLeft + 24*cell + heatmapMarginRight
	height := heatmapMarginTop + len(grid.Cells)*cell + legendHeight

	borderStyle := ""
	if opts.Border {
		bc := opts.BorderColor
		if bc == "" {
			bc = "#ffffff"
		}
		borderStyle = ";stroke:" + bc + ";stroke-width:0.5"
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:#ffffff")

	for _, h := range []int{0, 6, 12, 18} {
		canvas.Text(heatmapMarginLeft+h*cell, heatmapMarginTop-5, fmt.Sprintf("%02d", h),
			"font-family:sans-serif;font-size:8px;fill:#666666")
	}

	for row, cells := range grid.Cells {
		y := heatmapMarginTop + row*cell
		if d := grid.Dates[row]; d.Day() == 1 {
			canvas.Text(heatmapMarginLeft-4, y+cell, d.Format("Jan"),
				"font-family:sans-serif;font-size:8px;fill:#666666;text-anchor:end")
		}
		for hour, v := range cells {
			x := heatmapMarginLeft + hour*cell
			canvas.Rect(x, y, cell, cell, "fill:"+colorOf(v)+borderStyle)
		}
	}

	drawLegend(canvas, opts.Metric, colorOf, heatmapMarginLeft, height-legendHeight+14, 24*cell)

	canvas.End()
	return buf.Bytes(), width, height, nil
}

// drawLegend renders a horizontal gradient spanning the canonical domain,
// with the domain bounds labelled underneath.
func drawLegend(canvas *svg.SVG, metric string, colorOf func(float64) string, x, y, w int) {
	lo, hi, unit := TempRampMin, TempRampMax, "°C"
	if metric == "precipitation" {
		lo, hi, unit = PrecipRampMin, PrecipRampMax, "mm"
	}

	const steps = 10
	oc := make([]svg.Offcolor, 0, steps+1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / steps
		oc = append(oc, svg.Offcolor{
			Offset:  uint8(i * 100 / steps),
			Color:   colorOf(lo + t*(hi-lo)),
			Opacity: 1.0,
		})
	}

	id := "ramp-" + metric
	canvas.Def()
	canvas.LinearGradient(id, 0, 0, 100, 0, oc)
	canvas.DefEnd()
	canvas.Rect(x, y, w, legendBarHeight, "fill:url(#"+id+")")

	canvas.Text(x, y+legendBarHeight+12, fmt.Sprintf("%.0f%s", lo, unit),
		"font-family:sans-serif;font-size:9px;fill:#333333")
	canvas.Text(x+w, y+legendBarHeight+12, fmt.Sprintf("%.0f%s", hi, unit),
		"font-family:sans-serif;font-size:9px;fill:#333333;text-anchor:end")
}
