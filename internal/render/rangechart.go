package render

import (
	"bytes"
	"fmt"

	svg "github.com/ajstarks/svgo"

	"github.com/EmilyChristy/weather-images/internal/core/apperr"
	"github.com/EmilyChristy/weather-images/internal/core/model"
)

// Range chart geometry. Canvas width grows with the number of dates; the
// rest is fixed.
const (
	rangeBarWidth     = 10
	rangeGroupPadding = 12
	rangePlotHeight   = 300
	rangeMarginLeft   = 44
	rangeMarginRight  = 16
	rangeMarginTop    = 20
	rangeMarginBottom = 46
)

const (
	maxTempBarColor  = "#d9534f"
	minTempBarColor  = "#5bc0de"
	humidityBarColor = "#5cb85c"
)

// RangeChart draws one grouped bar cluster per date: max temperature, min
// temperature and mean humidity side by side. Temperature and humidity use
// independent linear scales over a shared time axis.
func RangeChart(records []model.DailyAggregate) ([]byte, int, int, error) {
	if len(records) == 0 {
		return nil, 0, 0, apperr.ErrEmptyDataset
	}

	band := Band{Width: 3 * rangeBarWidth, Padding: rangeGroupPadding}
	width := rangeMarginLeft + band.Span(len(records)) + rangeMarginRight
	height := rangeMarginTop + rangePlotHeight + rangeMarginBottom

	var temps, humids []float64
	for _, r := range records {
		temps = append(temps, r.MaxTemp, r.MinTemp)
		humids = append(humids, r.MeanHumidity)
	}
	tempScale := NewLinear(temps, 0, rangePlotHeight)
	humidScale := NewLinear(humids, 0, rangePlotHeight)

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:#ffffff")

	baseline := rangeMarginTop + rangePlotHeight
	canvas.Line(rangeMarginLeft, baseline, width-rangeMarginRight, baseline, "stroke:#999999;stroke-width:1")

	for i, r := range records {
		x := rangeMarginLeft + band.Pos(i)
		drawBar(canvas, x, baseline, tempScale, r.MaxTemp, maxTempBarColor)
		drawBar(canvas, x+rangeBarWidth, baseline, tempScale, r.MinTemp, minTempBarColor)
		drawBar(canvas, x+2*rangeBarWidth, baseline, humidScale, r.MeanHumidity, humidityBarColor)

		// truncated date keeps the category axis readable
		label := r.Date.Format("01-02")
		canvas.Text(x+band.Width/2, baseline+16, label,
			"font-family:sans-serif;font-size:9px;fill:#333333;text-anchor:middle")
	}

	drawRangeLegend(canvas, rangeMarginLeft, height-18)
	drawTempAxis(canvas, tempScale, baseline)

	canvas.End()
	return buf.Bytes(), width, height, nil
}

func drawBar(canvas *svg.SVG, x, baseline int, scale Linear, v float64, color string) {
	if model.Absent(v) {
		return
	}
	h := int(scale.Map(v))
	if h < 0 {
		h = 0
	}
	canvas.Rect(x, baseline-h, rangeBarWidth, h, "fill:"+color)
}

func drawTempAxis(canvas *svg.SVG, scale Linear, baseline int) {
	lo, hi := scale.Domain()
	canvas.Text(rangeMarginLeft-6, baseline, fmt.Sprintf("%.0f°", lo),
		"font-family:sans-serif;font-size:9px;fill:#666666;text-anchor:end")
	canvas.Text(rangeMarginLeft-6, rangeMarginTop+8, fmt.Sprintf("%.0f°", hi),
		"font-family:sans-serif;font-size:9px;fill:#666666;text-anchor:end")
}

func drawRangeLegend(canvas *svg.SVG, x, y int) {
	entries := []struct {
		color string
		label string
	}{
		{maxTempBarColor, "max temp"},
		{minTempBarColor, "min temp"},
		{humidityBarColor, "mean humidity"},
	}
	for _, e := range entries {
		canvas.Rect(x, y-8, 8, 8, "fill:"+e.color)
		canvas.Text(x+12, y, e.label, "font-family:sans-serif;font-size:9px;fill:#333333")
		x += 12 + 7*len(e.label)
	}
}
