// Package aggregate reduces hourly observation series into the per-day and
// per-cell records the renderers consume.
package aggregate

import (
	"fmt"
	"math"
	"time"

	"github.com/EmilyChristy/weather-images/internal/core/apperr"
	"github.com/EmilyChristy/weather-images/internal/core/model"
)

// Metric names a grid cell scalar.
const (
	MetricTemperature   = "temperature"
	MetricPrecipitation = "precipitation"
)

type dailyAcc struct {
	date     time.Time
	maxTemp  float64
	minTemp  float64
	humidSum float64
	humidN   int
	precSum  float64
	precN    int
}

// Daily reduces a series to one record per calendar date, ordered as the
// dates appear in the series. A missing sample is excluded from its own
// field only; a date with zero valid samples for a field yields NaN there.
func Daily(series model.ObservationSeries) ([]model.DailyAggregate, error) {
	if len(series.Samples) == 0 {
		return nil, apperr.ErrNoData
	}

	var order []string
	accs := make(map[string]*dailyAcc)

	for _, s := range series.Samples {
		day := s.Time.Format("2006-01-02")
		acc, ok := accs[day]
		if !ok {
			acc = &dailyAcc{
				date:    truncateToDate(s.Time),
				maxTemp: math.Inf(-1),
				minTemp: math.Inf(1),
			}
			accs[day] = acc
			order = append(order, day)
		}
		if !model.Absent(s.Temperature) {
			acc.maxTemp = math.Max(acc.maxTemp, s.Temperature)
			acc.minTemp = math.Min(acc.minTemp, s.Temperature)
		}
		if !model.Absent(s.Humidity) {
			acc.humidSum += s.Humidity
			acc.humidN++
		}
		if !model.Absent(s.Precipitation) {
			acc.precSum += s.Precipitation
			acc.precN++
		}
	}

	out := make([]model.DailyAggregate, 0, len(order))
	for _, day := range order {
		acc := accs[day]
		agg := model.DailyAggregate{
			Date:          acc.date,
			MaxTemp:       acc.maxTemp,
			MinTemp:       acc.minTemp,
			MeanHumidity:  math.NaN(),
			Precipitation: math.NaN(),
		}
		// the sentinel extrema collapse to absent when no valid sample was seen
		if math.IsInf(acc.maxTemp, -1) {
			agg.MaxTemp = math.NaN()
			agg.MinTemp = math.NaN()
		}
		if acc.humidN > 0 {
			agg.MeanHumidity = acc.humidSum / float64(acc.humidN)
		}
		if acc.precN > 0 {
			agg.Precipitation = acc.precSum
		}
		out = append(out, agg)
	}
	return out, nil
}

// Grid arranges one metric into a day-by-hour matrix. Row count equals the
// number of distinct dates present in the series; the column index is the
// sample's hour-of-day exactly.
func Grid(series model.ObservationSeries, metric string) (model.GridAggregate, error) {
	if len(series.Samples) == 0 {
		return model.GridAggregate{}, apperr.ErrNoData
	}

	pick, err := metricField(metric)
	if err != nil {
		return model.GridAggregate{}, err
	}

	grid := model.GridAggregate{}
	rows := make(map[string]int)

	for _, s := range series.Samples {
		day := s.Time.Format("2006-01-02")
		idx, ok := rows[day]
		if !ok {
			idx = len(grid.Dates)
			rows[day] = idx
			grid.Dates = append(grid.Dates, truncateToDate(s.Time))
			var row [24]float64
			for h := range row {
				row[h] = math.NaN()
			}
			grid.Cells = append(grid.Cells, row)
		}
		grid.Cells[idx][s.Time.Hour()] = pick(s)
	}
	return grid, nil
}

func metricField(metric string) (func(model.Observation) float64, error) {
	switch metric {
	case MetricTemperature:
		return func(o model.Observation) float64 { return o.Temperature }, nil
	case MetricPrecipitation:
		return func(o model.Observation) float64 { return o.Precipitation }, nil
	default:
		return nil, fmt.Errorf("unknown grid metric %q", metric)
	}
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
