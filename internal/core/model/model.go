// Package model defines core domain types shared across the service.
package model

import (
	"math"
	"time"
)

// Location is a geocoded place. Timezone is the IANA zone the upstream
// archive aligns hourly timestamps to.
type Location struct {
	Name      string
	Latitude  float64
	Longitude float64
	Timezone  string
}

// Observation is one hourly sample. Missing numeric fields are NaN so that a
// gap in one field never voids the others for the same hour.
type Observation struct {
	Time          time.Time
	Temperature   float64
	Humidity      float64
	ApparentTemp  float64
	Precipitation float64
}

// ObservationSeries holds hourly samples ordered by time, local to the
// queried location. Timestamps are unique per (date, hour).
type ObservationSeries struct {
	Location Location
	Samples  []Observation
}

// DailyAggregate is one calendar date reduced from hourly samples. A field
// with zero valid samples for its date is NaN, not zero.
type DailyAggregate struct {
	Date          time.Time
	MaxTemp       float64
	MinTemp       float64
	MeanHumidity  float64
	Precipitation float64
}

// GridAggregate is a day-by-hour matrix. Rows follow the distinct dates
// present in the source series, in order; column index is the hour-of-day
// exactly. Absent cells are NaN.
type GridAggregate struct {
	Dates []time.Time
	Cells [][24]float64
}

// Absent reports whether a sample value represents a missing observation.
func Absent(v float64) bool { return math.IsNaN(v) }

// RangeRequest is a normalized request for the grouped-bar range chart.
type RangeRequest struct {
	Location string    `validate:"required"`
	Start    time.Time `validate:"required"`
	End      time.Time `validate:"required"`
	Format   string    `validate:"oneof=svg png"`
}

// HeatmapRequest is a normalized request for the year heatmap.
type HeatmapRequest struct {
	Location    string `validate:"required"`
	Year        int    `validate:"gte=1940"`
	Metric      string `validate:"oneof=temperature precipitation"`
	CellSize    int    `validate:"gte=1,lte=64"`
	Border      bool
	BorderColor string
	Format      string `validate:"oneof=svg png"`
}
