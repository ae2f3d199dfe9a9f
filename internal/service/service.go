// Package service runs the rendering pipeline behind the HTTP boundary:
// resolve the location, check the cache, fetch and aggregate observations,
// render, encode, write back.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/EmilyChristy/weather-images/internal/aggregate"
	"github.com/EmilyChristy/weather-images/internal/cache"
	"github.com/EmilyChristy/weather-images/internal/core/model"
	"github.com/EmilyChristy/weather-images/internal/core/observability"
	"github.com/EmilyChristy/weather-images/internal/fingerprint"
	"github.com/EmilyChristy/weather-images/internal/meteo"
	"github.com/EmilyChristy/weather-images/internal/render"
)

type Service struct {
	logger *slog.Logger
	meteo  *meteo.Client
	cache  *cache.Manager
}

func New(logger *slog.Logger, mc *meteo.Client, cm *cache.Manager) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, meteo: mc, cache: cm}
}

// RangeChart serves the grouped-bar chart for a date range, rendering only
// on a cache miss. Concurrent identical requests may both render; the
// second write-back is harmless and subsequent requests hit the cache.
func (s *Service) RangeChart(ctx context.Context, req model.RangeRequest) ([]byte, string, error) {
	loc, err := s.meteo.Geocode(ctx, req.Location)
	if err != nil {
		return nil, "", err
	}

	p := fingerprint.Params{}
	p.Set("variant", "range")
	p.SetCoord("lat", loc.Latitude)
	p.SetCoord("lon", loc.Longitude)
	p.Set("start", req.Start.Format("2006-01-02"))
	p.Set("end", req.End.Format("2006-01-02"))
	fp := p.Hash()

	if e, ok := s.cache.Get(ctx, fp, req.Format); ok {
		return e.Data, e.ContentType, nil
	}

	series, err := s.meteo.Archive(ctx, loc, req.Start, req.End)
	if err != nil {
		return nil, "", err
	}
	daily, err := aggregate.Daily(series)
	if err != nil {
		return nil, "", err
	}

	start := time.Now()
	scene, w, h, err := render.RangeChart(daily)
	if err != nil {
		return nil, "", err
	}
	data, ct, err := encode(scene, w, h, req.Format)
	if err != nil {
		return nil, "", err
	}
	observability.ObserveRender("range", req.Format, time.Since(start).Seconds())

	s.cache.Set(ctx, fp, req.Format, data, ct)
	s.logger.Debug("rendered range chart",
		"location", loc.Name, "days", len(daily), "format", req.Format, "bytes", len(data))
	return data, ct, nil
}

// Heatmap serves the day-by-hour grid for one calendar year.
func (s *Service) Heatmap(ctx context.Context, req model.HeatmapRequest) ([]byte, string, error) {
	loc, err := s.meteo.Geocode(ctx, req.Location)
	if err != nil {
		return nil, "", err
	}

	p := fingerprint.Params{}
	p.Set("variant", "heatmap")
	p.SetCoord("lat", loc.Latitude)
	p.SetCoord("lon", loc.Longitude)
	p.SetInt("year", req.Year)
	p.Set("metric", req.Metric)
	p.SetInt("cell", req.CellSize)
	p.SetBool("border", req.Border)
	if req.Border && req.BorderColor != "" {
		p.Set("bordercolor", req.BorderColor)
	}
	fp := p.Hash()

	if e, ok := s.cache.Get(ctx, fp, req.Format); ok {
		return e.Data, e.ContentType, nil
	}

	yearStart := time.Date(req.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(req.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
	series, err := s.meteo.Archive(ctx, loc, yearStart, yearEnd)
	if err != nil {
		return nil, "", err
	}
	grid, err := aggregate.Grid(series, req.Metric)
	if err != nil {
		return nil, "", err
	}

	start := time.Now()
	scene, w, h, err := render.Heatmap(grid, render.HeatmapOptions{
		Metric:      req.Metric,
		CellSize:    req.CellSize,
		Border:      req.Border,
		BorderColor: req.BorderColor,
	})
	if err != nil {
		return nil, "", err
	}
	data, ct, err := encode(scene, w, h, req.Format)
	if err != nil {
		return nil, "", err
	}
	observability.ObserveRender("heatmap", req.Format, time.Since(start).Seconds())

	s.cache.Set(ctx, fp, req.Format, data, ct)
	s.logger.Debug("rendered heatmap",
		"location", loc.Name, "year", req.Year, "rows", len(grid.Cells), "format", req.Format, "bytes", len(data))
	return data, ct, nil
}

func encode(scene []byte, w, h int, format string) ([]byte, string, error) {
	if format == "png" {
		data, err := render.EncodePNG(scene, w, h)
		if err != nil {
			return nil, "", fmt.Errorf("rasterize: %w", err)
		}
		return data, render.ContentTypePNG, nil
	}
	return scene, render.ContentTypeSVG, nil
}
