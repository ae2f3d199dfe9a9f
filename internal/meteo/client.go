// Package meteo calls the Open-Meteo geocoding and historical archive
// endpoints and decodes their responses into observation series.
package meteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sony/gobreaker"

	"github.com/EmilyChristy/weather-images/internal/core/apperr"
	"github.com/EmilyChristy/weather-images/internal/core/model"
	"github.com/EmilyChristy/weather-images/internal/core/observability"
)

const hourlyTimeLayout = "2006-01-02T15:04"

type Client struct {
	logger     *slog.Logger
	http       *http.Client
	geocodeURL string
	archiveURL string
	breaker    *gobreaker.CircuitBreaker
	geocache   *lru.Cache[string, model.Location]
}

func New(logger *slog.Logger, hc *http.Client, geocodeURL, archiveURL string, geocacheSize int) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	if geocacheSize < 1 {
		geocacheSize = 128
	}
	gc, err := lru.New[string, model.Location](geocacheSize)
	if err != nil {
		return nil, fmt.Errorf("geocode cache: %w", err)
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "open-meteo",
		MaxRequests: 5,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		logger:     logger,
		http:       hc,
		geocodeURL: geocodeURL,
		archiveURL: archiveURL,
		breaker:    cb,
		geocache:   gc,
	}, nil
}

// Geocode resolves a place name to the first matching location. Results are
// kept in a small LRU so repeated requests for the same place skip the
// upstream round trip.
func (c *Client) Geocode(ctx context.Context, name string) (model.Location, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return model.Location{}, apperr.Validationf("location name is required")
	}
	if loc, ok := c.geocache.Get(key); ok {
		return loc, nil
	}

	q := url.Values{}
	q.Set("name", name)
	q.Set("count", "1")

	body, err := c.fetch(ctx, "geocode", c.geocodeURL, q)
	if err != nil {
		return model.Location{}, err
	}

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Timezone  string  `json:"timezone"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.Location{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(payload.Results) == 0 {
		return model.Location{}, fmt.Errorf("%q: %w", name, apperr.ErrLocationNotFound)
	}

	r := payload.Results[0]
	loc := model.Location{
		Name:      r.Name,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Timezone:  r.Timezone,
	}
	c.geocache.Add(key, loc)
	return loc, nil
}

// Archive fetches hourly observations for a date span, index-aligned with
// the upstream time array. Missing samples decode to NaN.
func (c *Client) Archive(ctx context.Context, loc model.Location, start, end time.Time) (model.ObservationSeries, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", loc.Latitude))
	q.Set("longitude", fmt.Sprintf("%.4f", loc.Longitude))
	q.Set("start_date", start.Format("2006-01-02"))
	q.Set("end_date", end.Format("2006-01-02"))
	q.Set("hourly", "temperature_2m,relativehumidity_2m,apparent_temperature,precipitation")
	if loc.Timezone != "" {
		q.Set("timezone", loc.Timezone)
	}

	body, err := c.fetch(ctx, "archive", c.archiveURL, q)
	if err != nil {
		return model.ObservationSeries{}, err
	}

	var payload struct {
		Hourly struct {
			Time          []string   `json:"time"`
			Temperature   []*float64 `json:"temperature_2m"`
			Humidity      []*float64 `json:"relativehumidity_2m"`
			ApparentTemp  []*float64 `json:"apparent_temperature"`
			Precipitation []*float64 `json:"precipitation"`
		} `json:"hourly"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.ObservationSeries{}, fmt.Errorf("decode archive response: %w", err)
	}

	h := payload.Hourly
	series := model.ObservationSeries{
		Location: loc,
		Samples:  make([]model.Observation, 0, len(h.Time)),
	}
	for i, ts := range h.Time {
		t, err := time.Parse(hourlyTimeLayout, ts)
		if err != nil {
			return model.ObservationSeries{}, fmt.Errorf("archive timestamp %q: %w", ts, err)
		}
		series.Samples = append(series.Samples, model.Observation{
			Time:          t,
			Temperature:   deref(h.Temperature, i),
			Humidity:      deref(h.Humidity, i),
			ApparentTemp:  deref(h.ApparentTemp, i),
			Precipitation: deref(h.Precipitation, i),
		})
	}
	return series, nil
}

func (c *Client) fetch(ctx context.Context, endpoint, base string, q url.Values) ([]byte, error) {
	out, err := c.breaker.Execute(func() (any, error) {
		return c.doFetch(ctx, endpoint, base, q)
	})
	if err != nil {
		if apperr.IsUpstream(err) {
			return nil, err
		}
		// breaker-open errors carry no upstream status
		return nil, &apperr.UpstreamError{Endpoint: endpoint, Err: err}
	}
	return out.([]byte), nil
}

func (c *Client) doFetch(ctx context.Context, endpoint, base string, q url.Values) ([]byte, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse %s url: %w", endpoint, err)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	observability.ObserveUpstreamLatency(endpoint, time.Since(start).Seconds())
	c.logger.Debug("upstream fetch", "endpoint", endpoint, "duration", time.Since(start).String())
	if err != nil {
		return nil, &apperr.UpstreamError{Endpoint: endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, &apperr.UpstreamError{Endpoint: endpoint, Status: resp.StatusCode, Body: string(b)}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s body: %w", endpoint, err)
	}
	return b, nil
}

func deref(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return math.NaN()
	}
	return *vals[i]
}
