package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/EmilyChristy/weather-images/internal/cache"
	"github.com/EmilyChristy/weather-images/internal/core/apperr"
	"github.com/EmilyChristy/weather-images/internal/core/config"
	"github.com/EmilyChristy/weather-images/internal/core/model"
	"github.com/EmilyChristy/weather-images/internal/meteo"
)

func fixtureUpstream(t *testing.T, archiveCalls *int32) (geocode, archive *httptest.Server) {
	t.Helper()
	geocode = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") == "Atlantis" {
			_, _ = w.Write([]byte(`{"results":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"name":"Kiruna","latitude":67.8558,"longitude":20.2253,"timezone":"Europe/Stockholm"}]}`))
	}))
	archive = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if archiveCalls != nil {
			atomic.AddInt32(archiveCalls, 1)
		}
		_, _ = w.Write([]byte(`{"hourly":{
			"time":["2024-07-01T00:00","2024-07-01T01:00","2024-07-02T00:00"],
			"temperature_2m":[10,30,12],
			"relativehumidity_2m":[80,70,75],
			"apparent_temperature":[9,28,11],
			"precipitation":[0,0.2,0]}}`))
	}))
	t.Cleanup(geocode.Close)
	t.Cleanup(archive.Close)
	return geocode, archive
}

func newTestService(t *testing.T, archiveCalls *int32) *Service {
	t.Helper()
	gs, as := fixtureUpstream(t, archiveCalls)

	mc, err := meteo.New(nil, gs.Client(), gs.URL, as.URL, 8)
	if err != nil {
		t.Fatalf("meteo.New: %v", err)
	}

	cfg := config.Config{CacheBackend: "fs", CacheDir: t.TempDir()}
	cm := cache.NewManager(nil, 16, time.Second, cache.Select(cfg, nil))

	return New(nil, mc, cm)
}

func TestRangeChart_RendersSVG(t *testing.T) {
	s := newTestService(t, nil)

	req := model.RangeRequest{
		Location: "Kiruna",
		Start:    time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC),
		Format:   "svg",
	}
	data, ct, err := s.RangeChart(context.Background(), req)
	if err != nil {
		t.Fatalf("RangeChart: %v", err)
	}
	if ct != "image/svg+xml" {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Fatalf("not an svg scene")
	}
}

func TestRangeChart_SecondIdenticalRequestSkipsUpstream(t *testing.T) {
	var calls int32
	s := newTestService(t, &calls)

	req := model.RangeRequest{
		Location: "Kiruna",
		Start:    time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC),
		Format:   "svg",
	}
	ctx := context.Background()
	first, _, err := s.RangeChart(ctx, req)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, _, err := s.RangeChart(ctx, req)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("archive fetched %d times, want 1", calls)
	}
	if string(first) != string(second) {
		t.Fatalf("cached bytes differ from rendered bytes")
	}
}

func TestRangeChart_UnknownLocation(t *testing.T) {
	s := newTestService(t, nil)
	req := model.RangeRequest{
		Location: "Atlantis",
		Start:    time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC),
		Format:   "svg",
	}
	_, _, err := s.RangeChart(context.Background(), req)
	if !errors.Is(err, apperr.ErrLocationNotFound) {
		t.Fatalf("err = %v, want ErrLocationNotFound", err)
	}
}

func TestHeatmap_RendersAndCaches(t *testing.T) {
	var calls int32
	s := newTestService(t, &calls)

	req := model.HeatmapRequest{
		Location: "Kiruna",
		Year:     2024,
		Metric:   "temperature",
		CellSize: 4,
		Format:   "svg",
	}
	ctx := context.Background()
	data, ct, err := s.Heatmap(ctx, req)
	if err != nil {
		t.Fatalf("Heatmap: %v", err)
	}
	if ct != "image/svg+xml" || !strings.Contains(string(data), "<svg") {
		t.Fatalf("unexpected output: ct=%q", ct)
	}

	if _, _, err := s.Heatmap(ctx, req); err != nil {
		t.Fatalf("second: %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("archive fetched %d times, want 1", calls)
	}
}

func TestHeatmap_PNGFormatIsRaster(t *testing.T) {
	s := newTestService(t, nil)
	req := model.HeatmapRequest{
		Location: "Kiruna",
		Year:     2024,
		Metric:   "temperature",
		CellSize: 4,
		Format:   "png",
	}
	data, ct, err := s.Heatmap(context.Background(), req)
	if err != nil {
		t.Fatalf("Heatmap: %v", err)
	}
	if ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Fatalf("output is not a png")
	}
}

func TestHeatmap_DifferentOptionsDifferentCacheEntries(t *testing.T) {
	var calls int32
	s := newTestService(t, &calls)
	ctx := context.Background()

	base := model.HeatmapRequest{Location: "Kiruna", Year: 2024, Metric: "temperature", CellSize: 4, Format: "svg"}
	bigger := base
	bigger.CellSize = 8

	if _, _, err := s.Heatmap(ctx, base); err != nil {
		t.Fatalf("base: %v", err)
	}
	if _, _, err := s.Heatmap(ctx, bigger); err != nil {
		t.Fatalf("bigger: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("archive fetched %d times, want 2 for distinct fingerprints", calls)
	}
}
