// Package router validates image requests and maps pipeline errors onto
// HTTP responses.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-playground/validator/v10"

	"github.com/EmilyChristy/weather-images/internal/core/apperr"
	"github.com/EmilyChristy/weather-images/internal/core/model"
	"github.com/EmilyChristy/weather-images/internal/core/observability"
)

// MinYear is the floor of the upstream archive's coverage.
const MinYear = 1940

var validate = validator.New()

// Renderer is the pipeline behind the HTTP boundary.
type Renderer interface {
	RangeChart(ctx context.Context, req model.RangeRequest) ([]byte, string, error)
	Heatmap(ctx context.Context, req model.HeatmapRequest) ([]byte, string, error)
}

func HandleRange(logger *slog.Logger, rnd Renderer) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		req, err := ParseRangeRequest(r)
		if err == nil {
			var data []byte
			var ct string
			data, ct, err = rnd.RangeChart(r.Context(), req)
			if err == nil {
				writeImage(sw, r, data, ct)
			}
		}
		if err != nil {
			writeError(sw, logger, err)
		}
		observability.ObserveHTTP(r.Method, "/range", sw.code, time.Since(start).Seconds())
	}
}

func HandleHeatmap(logger *slog.Logger, rnd Renderer) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		req, err := ParseHeatmapRequest(r)
		if err == nil {
			var data []byte
			var ct string
			data, ct, err = rnd.Heatmap(r.Context(), req)
			if err == nil {
				writeImage(sw, r, data, ct)
			}
		}
		if err != nil {
			writeError(sw, logger, err)
		}
		observability.ObserveHTTP(r.Method, "/heatmap", sw.code, time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func ParseRangeRequest(r *http.Request) (model.RangeRequest, error) {
	q := r.URL.Query()

	start, err := parseDate(q.Get("start"), "start")
	if err != nil {
		return model.RangeRequest{}, err
	}
	end, err := parseDate(q.Get("end"), "end")
	if err != nil {
		return model.RangeRequest{}, err
	}
	if end.Before(start) {
		return model.RangeRequest{}, apperr.Validationf("end %s is before start %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	if start.Year() < MinYear {
		return model.RangeRequest{}, apperr.Validationf("start year %d below supported floor %d", start.Year(), MinYear)
	}

	req := model.RangeRequest{
		Location: strings.TrimSpace(q.Get("location")),
		Start:    start,
		End:      end,
		Format:   parseFormat(q.Get("format")),
	}
	if err := validate.Struct(req); err != nil {
		return model.RangeRequest{}, apperr.Validationf("invalid range request: %v", err)
	}
	return req, nil
}

func ParseHeatmapRequest(r *http.Request) (model.HeatmapRequest, error) {
	q := r.URL.Query()

	year, err := strconv.Atoi(strings.TrimSpace(q.Get("year")))
	if err != nil {
		return model.HeatmapRequest{}, apperr.Validationf("year: expected a number, got %q", q.Get("year"))
	}
	if now := time.Now().Year(); year > now {
		return model.HeatmapRequest{}, apperr.Validationf("year %d is in the future", year)
	}

	cell := 8
	if v := strings.TrimSpace(q.Get("cell")); v != "" {
		cell, err = strconv.Atoi(v)
		if err != nil {
			return model.HeatmapRequest{}, apperr.Validationf("cell: expected a number, got %q", v)
		}
	}

	border := false
	if v := q.Get("border"); v != "" {
		border, err = parseBool(v, "border")
		if err != nil {
			return model.HeatmapRequest{}, err
		}
	}

	metric := strings.TrimSpace(q.Get("metric"))
	if metric == "" {
		metric = "temperature"
	}

	req := model.HeatmapRequest{
		Location:    strings.TrimSpace(q.Get("location")),
		Year:        year,
		Metric:      metric,
		CellSize:    cell,
		Border:      border,
		BorderColor: strings.TrimSpace(q.Get("bordercolor")),
		Format:      parseFormat(q.Get("format")),
	}
	if err := validate.Struct(req); err != nil {
		return model.HeatmapRequest{}, apperr.Validationf("invalid heatmap request: %v", err)
	}
	return req, nil
}

func parseDate(v, name string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, apperr.Validationf("missing required parameter: %s", name)
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, apperr.Validationf("%s: expected YYYY-MM-DD, got %q", name, v)
	}
	return t, nil
}

func parseFormat(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "svg"
	}
	return v
}

func parseBool(v, name string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes":
		return true, nil
	case "0", "f", "false", "n", "no":
		return false, nil
	default:
		return false, apperr.Validationf("%s: expected a boolean, got %q", name, v)
	}
}

func writeImage(w http.ResponseWriter, r *http.Request, data []byte, contentType string) {
	etag := fmt.Sprintf(`W/"%016x"`, xxhash.Sum64(data))
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case apperr.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, apperr.ErrLocationNotFound),
		errors.Is(err, apperr.ErrNoData),
		errors.Is(err, apperr.ErrEmptyDataset):
		http.Error(w, err.Error(), http.StatusNotFound)
	case apperr.IsUpstream(err):
		logger.Error("upstream failure", "err", err)
		http.Error(w, "upstream data provider failed", http.StatusBadGateway)
	default:
		logger.Error("render failure", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
