// Package serve exposes the report engine over HTTP: report summaries for a
// delivery window, single-metric queries with market/area selectors, and a
// WebSocket feed of completed builds.
package serve

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/powerdesk/trade-report/internal/metrics"
	"github.com/powerdesk/trade-report/internal/model"
	"github.com/powerdesk/trade-report/internal/report"
	"github.com/powerdesk/trade-report/internal/store"
)

// Service builds reports on demand from a trade source. Builds run the
// fan-in path: one producer per trade table feeding a single fold.
type Service struct {
	source store.Source
	cache  *store.MetricsCache // nil when Redis is not configured
	hub    *Hub                // nil when broadcasting is not needed
	buffer int
}

// NewService creates the HTTP service. Pass nil cache/hub to disable the
// Redis summary cache or WebSocket broadcasts.
func NewService(src store.Source, cache *store.MetricsCache, hub *Hub, buffer int) *Service {
	return &Service{source: src, cache: cache, hub: hub, buffer: buffer}
}

// ReportResponse is the JSON body returned from GET /api/v1/report.
type ReportResponse struct {
	ReportID string            `json:"report_id,omitempty"`
	Cached   bool              `json:"cached,omitempty"`
	Metrics  report.KeyMetrics `json:"metrics"`
}

// MetricResponse is the JSON body returned from GET /api/v1/report/metric.
type MetricResponse struct {
	Name   string          `json:"name"`
	Market string          `json:"market"`
	Area   string          `json:"area"`
	Value  decimal.Decimal `json:"value"`
}

// GetReport handles GET /api/v1/report?from=&to=
// Returns the all-markets, all-areas key metrics for the window, serving
// from the summary cache when a build for the same window is still warm.
func (s *Service) GetReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if s.cache != nil {
		if m, ok := s.cache.Get(ctx, from, to); ok {
			writeJSON(w, http.StatusOK, ReportResponse{Cached: true, Metrics: m})
			return
		}
	}

	rep, err := s.build(r, from, to)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, report.ErrInvalidWindow) {
			status = http.StatusBadRequest
		}
		writeError(w, err.Error(), status)
		return
	}

	id := uuid.New().String()
	m := rep.KeyMetrics()

	if s.cache != nil {
		s.cache.Set(ctx, m)
	}
	if s.hub != nil {
		s.hub.BroadcastReport(id, m)
	}

	slog.Info("report built",
		"report_id", id,
		"from", from,
		"to", to,
		"gross_profit", m.GrossProfit.String(),
	)

	writeJSON(w, http.StatusOK, ReportResponse{ReportID: id, Metrics: m})
}

// GetMetric handles GET /api/v1/report/metric?name=&market=&area=&from=&to=
// Returns one metric with explicit selectors. Omitting market or area (or
// passing "all") sums across that dimension.
func (s *Service) GetMetric(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	marketSel, err := parseMarketSelection(r.URL.Query().Get("market"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	areaSel, err := parseAreaSelection(r.URL.Query().Get("area"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	name := r.URL.Query().Get("name")
	metric, ok := metricFuncs[name]
	if !ok {
		writeError(w, "name must be one of revenue, costs, mw_sold, mw_bought, gross_profit", http.StatusBadRequest)
		return
	}

	rep, err := s.build(r, from, to)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, report.ErrInvalidWindow) {
			status = http.StatusBadRequest
		}
		writeError(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusOK, MetricResponse{
		Name:   name,
		Market: marketSel.String(),
		Area:   areaSel.String(),
		Value:  metric(rep, marketSel, areaSel),
	})
}

var metricFuncs = map[string]func(*report.Report, report.MarketSelection, report.AreaSelection) decimal.Decimal{
	"revenue":      (*report.Report).Revenue,
	"costs":        (*report.Report).Costs,
	"mw_sold":      (*report.Report).MWSold,
	"mw_bought":    (*report.Report).MWBought,
	"gross_profit": (*report.Report).GrossProfit,
}

func (s *Service) build(r *http.Request, from, to time.Time) (*report.Report, error) {
	start := time.Now()
	rep, err := report.NewFromProducers(r.Context(), from, to, s.buffer, s.source.Producers(from, to)...)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.ReportBuildsTotal.WithLabelValues("fan_in", outcome).Inc()
	metrics.ReportBuildDuration.WithLabelValues("fan_in").Observe(time.Since(start).Seconds())

	return rep, err
}

func parseWindow(r *http.Request) (from, to time.Time, err error) {
	from, err = parseTimeParam(r.URL.Query().Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("from must be RFC 3339 or YYYY-MM-DD")
	}
	to, err = parseTimeParam(r.URL.Query().Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("to must be RFC 3339 or YYYY-MM-DD")
	}
	return from, to, nil
}

func parseTimeParam(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func parseMarketSelection(s string) (report.MarketSelection, error) {
	if s == "" || s == "all" {
		return report.AllMarkets(), nil
	}
	m, err := model.ParseMarket(s)
	if err != nil {
		return report.MarketSelection{}, err
	}
	return report.OneMarket(m), nil
}

func parseAreaSelection(s string) (report.AreaSelection, error) {
	if s == "" || s == "all" {
		return report.AllAreas(), nil
	}
	a, err := model.ParseArea(s)
	if err != nil {
		return report.AreaSelection{}, err
	}
	return report.OneArea(a), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
