package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ecoport/internal/alerting"
	"ecoport/internal/cache"
	"ecoport/internal/dashboard"
	"ecoport/internal/models"
	"ecoport/internal/telemetry"
)

type fakeArchive struct {
	alerts    []cache.ArchivedAlert
	err       error
	pingErr   error
	lastLimit int
}

func (a *fakeArchive) RecentAlerts(_ context.Context, limit int) ([]cache.ArchivedAlert, error) {
	a.lastLimit = limit
	return a.alerts, a.err
}

func (a *fakeArchive) Ping(context.Context) error { return a.pingErr }

func (a *fakeArchive) GetStats() map[string]interface{} { return map[string]interface{}{} }

func newTestRouter(t *testing.T, archive AlertArchive) http.Handler {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	th, err := alerting.NewThresholdConfig(alerting.DefaultThresholds())
	if err != nil {
		t.Fatalf("NewThresholdConfig: %v", err)
	}
	svc := dashboard.NewService(dashboard.Config{
		Engine: alerting.NewEngine(alerting.Config{Now: func() time.Time { return now }}),
		Source: telemetry.NewSimulator(telemetry.SimulatorConfig{
			Retention: telemetry.DefaultRetention,
			Seed:      11,
			Now:       func() time.Time { return now },
		}),
		Thresholds: th,
	})
	return NewRouter(NewHandler(svc, archive, nil))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRefreshEndpoint(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := do(t, h, http.MethodPost, "/api/refresh", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body)
	}

	var result models.CycleResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.CycleID == "" {
		t.Fatalf("missing cycle id")
	}
	if result.Statistics.Total != len(result.Alerts) {
		t.Fatalf("statistics must cover the first cycle alerts")
	}

	rec = do(t, h, http.MethodGet, "/api/alerts/stats", "")
	var stats models.Statistics
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Total != result.Statistics.Total {
		t.Fatalf("stats endpoint disagrees with cycle: %d vs %d", stats.Total, result.Statistics.Total)
	}
}

func TestThresholdsEndpoints(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := do(t, h, http.MethodPut, "/api/thresholds", `{"carbon_emission_high": 1000, "esg_score_low": -5}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid value must give 400, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodPut, "/api/thresholds", `{"no_such_threshold": 5}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown name must give 400, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/thresholds", "")
	var th alerting.Thresholds
	json.NewDecoder(rec.Body).Decode(&th)
	if th != alerting.DefaultThresholds() {
		t.Fatalf("rejected updates must not change thresholds: %+v", th)
	}

	rec = do(t, h, http.MethodPut, "/api/thresholds", `{"carbon_emission_high": 1000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body)
	}
	json.NewDecoder(rec.Body).Decode(&th)
	if th.CarbonEmissionHigh != 1000 {
		t.Fatalf("update not applied: %+v", th)
	}

	rec = do(t, h, http.MethodPut, "/api/thresholds", `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("broken body must give 400, got %d", rec.Code)
	}
}

func TestAlertHistoryEndpoint(t *testing.T) {
	rec := do(t, newTestRouter(t, nil), http.MethodGet, "/api/alerts/history", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("disabled archive must give 503, got %d", rec.Code)
	}

	archive := &fakeArchive{alerts: []cache.ArchivedAlert{{CycleID: "c1", Alert: models.Alert{Rule: "weather"}}}}
	h := newTestRouter(t, archive)

	rec = do(t, h, http.MethodGet, "/api/alerts/history?limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if archive.lastLimit != 5 {
		t.Fatalf("limit not forwarded, got %d", archive.lastLimit)
	}

	if rec = do(t, h, http.MethodGet, "/api/alerts/history?limit=abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit must give 400, got %d", rec.Code)
	}

	archive.err = errors.New("redis down")
	if rec = do(t, h, http.MethodGet, "/api/alerts/history", ""); rec.Code != http.StatusInternalServerError {
		t.Fatalf("archive failure must give 500, got %d", rec.Code)
	}
}

func TestTelemetryEndpoints(t *testing.T) {
	h := newTestRouter(t, nil)

	if rec := do(t, h, http.MethodGet, "/api/telemetry/current", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	rec := do(t, h, http.MethodGet, "/api/telemetry/history?n=3", "")
	var body struct {
		Count int `json:"count"`
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Count != 3 {
		t.Fatalf("expected 3 samples, got %d", body.Count)
	}

	if rec := do(t, h, http.MethodGet, "/api/telemetry/history?n=0", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("n=0 must give 400, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/telemetry/summary", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestCarbonEndpoints(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := do(t, h, http.MethodPost, "/api/carbon/ship", `{"fuel_type":"diesel","operation_hours":8,"fuel_consumption":100}`)
	var res models.EmissionResult
	json.NewDecoder(rec.Body).Decode(&res)
	if rec.Code != http.StatusOK || res.EmissionTons != 2.14 || res.Factor != 2.68 {
		t.Fatalf("unexpected ship result %d %+v", rec.Code, res)
	}

	rec = do(t, h, http.MethodPost, "/api/carbon/equipment", `{"power_consumption":-1,"operation_hours":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative input must give 400, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/carbon/esg", `{"carbon_emission":1000,"energy_efficiency":80,"renewable_ratio":20}`)
	var esg map[string]int
	json.NewDecoder(rec.Body).Decode(&esg)
	if esg["esg_score"] != 30 {
		t.Fatalf("expected esg 30, got %v", esg)
	}
}

func TestHealthCheck(t *testing.T) {
	if rec := do(t, newTestRouter(t, nil), http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	rec := do(t, newTestRouter(t, &fakeArchive{pingErr: errors.New("down")}), http.MethodGet, "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("redis down must report degraded, got %d", rec.Code)
	}
}

func TestUnknownMethod(t *testing.T) {
	rec := do(t, newTestRouter(t, nil), http.MethodGet, "/api/refresh", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rec.Code)
	}
}
