package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ecoport/internal/alerting"
	"ecoport/internal/cache"
	"ecoport/internal/carbon"
	"ecoport/internal/dashboard"
	"ecoport/internal/metrics"
	"ecoport/internal/models"
	"ecoport/internal/websocket"
)

const (
	defaultAlertLimit   = 20
	maxAlertLimit       = 500
	defaultHistoryCount = 24
)

// AlertArchive хранилище архивных предупреждений
type AlertArchive interface {
	RecentAlerts(ctx context.Context, limit int) ([]cache.ArchivedAlert, error)
	Ping(ctx context.Context) error
	GetStats() map[string]interface{}
}

// Handler обработчик HTTP запросов
type Handler struct {
	svc     *dashboard.Service
	archive AlertArchive // nil если архив отключен
	hub     *websocket.Hub
}

// NewHandler создает новый обработчик
func NewHandler(svc *dashboard.Service, archive AlertArchive, hub *websocket.Hub) *Handler {
	return &Handler{
		svc:     svc,
		archive: archive,
		hub:     hub,
	}
}

// NewRouter собирает маршруты сервиса
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))

		r.Route("/api", func(r chi.Router) {
			r.Post("/refresh", h.instrument("/api/refresh", h.Refresh))

			r.Get("/alerts/stats", h.instrument("/api/alerts/stats", h.GetStats))
			r.Get("/alerts/history", h.instrument("/api/alerts/history", h.GetAlertHistory))

			r.Get("/thresholds", h.instrument("/api/thresholds", h.GetThresholds))
			r.Put("/thresholds", h.instrument("/api/thresholds", h.UpdateThresholds))

			r.Get("/telemetry/current", h.instrument("/api/telemetry/current", h.GetCurrentTelemetry))
			r.Get("/telemetry/history", h.instrument("/api/telemetry/history", h.GetTelemetryHistory))
			r.Get("/telemetry/summary", h.instrument("/api/telemetry/summary", h.GetTelemetrySummary))

			r.Post("/carbon/ship", h.instrument("/api/carbon/ship", h.ShipEmissions))
			r.Post("/carbon/equipment", h.instrument("/api/carbon/equipment", h.EquipmentEmissions))
			r.Post("/carbon/esg", h.instrument("/api/carbon/esg", h.ESGScore))
		})

		r.Get("/health", h.HealthCheck)
	})

	// Prometheus metrics endpoint
	r.Handle("/prometheus", promhttp.Handler())

	if h.hub != nil {
		r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(h.hub, w, r)
		})
	}

	return r
}

// instrument записывает длительность и статус ответа для endpoint
func (h *Handler) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
	}
}

// Refresh обрабатывает POST /api/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Refresh(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetStats обрабатывает GET /api/alerts/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Statistics())
}

// GetAlertHistory обрабатывает GET /api/alerts/history
func (h *Handler) GetAlertHistory(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "alert archive is disabled"})
		return
	}

	limit, err := queryInt(r, "limit", defaultAlertLimit, maxAlertLimit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	alerts, err := h.archive.RecentAlerts(r.Context(), limit)
	if err != nil {
		metrics.SinkOperations.WithLabelValues("redis", "read_error").Inc()
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to retrieve alert history"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(alerts),
		"alerts": alerts,
	})
}

// GetThresholds обрабатывает GET /api/thresholds
func (h *Handler) GetThresholds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Thresholds())
}

// UpdateThresholds обрабатывает PUT /api/thresholds
func (h *Handler) UpdateThresholds(w http.ResponseWriter, r *http.Request) {
	var update models.ThresholdUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if len(update) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no thresholds to update"})
		return
	}

	next, err := h.svc.UpdateThresholds(update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

// GetCurrentTelemetry обрабатывает GET /api/telemetry/current
func (h *Handler) GetCurrentTelemetry(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.svc.Latest()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no telemetry recorded yet"})
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// GetTelemetryHistory обрабатывает GET /api/telemetry/history
func (h *Handler) GetTelemetryHistory(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "n", defaultHistoryCount, 0)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	history := h.svc.TelemetryHistory(n)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(history),
		"history": history,
	})
}

// GetTelemetrySummary обрабатывает GET /api/telemetry/summary
func (h *Handler) GetTelemetrySummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Summary())
}

// ShipEmissions обрабатывает POST /api/carbon/ship
func (h *Handler) ShipEmissions(w http.ResponseWriter, r *http.Request) {
	var req models.ShipEmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	tons, err := carbon.ShipEmissions(req.FuelType, req.OperationHours, req.FuelConsumption)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.EmissionResult{
		EmissionTons: tons,
		Factor:       carbon.FuelFactor(req.FuelType),
	})
}

// EquipmentEmissions обрабатывает POST /api/carbon/equipment
func (h *Handler) EquipmentEmissions(w http.ResponseWriter, r *http.Request) {
	var req models.EquipmentEmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	tons, err := carbon.EquipmentEmissions(req.PowerConsumption, req.OperationHours)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.EmissionResult{
		EmissionTons: tons,
		Factor:       carbon.FuelFactor("electricity"),
	})
}

// ESGScore обрабатывает POST /api/carbon/esg
func (h *Handler) ESGScore(w http.ResponseWriter, r *http.Request) {
	var req models.ESGScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"esg_score": carbon.ESGScore(req.CarbonEmission, req.EnergyEfficiency, req.RenewableRatio),
	})
}

// HealthCheck обрабатывает GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	httpStatus := http.StatusOK

	body := map[string]interface{}{
		"timestamp": time.Now(),
	}

	if h.archive != nil {
		redisOK := h.archive.Ping(r.Context()) == nil
		body["redis"] = redisOK
		body["redis_pool"] = h.archive.GetStats()
		if !redisOK {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}
	}
	if h.hub != nil {
		body["websocket_clients"] = h.hub.ClientCount()
	}
	if last, ok := h.svc.Last(); ok {
		body["last_cycle"] = last.EvaluatedAt
	}
	body["status"] = status

	writeJSON(w, httpStatus, body)
}

func queryInt(r *http.Request, name string, def, upper int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	if upper > 0 && v > upper {
		v = upper
	}
	return v, nil
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, alerting.ErrContractViolation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, alerting.ErrUnknownThreshold),
		errors.Is(err, alerting.ErrInvalidThreshold),
		errors.Is(err, carbon.ErrNegativeInput):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
