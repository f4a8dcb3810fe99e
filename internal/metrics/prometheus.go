package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal общее количество запросов
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoport_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration продолжительность запросов
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecoport_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// CyclesTotal циклы обновления по результату
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoport_refresh_cycles_total",
			Help: "Total number of refresh cycles",
		},
		[]string{"status"}, // ok, rejected
	)

	// CycleDuration задержка цикла обновления
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ecoport_refresh_cycle_duration_seconds",
			Help:    "Refresh cycle latency in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25},
		},
	)

	// AlertsGenerated сгенерированные предупреждения
	AlertsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoport_alerts_generated_total",
			Help: "Total number of alerts generated",
		},
		[]string{"type", "priority", "category"},
	)

	// ActiveAlerts предупреждения последнего цикла по приоритету
	ActiveAlerts = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ecoport_active_alerts",
			Help: "Alerts produced by the latest refresh cycle",
		},
		[]string{"priority"},
	)

	// AlertHistorySize размер истории предупреждений
	AlertHistorySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ecoport_alert_history_size",
			Help: "Number of alerts retained for statistics",
		},
	)

	// TelemetryValue последние значения телеметрии
	TelemetryValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ecoport_telemetry_value",
			Help: "Latest evaluated telemetry value",
		},
		[]string{"metric"},
	)

	// Threshold текущие значения порогов
	Threshold = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ecoport_threshold",
			Help: "Current alert threshold value",
		},
		[]string{"name"},
	)

	// SinkOperations операции с внешними приемниками (redis, kafka)
	SinkOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoport_sink_operations_total",
			Help: "Total number of alert sink operations",
		},
		[]string{"sink", "status"},
	)

	// WebsocketClients подключенные клиенты
	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ecoport_websocket_clients",
			Help: "Number of connected websocket clients",
		},
	)
)
