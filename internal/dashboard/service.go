package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"ecoport/internal/alerting"
	"ecoport/internal/analytics"
	"ecoport/internal/logger"
	"ecoport/internal/metrics"
	"ecoport/internal/models"
	"ecoport/internal/telemetry"
)

// Sink внешний приемник результатов цикла (архив, брокер сообщений)
type Sink interface {
	Name() string
	PublishCycle(ctx context.Context, cycle models.CycleResult) error
}

// Broadcaster рассылка обновлений подключенным панелям
type Broadcaster interface {
	BroadcastCycle(cycle models.CycleResult)
	BroadcastThresholds(thresholds interface{})
}

// Config зависимости сервиса
type Config struct {
	Engine      *alerting.Engine
	Source      telemetry.Source
	Thresholds  *alerting.ThresholdConfig
	Sinks       []Sink
	Broadcaster Broadcaster // может быть nil
	Retention   int         // окно для сводки телеметрии
}

// Service выполняет циклы обновления панели: оценка, фиксация снимка,
// метрики, внешние приемники, рассылка клиентам
type Service struct {
	engine      *alerting.Engine
	source      telemetry.Source
	thresholds  *alerting.ThresholdConfig
	sinks       []Sink
	broadcaster Broadcaster
	retention   int

	last *models.CycleResult
	mu   sync.Mutex // один цикл за раз
}

// NewService создает сервис
func NewService(cfg Config) *Service {
	if cfg.Retention <= 0 {
		cfg.Retention = telemetry.DefaultRetention
	}
	s := &Service{
		engine:      cfg.Engine,
		source:      cfg.Source,
		thresholds:  cfg.Thresholds,
		sinks:       cfg.Sinks,
		broadcaster: cfg.Broadcaster,
		retention:   cfg.Retention,
	}
	observeThresholds(cfg.Thresholds.Snapshot())
	return s
}

// Refresh выполняет один цикл обновления. Ошибки приемников не прерывают цикл.
func (s *Service) Refresh(ctx context.Context) (models.CycleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cycleID := uuid.NewString()
	log := logger.WithCycle("dashboard", cycleID)
	start := time.Now()

	cycle, err := s.engine.Evaluate(s.source, s.thresholds)
	if err != nil {
		metrics.CyclesTotal.WithLabelValues("rejected").Inc()
		log.Warn().Err(err).Msg("refresh cycle rejected")
		return models.CycleResult{}, err
	}

	if rec, ok := s.source.(telemetry.Recorder); ok {
		rec.Append(cycle.Snapshot)
	}

	result := models.CycleResult{
		CycleID:     cycleID,
		EvaluatedAt: cycle.EvaluatedAt,
		Snapshot:    cycle.Snapshot,
		Alerts:      alerting.SortByPriority(cycle.Active),
		Statistics:  cycle.Statistics,
	}
	s.observeCycle(cycle)

	for _, sink := range s.sinks {
		if err := sink.PublishCycle(ctx, result); err != nil {
			metrics.SinkOperations.WithLabelValues(sink.Name(), "error").Inc()
			log.Warn().Err(err).Str("sink", sink.Name()).Msg("sink publish failed")
			continue
		}
		metrics.SinkOperations.WithLabelValues(sink.Name(), "success").Inc()
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastCycle(result)
	}

	s.last = &result
	duration := time.Since(start)
	metrics.CyclesTotal.WithLabelValues("ok").Inc()
	metrics.CycleDuration.Observe(duration.Seconds())

	log.Info().
		Int("alerts", len(result.Alerts)).
		Int("history_total", result.Statistics.Total).
		Dur("duration", duration).
		Msg("refresh cycle completed")

	return result, nil
}

// RunTicker запускает автоматическое обновление с заданным интервалом до отмены контекста
func (s *Service) RunTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// ошибка уже залогирована в Refresh
			_, _ = s.Refresh(ctx)
		}
	}
}

// Last результат последнего успешного цикла
func (s *Service) Last() (models.CycleResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return models.CycleResult{}, false
	}
	return *s.last, true
}

// Statistics статистика по истории предупреждений
func (s *Service) Statistics() models.Statistics {
	return s.engine.Statistics()
}

// Thresholds текущие пороги
func (s *Service) Thresholds() alerting.Thresholds {
	return s.thresholds.Snapshot()
}

// UpdateThresholds применяет изменения порогов целиком или не применяет ничего
func (s *Service) UpdateThresholds(changes map[string]float64) (alerting.Thresholds, error) {
	next, err := s.thresholds.Update(changes)
	if err != nil {
		return next, err
	}

	observeThresholds(next)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastThresholds(next)
	}
	log := logger.WithComponent("dashboard")
	log.Info().
		Interface("changes", changes).
		Msg("thresholds updated")
	return next, nil
}

// Latest последний зафиксированный снимок телеметрии
func (s *Service) Latest() (models.TelemetrySnapshot, bool) {
	h := s.source.History(1)
	if len(h) == 0 {
		return models.TelemetrySnapshot{}, false
	}
	return h[0], true
}

// TelemetryHistory не более n последних зафиксированных снимков
func (s *Service) TelemetryHistory(n int) []models.TelemetrySnapshot {
	return s.source.History(n)
}

// Summary сводка по каждой метрике за окно хранения
func (s *Service) Summary() map[string]analytics.Summary {
	history := s.source.History(s.retention)
	out := make(map[string]analytics.Summary, len(summaryFields))
	for _, f := range summaryFields {
		values := make([]float64, len(history))
		for i := range history {
			values[i] = f.value(history[i])
		}
		out[f.name] = analytics.Summarize(values)
	}
	return out
}

var summaryFields = []struct {
	name  string
	value func(models.TelemetrySnapshot) float64
}{
	{"carbon_emission", func(s models.TelemetrySnapshot) float64 { return s.CarbonEmission }},
	{"energy_consumption", func(s models.TelemetrySnapshot) float64 { return s.EnergyConsumption }},
	{"energy_efficiency", func(s models.TelemetrySnapshot) float64 { return s.EnergyEfficiency }},
	{"vessel_count", func(s models.TelemetrySnapshot) float64 { return float64(s.VesselCount) }},
	{"renewable_ratio", func(s models.TelemetrySnapshot) float64 { return s.RenewableRatio }},
	{"esg_score", func(s models.TelemetrySnapshot) float64 { return float64(s.ESGScore) }},
	{"wind_speed", func(s models.TelemetrySnapshot) float64 { return s.WindSpeed }},
	{"air_quality_index", func(s models.TelemetrySnapshot) float64 { return float64(s.AirQualityIndex) }},
}

func (s *Service) observeCycle(cycle alerting.Cycle) {
	byPriority := make(map[models.Priority]int)
	for _, a := range cycle.Active {
		byPriority[a.Priority]++
		metrics.AlertsGenerated.WithLabelValues(a.Type.String(), a.Priority.String(), a.Category.String()).Inc()
	}
	for _, p := range models.AllPriorities() {
		metrics.ActiveAlerts.WithLabelValues(p.String()).Set(float64(byPriority[p]))
	}

	metrics.AlertHistorySize.Set(float64(cycle.Statistics.Total))
	for _, f := range summaryFields {
		metrics.TelemetryValue.WithLabelValues(f.name).Set(f.value(cycle.Snapshot))
	}
}

func observeThresholds(t alerting.Thresholds) {
	for name, v := range t.Map() {
		metrics.Threshold.WithLabelValues(name).Set(v)
	}
}
