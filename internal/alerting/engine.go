package alerting

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"ecoport/internal/models"
	"ecoport/internal/telemetry"
)

const (
	// DefaultTrendWindow сколько отсчетов истории получают правила
	DefaultTrendWindow = 6
	// DefaultHistoryLimit сколько предупреждений хранится для статистики
	DefaultHistoryLimit = 50
)

// ErrContractViolation снимок не соответствует контракту данных
var ErrContractViolation = errors.New("telemetry contract violation")

// Config параметры движка предупреждений
type Config struct {
	TrendWindow  int
	HistoryLimit int
	Rules        []Rule
	Now          func() time.Time
}

// Cycle результат одной полной переоценки
type Cycle struct {
	Snapshot    models.TelemetrySnapshot
	Active      []models.Alert // в порядке правил, без сортировки
	Statistics  models.Statistics
	EvaluatedAt time.Time
}

// Engine запускает все правила на каждом цикле и ведет ограниченную историю предупреждений
type Engine struct {
	rules        []Rule
	trendWindow  int
	historyLimit int
	now          func() time.Time

	history []models.Alert
	mu      sync.Mutex
}

// NewEngine создает движок
func NewEngine(cfg Config) *Engine {
	if cfg.TrendWindow <= 0 {
		cfg.TrendWindow = DefaultTrendWindow
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.Rules == nil {
		cfg.Rules = DefaultRules()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Engine{
		rules:        cfg.Rules,
		trendWindow:  cfg.TrendWindow,
		historyLimit: cfg.HistoryLimit,
		now:          cfg.Now,
		history:      make([]models.Alert, 0, cfg.HistoryLimit),
	}
}

// Evaluate получает снимок и историю из источника, запускает все правила,
// добавляет результат в историю и возвращает активные предупреждения со статистикой.
// Пороги читаются один раз в начале вызова.
func (e *Engine) Evaluate(src telemetry.Source, thresholds ThresholdReader) (Cycle, error) {
	th := thresholds.Snapshot()
	current := src.Current()
	history := src.History(e.trendWindow)

	if err := current.Validate(); err != nil {
		return Cycle{}, fmt.Errorf("%w: current snapshot: %w", ErrContractViolation, err)
	}
	for i := range history {
		if err := history[i].Validate(); err != nil {
			return Cycle{}, fmt.Errorf("%w: history[%d]: %w", ErrContractViolation, i, err)
		}
	}

	now := e.now()
	in := Input{
		Current:    current,
		History:    history,
		Thresholds: th,
		Now:        now,
	}

	active := make([]models.Alert, 0)
	for _, rule := range e.rules {
		active = append(active, rule.Evaluate(in)...)
	}

	e.mu.Lock()
	e.appendHistory(active)
	stats := e.statisticsLocked()
	e.mu.Unlock()

	return Cycle{
		Snapshot:    current,
		Active:      active,
		Statistics:  stats,
		EvaluatedAt: now,
	}, nil
}

// Statistics пересчитывает агрегаты по истории предупреждений
func (e *Engine) Statistics() models.Statistics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statisticsLocked()
}

// History возвращает копию истории предупреждений, от старых к новым
func (e *Engine) History() []models.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.history)
}

// Rules имена правил в порядке оценки
func (e *Engine) Rules() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name
	}
	return names
}

func (e *Engine) appendHistory(alerts []models.Alert) {
	e.history = append(e.history, alerts...)
	if over := len(e.history) - e.historyLimit; over > 0 {
		e.history = append(e.history[:0], e.history[over:]...)
	}
}

func (e *Engine) statisticsLocked() models.Statistics {
	stats := models.NewStatistics()
	for _, a := range e.history {
		stats.Add(a)
	}
	return stats
}

// SortByPriority возвращает копию, упорядоченную по рангу приоритета.
// Порядок внутри одного приоритета сохраняется.
func SortByPriority(alerts []models.Alert) []models.Alert {
	sorted := slices.Clone(alerts)
	slices.SortStableFunc(sorted, func(a, b models.Alert) int {
		return a.Priority.Rank() - b.Priority.Rank()
	})
	return sorted
}
