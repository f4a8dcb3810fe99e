package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidAlertType = errors.New("invalid alert type")
	ErrInvalidPriority  = errors.New("invalid alert priority")
	ErrInvalidCategory  = errors.New("invalid alert category")
)

// AlertType класс серьезности для отображения
type AlertType int

const (
	AlertError AlertType = iota
	AlertWarning
	AlertInfo
)

var alertTypeNames = []string{"error", "warning", "info"}

// AllAlertTypes возвращает все типы в порядке объявления
func AllAlertTypes() []AlertType {
	return []AlertType{AlertError, AlertWarning, AlertInfo}
}

func (t AlertType) IsValid() bool { return t >= AlertError && t <= AlertInfo }

func (t AlertType) String() string {
	if !t.IsValid() {
		return fmt.Sprintf("AlertType(%d)", int(t))
	}
	return alertTypeNames[t]
}

func (t AlertType) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, ErrInvalidAlertType
	}
	return []byte(t.String()), nil
}

func (t *AlertType) UnmarshalText(b []byte) error {
	i, ok := lookupName(alertTypeNames, string(b))
	if !ok {
		return fmt.Errorf("%q: %w", b, ErrInvalidAlertType)
	}
	*t = AlertType(i)
	return nil
}

// Priority ключ упорядочивания: меньшее значение отображается раньше
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityMedium
	PriorityLow
)

var priorityNames = []string{"critical", "high", "medium", "low"}

func AllPriorities() []Priority {
	return []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}
}

func (p Priority) IsValid() bool { return p >= PriorityCritical && p <= PriorityLow }

// Rank ранг для сортировки: critical(0) < high(1) < medium(2) < low(3)
func (p Priority) Rank() int { return int(p) }

func (p Priority) String() string {
	if !p.IsValid() {
		return fmt.Sprintf("Priority(%d)", int(p))
	}
	return priorityNames[p]
}

func (p Priority) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, ErrInvalidPriority
	}
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(b []byte) error {
	i, ok := lookupName(priorityNames, string(b))
	if !ok {
		return fmt.Errorf("%q: %w", b, ErrInvalidPriority)
	}
	*p = Priority(i)
	return nil
}

// Category предметная область предупреждения
type Category int

const (
	CategoryEmission Category = iota
	CategoryTrend
	CategoryEfficiency
	CategoryConsumption
	CategoryRenewable
	CategoryEquipment
	CategoryWeather
	CategoryEnvironment
	CategoryOperation
	CategoryESG
	CategoryPrediction
)

var categoryNames = []string{
	"emission", "trend", "efficiency", "consumption", "renewable", "equipment",
	"weather", "environment", "operation", "esg", "prediction",
}

func AllCategories() []Category {
	all := make([]Category, len(categoryNames))
	for i := range categoryNames {
		all[i] = Category(i)
	}
	return all
}

func (c Category) IsValid() bool { return c >= CategoryEmission && c <= CategoryPrediction }

func (c Category) String() string {
	if !c.IsValid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.IsValid() {
		return nil, ErrInvalidCategory
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	i, ok := lookupName(categoryNames, string(b))
	if !ok {
		return fmt.Errorf("%q: %w", b, ErrInvalidCategory)
	}
	*c = Category(i)
	return nil
}

func lookupName(names []string, s string) (int, bool) {
	for i, n := range names {
		if n == s {
			return i, true
		}
	}
	return 0, false
}

// Alert результат срабатывания одного правила. После создания не изменяется.
type Alert struct {
	Rule           string    `json:"rule"`
	Type           AlertType `json:"type"`
	Priority       Priority  `json:"priority"`
	Category       Category  `json:"category"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Recommendation string    `json:"recommendation"`
	Value          float64   `json:"value"`
	Threshold      float64   `json:"threshold"`
	Timestamp      time.Time `json:"timestamp"`
}

// Statistics агрегаты по истории предупреждений
type Statistics struct {
	Total      int               `json:"total"`
	ByType     map[AlertType]int `json:"by_type"`
	ByCategory map[Category]int  `json:"by_category"`
	ByPriority map[Priority]int  `json:"by_priority"`
}

// NewStatistics возвращает пустую статистику с инициализированными картами
func NewStatistics() Statistics {
	return Statistics{
		ByType:     make(map[AlertType]int),
		ByCategory: make(map[Category]int),
		ByPriority: make(map[Priority]int),
	}
}

// Add учитывает предупреждение в агрегатах
func (s *Statistics) Add(a Alert) {
	s.Total++
	s.ByType[a.Type]++
	s.ByCategory[a.Category]++
	s.ByPriority[a.Priority]++
}
