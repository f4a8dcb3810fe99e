package alerting

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// Имена настраиваемых порогов
const (
	CarbonEmissionHigh          = "carbon_emission_high"
	CarbonEmissionCritical      = "carbon_emission_critical"
	EnergyEfficiencyLow         = "energy_efficiency_low"
	EnergyConsumptionSpikeRatio = "energy_consumption_spike_ratio"
	VesselCongestion            = "vessel_congestion"
	ESGScoreLow                 = "esg_score_low"
	RenewableRatioLow           = "renewable_ratio_low"
)

var (
	ErrUnknownThreshold = errors.New("unknown threshold")
	ErrInvalidThreshold = errors.New("invalid threshold value")
)

// Thresholds неизменяемый набор порогов, прочитанный на момент оценки
type Thresholds struct {
	CarbonEmissionHigh          float64 `json:"carbon_emission_high" yaml:"carbon_emission_high"`
	CarbonEmissionCritical      float64 `json:"carbon_emission_critical" yaml:"carbon_emission_critical"`
	EnergyEfficiencyLow         float64 `json:"energy_efficiency_low" yaml:"energy_efficiency_low"`
	EnergyConsumptionSpikeRatio float64 `json:"energy_consumption_spike_ratio" yaml:"energy_consumption_spike_ratio"`
	VesselCongestion            float64 `json:"vessel_congestion" yaml:"vessel_congestion"`
	ESGScoreLow                 float64 `json:"esg_score_low" yaml:"esg_score_low"`
	RenewableRatioLow           float64 `json:"renewable_ratio_low" yaml:"renewable_ratio_low"`
}

// DefaultThresholds пороги по умолчанию
func DefaultThresholds() Thresholds {
	return Thresholds{
		CarbonEmissionHigh:          1200,
		CarbonEmissionCritical:      1500,
		EnergyEfficiencyLow:         70,
		EnergyConsumptionSpikeRatio: 1.3,
		VesselCongestion:            250,
		ESGScoreLow:                 60,
		RenewableRatioLow:           15,
	}
}

// ThresholdNames возвращает имена порогов в каноническом порядке
func ThresholdNames() []string {
	return []string{
		CarbonEmissionHigh,
		CarbonEmissionCritical,
		EnergyEfficiencyLow,
		EnergyConsumptionSpikeRatio,
		VesselCongestion,
		ESGScoreLow,
		RenewableRatioLow,
	}
}

// Snapshot позволяет передавать готовый набор порогов туда, где ожидается ThresholdReader
func (t Thresholds) Snapshot() Thresholds { return t }

// Map представление порогов в виде имя -> значение
func (t Thresholds) Map() map[string]float64 {
	out := make(map[string]float64, len(ThresholdNames()))
	for _, name := range ThresholdNames() {
		v, _ := t.Get(name)
		out[name] = v
	}
	return out
}

// Get возвращает значение порога по имени
func (t Thresholds) Get(name string) (float64, error) {
	p, err := t.field(name)
	if err != nil {
		return 0, err
	}
	return *p, nil
}

// With возвращает копию набора с измененным порогом
func (t Thresholds) With(name string, value float64) (Thresholds, error) {
	p, err := t.field(name)
	if err != nil {
		return t, err
	}
	if err := validateValue(name, value); err != nil {
		return t, err
	}
	*p = value
	return t, nil
}

// Validate проверяет все значения набора
func (t Thresholds) Validate() error {
	for name, v := range t.Map() {
		if err := validateValue(name, v); err != nil {
			return err
		}
	}
	return nil
}

func (t *Thresholds) field(name string) (*float64, error) {
	switch name {
	case CarbonEmissionHigh:
		return &t.CarbonEmissionHigh, nil
	case CarbonEmissionCritical:
		return &t.CarbonEmissionCritical, nil
	case EnergyEfficiencyLow:
		return &t.EnergyEfficiencyLow, nil
	case EnergyConsumptionSpikeRatio:
		return &t.EnergyConsumptionSpikeRatio, nil
	case VesselCongestion:
		return &t.VesselCongestion, nil
	case ESGScoreLow:
		return &t.ESGScoreLow, nil
	case RenewableRatioLow:
		return &t.RenewableRatioLow, nil
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownThreshold)
	}
}

func validateValue(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%s=%v: %w", name, v, ErrInvalidThreshold)
	}
	if name == EnergyConsumptionSpikeRatio && v == 0 {
		return fmt.Errorf("%s must be positive: %w", name, ErrInvalidThreshold)
	}
	return nil
}

// ThresholdReader источник согласованного набора порогов
type ThresholdReader interface {
	Snapshot() Thresholds
}

// ThresholdConfig изменяемые во время работы пороги.
// Оценка читает их один раз за цикл через Snapshot.
type ThresholdConfig struct {
	current Thresholds
	mu      sync.RWMutex
}

// NewThresholdConfig создает конфигурацию порогов
func NewThresholdConfig(initial Thresholds) (*ThresholdConfig, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	return &ThresholdConfig{current: initial}, nil
}

// Snapshot возвращает копию текущих порогов
func (c *ThresholdConfig) Snapshot() Thresholds {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Set изменяет один порог
func (c *ThresholdConfig) Set(name string, value float64) error {
	_, err := c.Update(map[string]float64{name: value})
	return err
}

// Update применяет набор изменений целиком или не применяет ничего
func (c *ThresholdConfig) Update(changes map[string]float64) (Thresholds, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.current
	for name, value := range changes {
		var err error
		if next, err = next.With(name, value); err != nil {
			return c.current, err
		}
	}
	c.current = next
	return next, nil
}
