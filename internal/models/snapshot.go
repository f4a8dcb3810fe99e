package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// TerminalCount количество терминалов, для которых снимается мощность
const TerminalCount = 3

// Ошибки нарушения контракта данных
var (
	ErrZeroTimestamp  = errors.New("timestamp cannot be zero")
	ErrNegativeValue  = errors.New("value cannot be negative")
	ErrOutOfRange     = errors.New("value is outside the allowed range")
	ErrNotFiniteValue = errors.New("value must be a finite number")
)

// TelemetrySnapshot показания телеметрии порта на момент времени.
// Все ограниченные поля приводятся к допустимому диапазону источником данных.
type TelemetrySnapshot struct {
	Timestamp         time.Time              `json:"timestamp"`
	CarbonEmission    float64                `json:"carbon_emission"`    // т CO2/час
	EnergyConsumption float64                `json:"energy_consumption"` // кВт
	EnergyEfficiency  float64                `json:"energy_efficiency"`  // %
	VesselCount       int                    `json:"vessel_count"`
	RenewableRatio    float64                `json:"renewable_ratio"` // %
	ESGScore          int                    `json:"esg_score"`
	TerminalPower     [TerminalCount]float64 `json:"terminal_power"` // кВт
	WindSpeed         float64                `json:"wind_speed"`     // м/с
	AirQualityIndex   int                    `json:"air_quality_index"`
}

// все нижние границы контракта равны нулю
type fieldCheck struct {
	field    string
	value    float64
	min, max float64
}

// Validate проверяет, что снимок соблюдает контракт данных.
// Значения не исправляются: любое нарушение возвращается как ошибка.
func (s *TelemetrySnapshot) Validate() error {
	if s.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}

	checks := []fieldCheck{
		{"carbon_emission", s.CarbonEmission, 0, math.Inf(1)},
		{"energy_consumption", s.EnergyConsumption, 0, math.Inf(1)},
		{"energy_efficiency", s.EnergyEfficiency, 0, 100},
		{"vessel_count", float64(s.VesselCount), 0, math.Inf(1)},
		{"renewable_ratio", s.RenewableRatio, 0, 100},
		{"esg_score", float64(s.ESGScore), 0, 100},
		{"wind_speed", s.WindSpeed, 0, math.Inf(1)},
		{"air_quality_index", float64(s.AirQualityIndex), 0, math.Inf(1)},
	}
	for i, p := range s.TerminalPower {
		checks = append(checks, fieldCheck{fmt.Sprintf("terminal_power[%d]", i+1), p, 0, math.Inf(1)})
	}

	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return fmt.Errorf("%s: %w", c.field, ErrNotFiniteValue)
		}
		if c.value < c.min {
			return fmt.Errorf("%s=%v: %w", c.field, c.value, ErrNegativeValue)
		}
		if c.value > c.max {
			return fmt.Errorf("%s=%v not in [%v, %v]: %w", c.field, c.value, c.min, c.max, ErrOutOfRange)
		}
	}

	return nil
}
