// Package carbon считает выбросы CO2 судов и портового оборудования и ESG оценку.
package carbon

import (
	"errors"
	"fmt"
	"math"
)

// Коэффициенты выбросов, кг CO2 на литр топлива или на кВт·ч
var EmissionFactors = map[string]float64{
	"diesel":      2.68,
	"heavy_oil":   3.15,
	"natural_gas": 2.75,
	"electricity": 0.502,
}

// DefaultFuel топливо, коэффициент которого берется для неизвестного типа
const DefaultFuel = "diesel"

var ErrNegativeInput = errors.New("input cannot be negative")

// FuelFactor коэффициент для типа топлива с откатом на дизель
func FuelFactor(fuel string) float64 {
	if f, ok := EmissionFactors[fuel]; ok {
		return f
	}
	return EmissionFactors[DefaultFuel]
}

// ShipEmissions выбросы судна в тоннах CO2
func ShipEmissions(fuel string, hours, litersPerHour float64) (float64, error) {
	if err := nonNegative("operation_hours", hours); err != nil {
		return 0, err
	}
	if err := nonNegative("fuel_consumption", litersPerHour); err != nil {
		return 0, err
	}
	return round2(litersPerHour * hours * FuelFactor(fuel) / 1000), nil
}

// EquipmentEmissions выбросы электрического оборудования в тоннах CO2
func EquipmentEmissions(powerKW, hours float64) (float64, error) {
	if err := nonNegative("power_consumption", powerKW); err != nil {
		return 0, err
	}
	if err := nonNegative("operation_hours", hours); err != nil {
		return 0, err
	}
	return round2(powerKW * hours * EmissionFactors["electricity"] / 1000), nil
}

// ESGScore взвешенная оценка: 40% углеродная составляющая, по 30% эффективность и ВИЭ
func ESGScore(carbonEmission, energyEfficiency, renewableRatio float64) int {
	carbonScore := math.Max(0, 100-carbonEmission/10)
	total := carbonScore*0.4 + energyEfficiency*0.3 + renewableRatio*0.3
	return int(math.Round(math.Min(100, math.Max(0, total))))
}

func nonNegative(field string, v float64) error {
	if v < 0 || math.IsNaN(v) {
		return fmt.Errorf("%s=%v: %w", field, v, ErrNegativeInput)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
