package models

import "time"

// CycleResult результат одного цикла обновления для клиента
type CycleResult struct {
	CycleID     string            `json:"cycle_id"`
	EvaluatedAt time.Time         `json:"evaluated_at"`
	Snapshot    TelemetrySnapshot `json:"snapshot"`
	Alerts      []Alert           `json:"alerts"`
	Statistics  Statistics        `json:"statistics"`
}

// ShipEmissionRequest тело запроса расчета выбросов судна
type ShipEmissionRequest struct {
	FuelType        string  `json:"fuel_type"`
	OperationHours  float64 `json:"operation_hours"`
	FuelConsumption float64 `json:"fuel_consumption"` // л/час
}

// EquipmentEmissionRequest тело запроса расчета выбросов оборудования
type EquipmentEmissionRequest struct {
	PowerConsumption float64 `json:"power_consumption"` // кВт
	OperationHours   float64 `json:"operation_hours"`
}

// ESGScoreRequest тело запроса расчета ESG оценки
type ESGScoreRequest struct {
	CarbonEmission   float64 `json:"carbon_emission"`
	EnergyEfficiency float64 `json:"energy_efficiency"`
	RenewableRatio   float64 `json:"renewable_ratio"`
}

// EmissionResult результат расчета выбросов
type EmissionResult struct {
	EmissionTons float64 `json:"emission_tons"`
	Factor       float64 `json:"factor"`
}

// ThresholdUpdate частичное обновление порогов: имя -> значение
type ThresholdUpdate map[string]float64
