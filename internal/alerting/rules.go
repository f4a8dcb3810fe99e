package alerting

import (
	"fmt"
	"time"

	"ecoport/internal/analytics"
	"ecoport/internal/models"
)

// Фиксированные пределы, не входящие в ThresholdConfig
const (
	TerminalPowerHigh    = 700.0 // кВт
	TerminalPowerLow     = 100.0 // кВт
	WindSpeedHigh        = 20.0  // м/с
	AirQualitySensitive  = 100   // AQI выше - вредно для чувствительных групп
	AirQualityUnhealthy  = 150   // AQI выше - вредно для всех
	EmissionTrendSamples = 3
	EmissionTrendRisePct = 15.0
	VesselTrendSamples   = 4
	SpikeMinSamples      = 2
	ForecastMinSamples   = 6
	ForecastStepsAhead   = 2
)

// Input данные одного цикла оценки, общие для всех правил
type Input struct {
	Current    models.TelemetrySnapshot
	History    []models.TelemetrySnapshot // от старых к новым
	Thresholds Thresholds
	Now        time.Time
}

// Rule чистая функция от входа цикла к нулю или нескольким предупреждениям
type Rule struct {
	Name     string
	Evaluate func(in Input) []models.Alert
}

// DefaultRules полный набор правил в фиксированном порядке вывода
func DefaultRules() []Rule {
	return []Rule{
		{Name: "carbon_emission_level", Evaluate: carbonEmissionLevel},
		{Name: "carbon_emission_trend", Evaluate: carbonEmissionTrend},
		{Name: "energy_efficiency", Evaluate: energyEfficiency},
		{Name: "energy_consumption_spike", Evaluate: energyConsumptionSpike},
		{Name: "renewable_ratio", Evaluate: renewableRatio},
		{Name: "terminal_power", Evaluate: terminalPower},
		{Name: "weather", Evaluate: weather},
		{Name: "air_quality", Evaluate: airQuality},
		{Name: "vessel_congestion", Evaluate: vesselCongestion},
		{Name: "vessel_count_trend", Evaluate: vesselCountTrend},
		{Name: "esg_score", Evaluate: esgScore},
		{Name: "predictive_emission", Evaluate: predictiveEmission},
	}
}

func carbonEmissionLevel(in Input) []models.Alert {
	emission := in.Current.CarbonEmission
	th := in.Thresholds

	switch {
	case emission > th.CarbonEmissionCritical:
		return []models.Alert{{
			Rule:           "carbon_emission_level",
			Type:           models.AlertError,
			Priority:       models.PriorityCritical,
			Category:       models.CategoryEmission,
			Title:          "Carbon emission critically high",
			Message:        fmt.Sprintf("Current carbon emission %.0f t CO2/h exceeds the critical limit of %v t", emission, th.CarbonEmissionCritical),
			Recommendation: "Shut down non-essential high-load equipment and start the emergency reduction procedure",
			Value:          emission,
			Threshold:      th.CarbonEmissionCritical,
			Timestamp:      in.Current.Timestamp,
		}}
	case emission > th.CarbonEmissionHigh:
		return []models.Alert{{
			Rule:           "carbon_emission_level",
			Type:           models.AlertWarning,
			Priority:       models.PriorityHigh,
			Category:       models.CategoryEmission,
			Title:          "Carbon emission high",
			Message:        fmt.Sprintf("Current carbon emission %.0f t CO2/h exceeds the warning limit of %v t", emission, th.CarbonEmissionHigh),
			Recommendation: "Rebalance the operation schedule to reduce concurrently running high-emission equipment",
			Value:          emission,
			Threshold:      th.CarbonEmissionHigh,
			Timestamp:      in.Current.Timestamp,
		}}
	}
	return nil
}

func carbonEmissionTrend(in Input) []models.Alert {
	if len(in.History) < EmissionTrendSamples {
		return nil
	}

	recent := in.History[len(in.History)-EmissionTrendSamples:]
	values := make([]float64, len(recent))
	for i, s := range recent {
		values[i] = s.CarbonEmission
	}
	if !analytics.StrictlyIncreasing(values) {
		return nil
	}
	rise, ok := analytics.PercentChange(values[0], values[len(values)-1])
	if !ok || rise <= EmissionTrendRisePct {
		return nil
	}

	return []models.Alert{{
		Rule:           "carbon_emission_trend",
		Type:           models.AlertWarning,
		Priority:       models.PriorityMedium,
		Category:       models.CategoryTrend,
		Title:          "Sustained rise in carbon emission",
		Message:        fmt.Sprintf("Carbon emission rose over the last %d samples, up %.1f%% (limit %.0f%%)", EmissionTrendSamples, rise, EmissionTrendRisePct),
		Recommendation: "Check equipment status and consider lowering operation intensity",
		Value:          rise,
		Threshold:      EmissionTrendRisePct,
		Timestamp:      in.Current.Timestamp,
	}}
}

func energyEfficiency(in Input) []models.Alert {
	eff := in.Current.EnergyEfficiency
	limit := in.Thresholds.EnergyEfficiencyLow
	if eff >= limit {
		return nil
	}

	return []models.Alert{{
		Rule:           "energy_efficiency",
		Type:           models.AlertWarning,
		Priority:       models.PriorityMedium,
		Category:       models.CategoryEfficiency,
		Title:          "Energy efficiency low",
		Message:        fmt.Sprintf("Current energy efficiency %.1f%% is below the target of %v%%", eff, limit),
		Recommendation: "Inspect equipment and schedule maintenance to restore efficiency",
		Value:          eff,
		Threshold:      limit,
		Timestamp:      in.Current.Timestamp,
	}}
}

func energyConsumptionSpike(in Input) []models.Alert {
	if len(in.History) < SpikeMinSamples {
		return nil
	}

	// последний отсчет истории в базу не входит
	baseline := make([]float64, 0, len(in.History)-1)
	for _, s := range in.History[:len(in.History)-1] {
		baseline = append(baseline, s.EnergyConsumption)
	}
	mean := analytics.Mean(baseline)
	if mean == 0 {
		return nil
	}

	consumption := in.Current.EnergyConsumption
	ratio := in.Thresholds.EnergyConsumptionSpikeRatio
	if consumption <= mean*ratio {
		return nil
	}
	over := (consumption/mean - 1) * 100

	return []models.Alert{{
		Rule:           "energy_consumption_spike",
		Type:           models.AlertError,
		Priority:       models.PriorityHigh,
		Category:       models.CategoryConsumption,
		Title:          "Energy consumption spike",
		Message:        fmt.Sprintf("Current consumption %.0f kW is %.0f%% above the trailing mean of %.0f kW (limit x%v)", consumption, over, mean, ratio),
		Recommendation: "Check all equipment immediately and locate the abnormal consumer",
		Value:          consumption,
		Threshold:      mean * ratio,
		Timestamp:      in.Current.Timestamp,
	}}
}

func renewableRatio(in Input) []models.Alert {
	ratio := in.Current.RenewableRatio
	limit := in.Thresholds.RenewableRatioLow
	if ratio >= limit {
		return nil
	}

	return []models.Alert{{
		Rule:           "renewable_ratio",
		Type:           models.AlertInfo,
		Priority:       models.PriorityLow,
		Category:       models.CategoryRenewable,
		Title:          "Renewable energy share low",
		Message:        fmt.Sprintf("Renewable energy share is only %.1f%%, target is at least %v%%", ratio, limit),
		Recommendation: "Increase the use of solar, wind and other renewable sources",
		Value:          ratio,
		Threshold:      limit,
		Timestamp:      in.Current.Timestamp,
	}}
}

func terminalPower(in Input) []models.Alert {
	var alerts []models.Alert
	for i, power := range in.Current.TerminalPower {
		terminal := fmt.Sprintf("Terminal %d", i+1)
		switch {
		case power > TerminalPowerHigh:
			alerts = append(alerts, models.Alert{
				Rule:           "terminal_power",
				Type:           models.AlertWarning,
				Priority:       models.PriorityMedium,
				Category:       models.CategoryEquipment,
				Title:          terminal + " power abnormal",
				Message:        fmt.Sprintf("%s draws %.0f kW, above the normal operating limit of %.0f kW", terminal, power, TerminalPowerHigh),
				Recommendation: fmt.Sprintf("Inspect %s equipment for faults", terminal),
				Value:          power,
				Threshold:      TerminalPowerHigh,
				Timestamp:      in.Current.Timestamp,
			})
		case power < TerminalPowerLow:
			alerts = append(alerts, models.Alert{
				Rule:           "terminal_power",
				Type:           models.AlertInfo,
				Priority:       models.PriorityLow,
				Category:       models.CategoryEquipment,
				Title:          terminal + " power low",
				Message:        fmt.Sprintf("%s draws only %.0f kW, below %.0f kW; equipment may be underused", terminal, power, TerminalPowerLow),
				Recommendation: fmt.Sprintf("Review the %s work plan and check whether more equipment should run", terminal),
				Value:          power,
				Threshold:      TerminalPowerLow,
				Timestamp:      in.Current.Timestamp,
			})
		}
	}
	return alerts
}

func weather(in Input) []models.Alert {
	wind := in.Current.WindSpeed
	if wind <= WindSpeedHigh {
		return nil
	}

	return []models.Alert{{
		Rule:           "weather",
		Type:           models.AlertWarning,
		Priority:       models.PriorityMedium,
		Category:       models.CategoryWeather,
		Title:          "Strong wind",
		Message:        fmt.Sprintf("Current wind speed %.1f m/s exceeds %.0f m/s and may affect container handling safety", wind, WindSpeedHigh),
		Recommendation: "Secure containers, suspend work at height and keep staff clear",
		Value:          wind,
		Threshold:      WindSpeedHigh,
		Timestamp:      in.Current.Timestamp,
	}}
}

func airQuality(in Input) []models.Alert {
	aqi := in.Current.AirQualityIndex
	if aqi <= AirQualitySensitive {
		return nil
	}

	level := "unhealthy for sensitive groups"
	if aqi > AirQualityUnhealthy {
		level = "unhealthy"
	}

	return []models.Alert{{
		Rule:           "air_quality",
		Type:           models.AlertWarning,
		Priority:       models.PriorityMedium,
		Category:       models.CategoryEnvironment,
		Title:          "Poor air quality",
		Message:        fmt.Sprintf("Current AQI %d is above %d, air quality is %s", aqi, AirQualitySensitive, level),
		Recommendation: "Outdoor staff should wear protective masks; limit unnecessary outdoor activity",
		Value:          float64(aqi),
		Threshold:      AirQualitySensitive,
		Timestamp:      in.Current.Timestamp,
	}}
}

func vesselCongestion(in Input) []models.Alert {
	count := in.Current.VesselCount
	limit := in.Thresholds.VesselCongestion
	if float64(count) <= limit {
		return nil
	}

	return []models.Alert{{
		Rule:           "vessel_congestion",
		Type:           models.AlertWarning,
		Priority:       models.PriorityHigh,
		Category:       models.CategoryOperation,
		Title:          "Port congestion",
		Message:        fmt.Sprintf("%d vessels in port exceed the optimal capacity of %v", count, limit),
		Recommendation: "Optimise berth scheduling, speed up handling and consider delaying some arrivals",
		Value:          float64(count),
		Threshold:      limit,
		Timestamp:      in.Current.Timestamp,
	}}
}

func vesselCountTrend(in Input) []models.Alert {
	if len(in.History) < VesselTrendSamples {
		return nil
	}

	recent := in.History[len(in.History)-VesselTrendSamples:]
	values := make([]float64, len(recent))
	for i, s := range recent {
		values[i] = float64(s.VesselCount)
	}
	if !analytics.StrictlyIncreasing(values) {
		return nil
	}

	return []models.Alert{{
		Rule:           "vessel_count_trend",
		Type:           models.AlertInfo,
		Priority:       models.PriorityMedium,
		Category:       models.CategoryTrend,
		Title:          "Vessel count rising",
		Message:        fmt.Sprintf("Vessel count rose over the last %d samples, currently %d vessels", VesselTrendSamples, in.Current.VesselCount),
		Recommendation: "Prepare additional staff and equipment to prevent congestion",
		Value:          float64(in.Current.VesselCount),
		Threshold:      values[0],
		Timestamp:      in.Current.Timestamp,
	}}
}

func esgScore(in Input) []models.Alert {
	score := in.Current.ESGScore
	limit := in.Thresholds.ESGScoreLow
	if float64(score) >= limit {
		return nil
	}

	return []models.Alert{{
		Rule:           "esg_score",
		Type:           models.AlertWarning,
		Priority:       models.PriorityMedium,
		Category:       models.CategoryESG,
		Title:          "ESG score low",
		Message:        fmt.Sprintf("Current ESG score %d is below the target of %v", score, limit),
		Recommendation: "Strengthen environmental measures, social responsibility and governance",
		Value:          float64(score),
		Threshold:      limit,
		Timestamp:      in.Current.Timestamp,
	}}
}

func predictiveEmission(in Input) []models.Alert {
	if len(in.History) < ForecastMinSamples {
		return nil
	}

	emissions := make([]float64, len(in.History))
	for i, s := range in.History {
		emissions[i] = s.CarbonEmission
	}
	predicted, ok := analytics.Forecast(emissions, ForecastStepsAhead)
	limit := in.Thresholds.CarbonEmissionHigh
	if !ok || predicted <= limit {
		return nil
	}

	return []models.Alert{{
		Rule:           "predictive_emission",
		Type:           models.AlertInfo,
		Priority:       models.PriorityMedium,
		Category:       models.CategoryPrediction,
		Title:          "Emission forecast above limit",
		Message:        fmt.Sprintf("Trend analysis predicts carbon emission of %.0f t CO2/h in %d samples, above the warning limit of %v t", predicted, ForecastStepsAhead, limit),
		Recommendation: "Adjust the operation plan in advance to avoid the emission peak",
		Value:          predicted,
		Threshold:      limit,
		Timestamp:      in.Now,
	}}
}
