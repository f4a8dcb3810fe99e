package analytics

import "math"

// Summary сводка по окну значений одной метрики
type Summary struct {
	Count       int     `json:"count"`
	Mean        float64 `json:"mean"`
	StandardDev float64 `json:"standard_dev"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Last        float64 `json:"last"`
	ZScore      float64 `json:"zscore"` // z-score последнего значения относительно окна
}

// Summarize вычисляет сводку по окну. Пустое окно дает нулевую сводку.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	mean := Mean(values)
	stdDev := StdDev(values, mean)
	last := values[len(values)-1]

	s := Summary{
		Count:       len(values),
		Mean:        mean,
		StandardDev: stdDev,
		Min:         values[0],
		Max:         values[0],
		Last:        last,
	}
	for _, v := range values[1:] {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	if stdDev > 0 {
		s.ZScore = (last - mean) / stdDev
	}
	return s
}

// Mean вычисляет среднее значение
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev вычисляет стандартное отклонение генеральной совокупности
func StdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))

	return math.Sqrt(variance)
}

// StrictlyIncreasing проверяет, что каждое следующее значение больше предыдущего.
// Последовательность короче двух элементов ростом не считается.
func StrictlyIncreasing(values []float64) bool {
	if len(values) < 2 {
		return false
	}
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			return false
		}
	}
	return true
}

// PercentChange изменение от first к last в процентах.
// При нулевой базе ok=false: изменение не определено.
func PercentChange(first, last float64) (pct float64, ok bool) {
	if first == 0 {
		return 0, false
	}
	return (last - first) / first * 100, true
}
