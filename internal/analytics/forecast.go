package analytics

// LinearFit подбирает прямую y = slope*x + intercept методом наименьших квадратов
// по точкам (i, values[i]). Для менее чем двух точек ok=false.
func LinearFit(values []float64) (slope, intercept float64, ok bool) {
	if len(values) < 2 {
		return 0, 0, false
	}

	n := float64(len(values))
	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return 0, 0, false
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept, true
}

// Forecast экстраполирует линейный тренд на stepsAhead шагов после последнего индекса
func Forecast(values []float64, stepsAhead int) (float64, bool) {
	slope, intercept, ok := LinearFit(values)
	if !ok {
		return 0, false
	}
	x := float64(len(values) - 1 + stepsAhead)
	return slope*x + intercept, true
}
