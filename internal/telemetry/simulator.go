package telemetry

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"ecoport/internal/models"
)

// SimulatorConfig параметры симулятора телеметрии
type SimulatorConfig struct {
	Retention int
	Seed      uint64 // 0 - сид от текущего времени
	Now       func() time.Time
}

// Simulator синтетический источник телеметрии порта.
// История засевается почасовыми отсчетами, Current возмущает последний отсчет.
type Simulator struct {
	history *History
	rng     *rand.Rand
	now     func() time.Time
	mu      sync.Mutex
}

// NewSimulator создает симулятор и засевает историю
func NewSimulator(cfg SimulatorConfig) *Simulator {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(cfg.Now().UnixNano())
	}

	s := &Simulator{
		history: NewHistory(cfg.Retention),
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:     cfg.Now,
	}

	base := cfg.Now()
	for i := s.history.Cap() - 1; i >= 0; i-- {
		s.history.Append(s.seedSample(base.Add(-time.Duration(i) * time.Hour)))
	}
	return s
}

// Current возвращает возмущенную копию последнего отсчета истории
func (s *Simulator) Current() models.TelemetrySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest, ok := s.history.Latest()
	if !ok {
		return s.seedSample(s.now())
	}

	return models.TelemetrySnapshot{
		Timestamp:         s.now(),
		CarbonEmission:    latest.CarbonEmission * s.uniform(0.95, 1.05),
		EnergyConsumption: latest.EnergyConsumption * s.uniform(0.9, 1.1),
		EnergyEfficiency:  clamp(latest.EnergyEfficiency+s.uniform(-3, 3), 0, 100),
		VesselCount:       max(0, latest.VesselCount+s.intRange(-10, 15)),
		RenewableRatio:    clamp(latest.RenewableRatio+s.uniform(-2, 2), 0, 50),
		ESGScore:          min(100, max(0, latest.ESGScore+s.intRange(-5, 5))),
		TerminalPower: [models.TerminalCount]float64{
			latest.TerminalPower[0] * s.uniform(0.8, 1.2),
			latest.TerminalPower[1] * s.uniform(0.8, 1.2),
			latest.TerminalPower[2] * s.uniform(0.8, 1.2),
		},
		WindSpeed:       math.Max(0, latest.WindSpeed+s.uniform(-3, 3)),
		AirQualityIndex: min(300, max(0, latest.AirQualityIndex+s.intRange(-20, 20))),
	}
}

// History возвращает не более n последних зафиксированных отсчетов
func (s *Simulator) History(n int) []models.TelemetrySnapshot {
	return s.history.Last(n)
}

// Append фиксирует снимок в истории
func (s *Simulator) Append(snapshot models.TelemetrySnapshot) {
	s.history.Append(snapshot)
}

func (s *Simulator) seedSample(ts time.Time) models.TelemetrySnapshot {
	return models.TelemetrySnapshot{
		Timestamp:         ts,
		CarbonEmission:    s.uniform(800, 1300),
		EnergyConsumption: s.uniform(500, 2000),
		EnergyEfficiency:  s.uniform(65, 90),
		VesselCount:       s.intRange(50, 300),
		RenewableRatio:    s.uniform(10, 35),
		ESGScore:          s.intRange(50, 95),
		TerminalPower: [models.TerminalCount]float64{
			s.uniform(200, 800),
			s.uniform(150, 600),
			s.uniform(300, 900),
		},
		WindSpeed:       s.uniform(5, 25),
		AirQualityIndex: s.intRange(20, 150),
	}
}

func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// intRange случайное целое в [lo, hi] включительно
func (s *Simulator) intRange(lo, hi int) int {
	return lo + s.rng.IntN(hi-lo+1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
