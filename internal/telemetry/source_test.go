package telemetry

import (
	"testing"
	"time"

	"ecoport/internal/models"
)

func snapshotAt(ts time.Time, carbon float64) models.TelemetrySnapshot {
	return models.TelemetrySnapshot{Timestamp: ts, CarbonEmission: carbon}
}

func TestHistoryEvictsOldestFirst(t *testing.T) {
	h := NewHistory(3)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		h.Append(snapshotAt(base.Add(time.Duration(i)*time.Hour), float64(i)))
	}

	if h.Len() != 3 {
		t.Fatalf("expected 3 samples got %d", h.Len())
	}
	got := h.Last(10)
	for i, want := range []float64{2, 3, 4} {
		if got[i].CarbonEmission != want {
			t.Fatalf("sample %d: expected %v got %v", i, want, got[i].CarbonEmission)
		}
	}
}

func TestHistoryLastReturnsCopy(t *testing.T) {
	h := NewHistory(5)
	h.Append(snapshotAt(time.Now(), 1))
	h.Append(snapshotAt(time.Now(), 2))

	got := h.Last(1)
	if len(got) != 1 || got[0].CarbonEmission != 2 {
		t.Fatalf("expected latest sample, got %+v", got)
	}
	got[0].CarbonEmission = 99
	if latest, _ := h.Latest(); latest.CarbonEmission != 2 {
		t.Fatalf("history mutated through returned slice")
	}
	if len(h.Last(0)) != 0 {
		t.Fatalf("expected empty result for n=0")
	}
}

func TestSimulatorSeedsHistory(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sim := NewSimulator(SimulatorConfig{Retention: 24, Seed: 7, Now: func() time.Time { return now }})

	hist := sim.History(100)
	if len(hist) != 24 {
		t.Fatalf("expected 24 seeded samples got %d", len(hist))
	}
	for i := 1; i < len(hist); i++ {
		if !hist[i].Timestamp.After(hist[i-1].Timestamp) {
			t.Fatalf("history not ordered oldest first at %d", i)
		}
	}
	if !hist[len(hist)-1].Timestamp.Equal(now) {
		t.Fatalf("expected newest sample at %v got %v", now, hist[len(hist)-1].Timestamp)
	}
	for i, s := range hist {
		if err := s.Validate(); err != nil {
			t.Fatalf("seed sample %d violates contract: %v", i, err)
		}
	}
}

func TestSimulatorCurrentRespectsContract(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{Retention: 6, Seed: 42})
	for i := 0; i < 200; i++ {
		snap := sim.Current()
		if err := snap.Validate(); err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}
		sim.Append(snap)
	}
	if got := len(sim.History(100)); got != 6 {
		t.Fatalf("expected retention 6 got %d", got)
	}
}

func TestSimulatorCurrentIsNotCommitted(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{Retention: 4, Seed: 1})
	before := sim.History(4)
	_ = sim.Current()
	after := sim.History(4)
	if !before[len(before)-1].Timestamp.Equal(after[len(after)-1].Timestamp) {
		t.Fatalf("Current must not append to history")
	}
}
