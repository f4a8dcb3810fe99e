package alerting

import (
	"errors"
	"math"
	"testing"
)

func TestThresholdNamesRoundTrip(t *testing.T) {
	th := DefaultThresholds()
	m := th.Map()
	if len(m) != 7 {
		t.Fatalf("expected 7 thresholds got %d", len(m))
	}
	for _, name := range ThresholdNames() {
		v, err := th.Get(name)
		if err != nil {
			t.Fatalf("Get(%s): %v", name, err)
		}
		if m[name] != v {
			t.Fatalf("%s: map %v != get %v", name, m[name], v)
		}
	}
	if m[CarbonEmissionHigh] != 1200 || m[EnergyConsumptionSpikeRatio] != 1.3 {
		t.Fatalf("unexpected defaults %+v", m)
	}
}

func TestThresholdConfigUpdateIsAtomic(t *testing.T) {
	cfg, err := NewThresholdConfig(DefaultThresholds())
	if err != nil {
		t.Fatalf("NewThresholdConfig: %v", err)
	}

	_, err = cfg.Update(map[string]float64{
		CarbonEmissionHigh: 1000,
		"no_such_threshold": 1,
	})
	if !errors.Is(err, ErrUnknownThreshold) {
		t.Fatalf("expected unknown threshold error got %v", err)
	}
	if cfg.Snapshot().CarbonEmissionHigh != 1200 {
		t.Fatalf("partial update must not be applied")
	}

	updated, err := cfg.Update(map[string]float64{CarbonEmissionHigh: 1000, ESGScoreLow: 50})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.CarbonEmissionHigh != 1000 || cfg.Snapshot().ESGScoreLow != 50 {
		t.Fatalf("update not applied: %+v", cfg.Snapshot())
	}
}

func TestThresholdValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value float64
	}{
		{"negative", VesselCongestion, -1},
		{"nan", CarbonEmissionHigh, math.NaN()},
		{"inf", CarbonEmissionCritical, math.Inf(1)},
		{"zero ratio", EnergyConsumptionSpikeRatio, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _ := NewThresholdConfig(DefaultThresholds())
			if err := cfg.Set(tt.key, tt.value); !errors.Is(err, ErrInvalidThreshold) {
				t.Fatalf("expected invalid threshold error got %v", err)
			}
		})
	}

	bad := DefaultThresholds()
	bad.RenewableRatioLow = -5
	if _, err := NewThresholdConfig(bad); !errors.Is(err, ErrInvalidThreshold) {
		t.Fatalf("expected constructor to reject invalid thresholds, got %v", err)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	cfg, _ := NewThresholdConfig(DefaultThresholds())
	snap := cfg.Snapshot()
	if err := cfg.Set(CarbonEmissionHigh, 900); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if snap.CarbonEmissionHigh != 1200 {
		t.Fatalf("snapshot changed after Set")
	}
}
