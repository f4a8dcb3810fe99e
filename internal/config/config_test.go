package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load([]string{"-config", filepath.Join(t.TempDir(), "absent.yaml")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != "8080" || cfg.TrendWindow != 6 || cfg.AlertHistoryLimit != 50 || cfg.HistoryRetention != 24 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Thresholds.CarbonEmissionCritical != 1500 {
		t.Fatalf("expected default thresholds, got %+v", cfg.Thresholds)
	}
}

func TestLoadPriority(t *testing.T) {
	path := writeConfig(t, `
server_port: "9000"
log_level: debug
refresh_interval: 30s
thresholds:
  carbon_emission_high: 1100
  vessel_congestion: 200
redis:
  enabled: true
  ttl: 2h
`)
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load([]string{"-config", path, "-log-level", "warn"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != "9100" {
		t.Fatalf("env must override yaml, got %s", cfg.ServerPort)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("flag must override yaml, got %s", cfg.LogLevel)
	}
	if cfg.RefreshInterval != 30*time.Second || cfg.Redis.TTL != 2*time.Hour || !cfg.Redis.Enabled {
		t.Fatalf("yaml durations not applied: %+v", cfg)
	}
	if cfg.Thresholds.CarbonEmissionHigh != 1100 || cfg.Thresholds.VesselCongestion != 200 {
		t.Fatalf("yaml thresholds not applied: %+v", cfg.Thresholds)
	}
	if cfg.Thresholds.ESGScoreLow != 60 {
		t.Fatalf("unset thresholds must keep defaults, got %v", cfg.Thresholds.ESGScoreLow)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.Kafka.Brokers)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := map[string]string{
		"negative threshold": "thresholds:\n  esg_score_low: -1\n",
		"window too large":   "trend_window: 30\n",
		"broken yaml":        "server_port: [\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load([]string{"-config", writeConfig(t, body)}); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
