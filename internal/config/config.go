package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"ecoport/internal/alerting"
	"ecoport/internal/telemetry"
)

// Config конфигурация приложения
type Config struct {
	ServerPort        string              `yaml:"server_port"`
	LogLevel          string              `yaml:"log_level"`
	HistoryRetention  int                 `yaml:"history_retention"`
	TrendWindow       int                 `yaml:"trend_window"`
	AlertHistoryLimit int                 `yaml:"alert_history_limit"`
	RefreshInterval   time.Duration       `yaml:"refresh_interval"` // 0 - только ручное обновление
	Seed              uint64              `yaml:"seed"`
	Redis             RedisConfig         `yaml:"redis"`
	Kafka             KafkaConfig         `yaml:"kafka"`
	Thresholds        alerting.Thresholds `yaml:"thresholds"`

	ConfigPath string `yaml:"-"`
}

// RedisConfig архив предупреждений в Redis
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// KafkaConfig публикация предупреждений в Kafka
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		ServerPort:        "8080",
		LogLevel:          "info",
		HistoryRetention:  telemetry.DefaultRetention,
		TrendWindow:       alerting.DefaultTrendWindow,
		AlertHistoryLimit: alerting.DefaultHistoryLimit,
		Redis: RedisConfig{
			Addr: "localhost:6379",
			TTL:  time.Hour,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "ecoport.alerts",
		},
		Thresholds: alerting.DefaultThresholds(),
		ConfigPath: "config.yaml",
	}
}

// Load читает конфигурацию в порядке: умолчания < yaml < переменные окружения < флаги.
// Отсутствующий файл конфигурации не является ошибкой.
func Load(args []string) (*Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("ecoport", flag.ContinueOnError)
	configPath := fs.String("config", cfg.ConfigPath, "Path to config.yaml")
	port := fs.String("port", "", "HTTP listen port")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	refresh := fs.Duration("refresh-interval", -1, "Automatic refresh interval, 0 disables")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.ConfigPath = *configPath

	data, err := os.ReadFile(cfg.ConfigPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", cfg.ConfigPath, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read %s: %w", cfg.ConfigPath, err)
	}

	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.RefreshInterval = getEnvAsDuration("REFRESH_INTERVAL", cfg.RefreshInterval)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", cfg.Kafka.Topic)
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitCSV(v)
	}

	if *port != "" {
		cfg.ServerPort = *port
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *refresh >= 0 {
		cfg.RefreshInterval = *refresh
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	if c.HistoryRetention <= 0 {
		return fmt.Errorf("history_retention must be positive, got %d", c.HistoryRetention)
	}
	if c.TrendWindow <= 0 || c.TrendWindow > c.HistoryRetention {
		return fmt.Errorf("trend_window must be in [1, %d], got %d", c.HistoryRetention, c.TrendWindow)
	}
	if c.AlertHistoryLimit <= 0 {
		return fmt.Errorf("alert_history_limit must be positive, got %d", c.AlertHistoryLimit)
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("refresh_interval cannot be negative")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("kafka requires brokers and topic")
	}
	return c.Thresholds.Validate()
}

// getEnv получает environment variable или возвращает default
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt получает environment variable как int
func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration получает environment variable как time.Duration
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
