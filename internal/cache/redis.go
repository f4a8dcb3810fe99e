package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ecoport/internal/models"
)

const (
	alertListKey  = "alert_list"
	latestSnapKey = "snapshot:latest"
)

// ArchivedAlert предупреждение с идентификатором цикла, в котором оно возникло
type ArchivedAlert struct {
	CycleID string       `json:"cycle_id"`
	Alert   models.Alert `json:"alert"`
}

// RedisArchive архив предупреждений и снимков телеметрии в Redis
type RedisArchive struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisArchive создает архив и проверяет подключение
func NewRedisArchive(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisArchive, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisArchive{
		client: client,
		ttl:    ttl,
	}, nil
}

// Name имя приемника для метрик и логов
func (r *RedisArchive) Name() string { return "redis" }

// PublishCycle сохраняет снимок и предупреждения цикла
func (r *RedisArchive) PublishCycle(ctx context.Context, cycle models.CycleResult) error {
	if err := r.StoreSnapshot(ctx, cycle.CycleID, cycle.Snapshot); err != nil {
		return err
	}
	return r.StoreAlerts(ctx, cycle.CycleID, cycle.EvaluatedAt, cycle.Alerts)
}

// StoreSnapshot сохраняет снимок цикла и обновляет последний снимок
func (r *RedisArchive) StoreSnapshot(ctx context.Context, cycleID string, snapshot models.TelemetrySnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, snapshotKey(cycleID), data, r.ttl)
	pipe.Set(ctx, latestSnapKey, data, r.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// StoreAlerts сохраняет предупреждения цикла (с более длительным TTL)
// и индексирует их в sorted set по времени оценки
func (r *RedisArchive) StoreAlerts(ctx context.Context, cycleID string, evaluatedAt time.Time, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	// Предупреждения хранятся дольше снимков
	alertTTL := r.ttl * 24

	pipe := r.client.Pipeline()
	for i, a := range alerts {
		data, err := json.Marshal(ArchivedAlert{CycleID: cycleID, Alert: a})
		if err != nil {
			return fmt.Errorf("failed to marshal alert %s: %w", a.Rule, err)
		}
		key := alertKey(cycleID, i)
		pipe.Set(ctx, key, data, alertTTL)
		pipe.ZAdd(ctx, alertListKey, redis.Z{Score: alertScore(evaluatedAt, i), Member: key})
	}
	pipe.Expire(ctx, alertListKey, alertTTL)

	_, err := pipe.Exec(ctx)
	return err
}

// RecentAlerts возвращает последние limit предупреждений, от новых к старым.
// Истекшие по TTL записи пропускаются и удаляются из индекса.
func (r *RedisArchive) RecentAlerts(ctx context.Context, limit int) ([]ArchivedAlert, error) {
	if limit <= 0 {
		return []ArchivedAlert{}, nil
	}

	keys, err := r.client.ZRevRange(ctx, alertListKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	if len(keys) == 0 {
		return []ArchivedAlert{}, nil
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get alerts: %w", err)
	}

	out := make([]ArchivedAlert, 0, len(values))
	var expired []interface{}
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			expired = append(expired, keys[i])
			continue
		}
		var a ArchivedAlert
		if err := json.Unmarshal([]byte(s), &a); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", keys[i], err)
		}
		out = append(out, a)
	}

	if len(expired) > 0 {
		r.client.ZRem(ctx, alertListKey, expired...)
	}
	return out, nil
}

// LatestSnapshot возвращает последний сохраненный снимок
func (r *RedisArchive) LatestSnapshot(ctx context.Context) (models.TelemetrySnapshot, bool, error) {
	var s models.TelemetrySnapshot
	data, err := r.client.Get(ctx, latestSnapKey).Bytes()
	if err == redis.Nil {
		return s, false, nil
	}
	if err != nil {
		return s, false, err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, false, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return s, true, nil
}

// Close закрывает соединение с Redis
func (r *RedisArchive) Close() error {
	return r.client.Close()
}

// Ping проверяет доступность Redis
func (r *RedisArchive) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// GetStats возвращает статистику пула соединений
func (r *RedisArchive) GetStats() map[string]interface{} {
	stats := r.client.PoolStats()

	return map[string]interface{}{
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}
}

func alertKey(cycleID string, index int) string {
	return fmt.Sprintf("alert:%s:%d", cycleID, index)
}

func snapshotKey(cycleID string) string {
	return "snapshot:" + cycleID
}

// alertScore сохраняет порядок правил внутри цикла при одинаковом времени
func alertScore(evaluatedAt time.Time, index int) float64 {
	return float64(evaluatedAt.UnixMilli()) + float64(index)/1000
}
