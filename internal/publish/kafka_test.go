package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"ecoport/internal/models"
)

type fakeWriter struct {
	written []kafka.Message
	err     error
	closed  int
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed++
	return nil
}

func testCycle() models.CycleResult {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return models.CycleResult{
		CycleID:     "cycle-1",
		EvaluatedAt: at,
		Alerts: []models.Alert{
			{Rule: "carbon_emission_level", Type: models.AlertError, Priority: models.PriorityCritical, Category: models.CategoryEmission, Timestamp: at},
			{Rule: "weather", Type: models.AlertWarning, Priority: models.PriorityMedium, Category: models.CategoryWeather, Timestamp: at},
		},
	}
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestPublishCycle(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, "alerts")

	if err := p.PublishCycle(context.Background(), testCycle()); err != nil {
		t.Fatalf("PublishCycle: %v", err)
	}
	if len(w.written) != 2 {
		t.Fatalf("expected one message per alert, got %d", len(w.written))
	}

	msg := w.written[0]
	if string(msg.Key) != "emission" {
		t.Fatalf("expected category key, got %s", msg.Key)
	}
	if header(msg, "cycle_id") != "cycle-1" || header(msg, "type") != "error" || header(msg, "priority") != "critical" {
		t.Fatalf("unexpected headers %+v", msg.Headers)
	}

	var ev AlertEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.CycleID != "cycle-1" || ev.Alert.Rule != "carbon_emission_level" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if got := p.Stats().MessagesSent; got != 2 {
		t.Fatalf("expected 2 sent, got %d", got)
	}
}

func TestPublishCycleWithoutAlerts(t *testing.T) {
	w := &fakeWriter{err: errors.New("must not be called")}
	p := newKafkaPublisher(w, "alerts")
	if err := p.PublishCycle(context.Background(), models.CycleResult{CycleID: "empty"}); err != nil {
		t.Fatalf("empty cycle must not write: %v", err)
	}
}

func TestPublishCycleWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := newKafkaPublisher(&fakeWriter{err: boom}, "alerts")

	err := p.PublishCycle(context.Background(), testCycle())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped writer error, got %v", err)
	}
	if got := p.Stats().MessagesFailed; got != 2 {
		t.Fatalf("expected 2 failed, got %d", got)
	}
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, "alerts")
	p.Close()
	p.Close()
	if w.closed != 1 {
		t.Fatalf("writer must be closed once, got %d", w.closed)
	}
	if err := p.PublishCycle(context.Background(), testCycle()); !errors.Is(err, ErrPublisherClosed) {
		t.Fatalf("expected ErrPublisherClosed, got %v", err)
	}
}

func TestNewKafkaPublisherValidation(t *testing.T) {
	if _, err := NewKafkaPublisher(nil, "alerts"); err == nil {
		t.Fatalf("expected broker error")
	}
	if _, err := NewKafkaPublisher([]string{"localhost:9092"}, ""); err == nil {
		t.Fatalf("expected topic error")
	}
}
