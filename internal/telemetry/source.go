package telemetry

import (
	"sync"

	"ecoport/internal/models"
)

// DefaultRetention окно хранения истории: 24 часовых отсчета
const DefaultRetention = 24

// Source поставщик телеметрии для движка предупреждений
type Source interface {
	// Current возвращает последний снимок. Он не попадает в историю, пока не зафиксирован.
	Current() models.TelemetrySnapshot
	// History возвращает не более n последних отсчетов, от старых к новым.
	History(n int) []models.TelemetrySnapshot
}

// Recorder источник, принимающий зафиксированные снимки в историю
type Recorder interface {
	Append(snapshot models.TelemetrySnapshot)
}

// History ограниченное скользящее окно снимков
type History struct {
	samples []models.TelemetrySnapshot
	mu      sync.RWMutex
	maxSize int
}

// NewHistory создает окно истории заданного размера
func NewHistory(maxSize int) *History {
	if maxSize <= 0 {
		maxSize = DefaultRetention
	}
	return &History{
		samples: make([]models.TelemetrySnapshot, 0, maxSize),
		maxSize: maxSize,
	}
}

// Append добавляет снимок, вытесняя самый старый при переполнении окна
func (h *History) Append(snapshot models.TelemetrySnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.samples = append(h.samples, snapshot)
	if len(h.samples) > h.maxSize {
		h.samples = append(h.samples[:0:0], h.samples[len(h.samples)-h.maxSize:]...)
	}
}

// Last возвращает копию не более n последних отсчетов
func (h *History) Last(n int) []models.TelemetrySnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 {
		return []models.TelemetrySnapshot{}
	}
	if n > len(h.samples) {
		n = len(h.samples)
	}
	out := make([]models.TelemetrySnapshot, n)
	copy(out, h.samples[len(h.samples)-n:])
	return out
}

// Latest возвращает последний отсчет, если он есть
func (h *History) Latest() (models.TelemetrySnapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.samples) == 0 {
		return models.TelemetrySnapshot{}, false
	}
	return h.samples[len(h.samples)-1], true
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.samples)
}

func (h *History) Cap() int { return h.maxSize }
