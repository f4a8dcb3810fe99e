package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ecoport/internal/logger"
	"ecoport/internal/metrics"
	"ecoport/internal/models"
)

const broadcastBuffer = 16

// Message конверт сообщения для клиентов панели
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub хранит подключенных клиентов и рассылает им результаты циклов
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
	}
}

// Run обслуживает регистрацию и рассылку до отмены контекста
func (h *Hub) Run(ctx context.Context) {
	log := logger.WithComponent("websocket_hub")

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.Send)
			}
			metrics.WebsocketClients.Set(0)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			metrics.WebsocketClients.Set(float64(len(h.clients)))
			h.mu.Unlock()
			log.Debug().Str("client_id", client.ID).Msg("websocket client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				log.Debug().Str("client_id", client.ID).Msg("websocket client unregistered")
			}
			metrics.WebsocketClients.Set(float64(len(h.clients)))
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// клиент не успевает читать
					log.Warn().Str("client_id", client.ID).Msg("websocket send buffer full, removing client")
					close(client.Send)
					delete(h.clients, client)
				}
			}
			metrics.WebsocketClients.Set(float64(len(h.clients)))
			h.mu.Unlock()
		}
	}
}

// RegisterClient регистрирует клиента в хабе. Возвращает false, если хаб остановлен.
func (h *Hub) RegisterClient(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastCycle рассылает результат цикла обновления.
// Если очередь рассылки заполнена, сообщение отбрасывается.
func (h *Hub) BroadcastCycle(cycle models.CycleResult) {
	h.send(Message{Type: "cycle", Payload: cycle})
}

// BroadcastThresholds рассылает изменившиеся пороги
func (h *Hub) BroadcastThresholds(thresholds interface{}) {
	h.send(Message{Type: "thresholds", Payload: thresholds})
}

func (h *Hub) send(msg Message) {
	log := logger.WithComponent("websocket_hub")

	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", msg.Type).Msg("failed to marshal broadcast")
		return
	}

	select {
	case h.broadcast <- data:
	default:
		log.Warn().Str("type", msg.Type).Msg("broadcast queue full, message dropped")
	}
}
