package ws

import (
	"sync"

	"github.com/google/uuid"
)

// orderMessage routes a pre-encoded payload to one order's room.
type orderMessage struct {
	OrderID uuid.UUID
	Payload []byte
}

// Hub fans tracking payloads out to every client watching an order. Rooms are
// keyed by order ID and created on the first subscriber.
type Hub struct {
	rooms map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan orderMessage

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan orderMessage, 256),
	}
}

// Run drives the hub's event loop. Call it once as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.orderID] == nil {
				h.rooms[client.orderID] = make(map[*Client]bool)
			}
			h.rooms[client.orderID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.orderID]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.rooms, client.orderID)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.rooms[msg.OrderID] {
				select {
				case client.send <- msg.Payload:
				default:
					// slow consumer, drop the connection
					close(client.send)
					delete(h.rooms[msg.OrderID], client)
					if len(h.rooms[msg.OrderID]) == 0 {
						delete(h.rooms, msg.OrderID)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues payload for everyone watching orderID. It satisfies the
// tracking manager's publisher interface, so live states flow straight to
// subscribers.
func (h *Hub) Broadcast(orderID uuid.UUID, payload []byte) {
	h.broadcast <- orderMessage{OrderID: orderID, Payload: payload}
}

// Watchers reports how many clients are subscribed to an order.
func (h *Hub) Watchers(orderID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[orderID])
}
