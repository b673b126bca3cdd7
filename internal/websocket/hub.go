package websocket

import (
	"encoding/json"
	"log"

	"github.com/dom/task-tracker/internal/domain"
	"github.com/google/uuid"
)

// TaskEvent is the wire format of the event feed. Deleted tasks carry only
// the id.
type TaskEvent struct {
	Type string       `json:"type"`
	Task *domain.Task `json:"task"`
}

type broadcastRequest struct {
	ownerID uuid.UUID
	payload []byte
}

// Hub fans task change events out to the owning user's connections. Clients
// are keyed by user ID so an event never reaches a connection authenticated
// as someone else.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastRequest
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastRequest),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			for _, conns := range h.clients {
				for client := range conns {
					client.Close()
				}
			}
			h.clients = make(map[uuid.UUID]map[*Client]bool)
			return

		case client := <-h.register:
			conns := h.clients[client.userID]
			if conns == nil {
				conns = make(map[*Client]bool)
				h.clients[client.userID] = conns
			}
			conns[client] = true

		case client := <-h.unregister:
			if conns, ok := h.clients[client.userID]; ok && conns[client] {
				delete(conns, client)
				if len(conns) == 0 {
					delete(h.clients, client.userID)
				}
				client.Close()
			}

		case req := <-h.broadcast:
			for client := range h.clients[req.ownerID] {
				select {
				case client.send <- req.payload:
				default:
					// Slow consumer; drop the connection rather than block
					// the hub loop.
					delete(h.clients[req.ownerID], client)
					client.Close()
				}
			}
		}
	}
}

// Stop shuts the hub down and blocks until Run has exited.
func (h *Hub) Stop() {
	close(h.stop)
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// PublishTaskEvent implements service.TaskEventPublisher.
func (h *Hub) PublishTaskEvent(ownerID uuid.UUID, event string, task *domain.Task) {
	payload, err := json.Marshal(TaskEvent{Type: event, Task: task})
	if err != nil {
		log.Printf("ERROR [websocket.Hub] failed to marshal task event: %v", err)
		return
	}

	select {
	case h.broadcast <- &broadcastRequest{ownerID: ownerID, payload: payload}:
	case <-h.done:
	}
}
