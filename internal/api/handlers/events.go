package handlers

import (
	"log"
	"net/http"

	"github.com/dom/task-tracker/internal/api/middleware"
	"github.com/dom/task-tracker/internal/service"
	"github.com/dom/task-tracker/internal/websocket"
	ws "github.com/gorilla/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

type EventsHandler struct {
	hub         *websocket.Hub
	authService *service.AuthService
}

func NewEventsHandler(hub *websocket.Hub, authService *service.AuthService) *EventsHandler {
	return &EventsHandler{
		hub:         hub,
		authService: authService,
	}
}

// Handle upgrades an authenticated connection onto the task event feed.
// Browsers cannot set headers on a websocket upgrade, so the access token
// arrives as a query parameter instead of the Authorization header.
func (h *EventsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Token required", http.StatusUnauthorized)
		return
	}

	user, err := middleware.Authenticate(r.Context(), h.authService, token)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, user.ID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
