package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/lfroste/livepoll-be/internal/session"
	ws "github.com/lfroste/livepoll-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler upgrades HTTP connections and routes client actions to
// the hub and the session registry.
type WebSocketHandler struct {
	hub      *ws.Hub
	registry *session.Registry
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(hub *ws.Hub, registry *session.Registry) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, registry: registry}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins (consider tightening this in production).
		return true
	},
}

// Serve handles the WebSocket connection request.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register <- client

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		client.WritePump()
	}()
	go func() {
		defer wg.Done()
		client.ReadPump(h.handleIncomingMessage)
	}()

	// Cleanup on disconnect. A dropped connection counts as logout for
	// presence purposes.
	go func() {
		wg.Wait()
		h.registry.DetachConnection(client.ID)
		h.hub.Unregister <- client
	}()
}

// handleIncomingMessage processes messages received from a client.
func (h *WebSocketHandler) handleIncomingMessage(client *ws.Client, message []byte) {
	var msg ws.ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Error().Err(err).Bytes("message", message).Msg("Error decoding websocket message")
		return
	}

	switch msg.Action {
	case "joinPoll":
		if msg.PollID == "" {
			client.Send <- ws.NewErrorMessage("joinPoll requires a pollId")
			return
		}
		h.hub.Join(client, ws.PollGroup(msg.PollID))
		log.Info().Str("connection_id", client.ID).Str("poll_id", msg.PollID).Msg("Client joined poll group")

	case "leavePoll":
		if msg.PollID == "" {
			client.Send <- ws.NewErrorMessage("leavePoll requires a pollId")
			return
		}
		h.hub.Leave(client, ws.PollGroup(msg.PollID))
		log.Info().Str("connection_id", client.ID).Str("poll_id", msg.PollID).Msg("Client left poll group")

	case "identifyUser":
		h.registry.AttachConnection(msg.UserID, client.ID)

	default:
		log.Warn().Str("action", msg.Action).Msg("Unknown websocket action received")
		client.Send <- ws.NewErrorMessage("Unknown action: " + msg.Action)
	}
}
