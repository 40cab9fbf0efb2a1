package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

type subscription struct {
	client *Client
	key    GroupKey
}

type envelope struct {
	key     GroupKey
	payload []byte
}

// Hub maintains the set of active clients and broadcasts events to them.
// All state is owned by the Run loop; every mutation and fan-out arrives
// through a channel, so no locking is needed.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	join    chan subscription
	leave   chan subscription
	publish chan envelope
	done    chan struct{}

	// Group membership: which clients receive a group's events.
	subscriptions map[GroupKey]map[*Client]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		join:          make(chan subscription),
		leave:         make(chan subscription),
		publish:       make(chan envelope),
		done:          make(chan struct{}),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[GroupKey]map[*Client]bool),
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			log.Info().Str("connection_id", client.ID).Int("total_clients", len(h.clients)).Msg("Client connected")

		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				h.dropClient(client)
				log.Info().Str("connection_id", client.ID).Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}

		case sub := <-h.join:
			if _, ok := h.clients[sub.client]; !ok {
				break
			}
			if h.subscriptions[sub.key] == nil {
				h.subscriptions[sub.key] = make(map[*Client]bool)
			}
			h.subscriptions[sub.key][sub.client] = true

		case sub := <-h.leave:
			if subs, ok := h.subscriptions[sub.key]; ok {
				delete(subs, sub.client)
				if len(subs) == 0 {
					delete(h.subscriptions, sub.key)
				}
			}

		case env := <-h.publish:
			for client := range h.targets(env.key) {
				select {
				case client.Send <- env.payload:
				default:
					// Slow client: drop it rather than block the loop.
					h.dropClient(client)
				}
			}

		case <-h.done:
			for client := range h.clients {
				h.dropClient(client)
			}
			return
		}
	}
}

// targets resolves a group key to its recipient set.
func (h *Hub) targets(key GroupKey) map[*Client]bool {
	if key.kind == groupAll {
		return h.clients
	}
	return h.subscriptions[key]
}

func (h *Hub) dropClient(client *Client) {
	delete(h.clients, client)
	close(client.Send)
	for key, subs := range h.subscriptions {
		if _, ok := subs[client]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.subscriptions, key)
			}
		}
	}
}

// Join subscribes a client to a group.
func (h *Hub) Join(client *Client, key GroupKey) {
	h.join <- subscription{client: client, key: key}
}

// Leave removes a client from a group.
func (h *Hub) Leave(client *Client, key GroupKey) {
	h.leave <- subscription{client: client, key: key}
}

// BroadcastTo sends an event to every member of a group. Delivery is
// best-effort; clients can always reload state over HTTP.
func (h *Hub) BroadcastTo(key GroupKey, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("event", event.Event).Msg("Failed to marshal websocket event")
		return
	}
	h.publish <- envelope{key: key, payload: payload}
}

// Shutdown stops the Run loop and disconnects all clients.
func (h *Hub) Shutdown() {
	close(h.done)
}
