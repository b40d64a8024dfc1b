// Package realtime implements the trip chat and typing-presence relay.
// A single hub goroutine owns the room registry: a map from trip id to
// the set of connected clients. Join, leave, disconnect and broadcast
// all funnel through the hub's channels, so room state is never touched
// concurrently.
package realtime

import (
	"context"
	"log/slog"

	"github.com/krishmajumdar12/Leaps-sub000/internal/models"
)

// ChatStore is the slice of the service layer the relay needs:
// persisting messages and answering join-time membership checks.
type ChatStore interface {
	SaveChatMessage(ctx context.Context, senderID, tripID, content string, attachmentURL *string) (*models.ChatMessage, error)
	IsTripMember(ctx context.Context, tripID, userID string) (bool, error)
}

type subscription struct {
	client *Client
	tripID string
}

type broadcast struct {
	tripID string
	event  Event
	// exclude is skipped during fan-out (typing is never echoed back
	// to the sender). nil means deliver to the whole room.
	exclude *Client
}

// Hub relays events between all clients joined to the same trip room.
type Hub struct {
	store ChatStore

	rooms map[string]map[*Client]struct{}

	join       chan subscription
	leave      chan subscription
	unregister chan *Client
	broadcasts chan broadcast
}

// NewHub creates a hub; call Run on its own goroutine before serving.
func NewHub(store ChatStore) *Hub {
	return &Hub{
		store:      store,
		rooms:      make(map[string]map[*Client]struct{}),
		join:       make(chan subscription),
		leave:      make(chan subscription),
		unregister: make(chan *Client),
		broadcasts: make(chan broadcast),
	}
}

// Run is the hub's event loop. It exits when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case sub := <-h.join:
			room := h.rooms[sub.tripID]
			if room == nil {
				room = make(map[*Client]struct{})
				h.rooms[sub.tripID] = room
			}
			room[sub.client] = struct{}{}

		case sub := <-h.leave:
			h.removeFromRoom(sub.tripID, sub.client)

		case client := <-h.unregister:
			// Disconnect: drop the client from every room, no other
			// side effects.
			for tripID := range h.rooms {
				h.removeFromRoom(tripID, client)
			}
			close(client.send)

		case b := <-h.broadcasts:
			for client := range h.rooms[b.tripID] {
				if client == b.exclude {
					continue
				}
				select {
				case client.send <- b.event:
				default:
					// Client can't keep up; drop the event rather
					// than stall the whole room.
					slog.Warn("dropping relay event for slow client",
						"trip", b.tripID, "user", client.userID, "event", b.event.Event)
				}
			}
		}
	}
}

func (h *Hub) removeFromRoom(tripID string, client *Client) {
	room := h.rooms[tripID]
	if room == nil {
		return
	}
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, tripID)
	}
}

// Join subscribes a client to a trip room. Membership must already have
// been verified by the caller.
func (h *Hub) Join(client *Client, tripID string) {
	h.join <- subscription{client: client, tripID: tripID}
}

// Leave unsubscribes a client from one room; the connection stays up.
func (h *Hub) Leave(client *Client, tripID string) {
	h.leave <- subscription{client: client, tripID: tripID}
}

// Unregister removes a disconnected client from all rooms.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast relays an event to every client in a room except exclude.
func (h *Hub) Broadcast(tripID string, event Event, exclude *Client) {
	h.broadcasts <- broadcast{tripID: tripID, event: event, exclude: exclude}
}
