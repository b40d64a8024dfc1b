package realtime

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/krishmajumdar12/Leaps-sub000/internal/models"
)

// Wire event names.
const (
	EventJoinTripChat   = "join_trip_chat"
	EventLeaveTripChat  = "leave_trip_chat"
	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"
	EventTyping         = "typing"
	EventUserTyping     = "user_typing"
	EventError          = "error"
)

// Event is the JSON envelope for both directions of the socket.
type Event struct {
	Event         string                      `json:"event"`
	TripID        string                      `json:"tripId,omitempty"`
	Content       string                      `json:"content,omitempty"`
	AttachmentURL *string                     `json:"attachmentUrl,omitempty"`
	UserID        string                      `json:"userId,omitempty"`
	Username      string                      `json:"username,omitempty"`
	IsTyping      bool                        `json:"isTyping,omitempty"`
	Message       *models.ChatMessageResponse `json:"message,omitempty"`
	Error         string                      `json:"error,omitempty"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect cross-origin from the SPA host; origin
	// policy is enforced by the JWT check instead.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one connected socket. send is written by the hub and the
// client's own read loop, and drained only by writePump. joined is
// touched only by the read loop.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan Event
	userID string
	joined map[string]bool
}

// NewClient wires a client for hub delivery. Tests construct clients
// without a socket and read from Send directly.
func NewClient(hub *Hub, userID string) *Client {
	return &Client{
		hub:    hub,
		send:   make(chan Event, sendBuffer),
		userID: userID,
		joined: make(map[string]bool),
	}
}

// Send exposes the delivery channel for consumers draining it manually.
func (c *Client) Send() <-chan Event {
	return c.send
}

// handleEvent processes one inbound event. It runs on the read loop, so
// events from the same sender are handled, persisted and relayed in the
// order they arrived.
func (c *Client) handleEvent(ctx context.Context, ev Event) {
	switch ev.Event {
	case EventJoinTripChat:
		if ev.TripID == "" {
			c.sendError("tripId is required")
			return
		}
		// The room is a broadcast set; only verified members get in.
		ok, err := c.hub.store.IsTripMember(ctx, ev.TripID, c.userID)
		if err != nil {
			slog.Error("membership check failed", "trip", ev.TripID, "user", c.userID, "error", err)
			c.sendError("could not verify trip membership")
			return
		}
		if !ok {
			c.sendError("not a member of this trip")
			return
		}
		c.joined[ev.TripID] = true
		c.hub.Join(c, ev.TripID)

	case EventLeaveTripChat:
		if !c.joined[ev.TripID] {
			return
		}
		delete(c.joined, ev.TripID)
		c.hub.Leave(c, ev.TripID)

	case EventSendMessage:
		if !c.joined[ev.TripID] {
			c.sendError("join the trip chat before sending messages")
			return
		}
		// Persist first. On failure nothing reaches the room; only the
		// sender hears about it.
		msg, err := c.hub.store.SaveChatMessage(ctx, c.userID, ev.TripID, ev.Content, ev.AttachmentURL)
		if err != nil {
			slog.Error("chat message persist failed", "trip", ev.TripID, "user", c.userID, "error", err)
			c.sendError("message could not be saved")
			return
		}
		resp := models.NewChatMessageResponse(*msg)
		c.hub.Broadcast(ev.TripID, Event{
			Event:   EventReceiveMessage,
			TripID:  ev.TripID,
			Message: &resp,
		}, nil)

	case EventTyping:
		if !c.joined[ev.TripID] {
			return
		}
		// Pure relay, never persisted, never echoed to the sender.
		c.hub.Broadcast(ev.TripID, Event{
			Event:    EventUserTyping,
			TripID:   ev.TripID,
			UserID:   c.userID,
			Username: ev.Username,
			IsTyping: ev.IsTyping,
		}, c)

	default:
		c.sendError("unknown event")
	}
}

// sendError queues an error event for this client only.
func (c *Client) sendError(msg string) {
	select {
	case c.send <- Event{Event: EventError, Error: msg}:
	default:
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var ev Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket closed unexpectedly", "user", c.userID, "error", err)
			}
			return
		}
		c.handleEvent(ctx, ev)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel on unregister.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS returns the Gin handler for the websocket endpoint. Browsers
// cannot set an Authorization header on the upgrade request, so the JWT
// travels in the token query parameter.
func ServeWS(hub *Hub, jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := userIDFromToken(c.Query("token"), jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Status:  "error",
				Code:    "UNAUTHORIZED",
				Message: "Invalid token",
			})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", "error", err)
			return
		}

		client := NewClient(hub, userID)
		client.conn = conn

		go client.writePump()
		client.readPump(c.Request.Context())
	}
}

func userIDFromToken(tokenString string, jwtSecret []byte) (string, error) {
	if tokenString == "" {
		return "", errors.New("missing token")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}

	userID, ok := claims["sub"].(string)
	if !ok {
		return "", errors.New("invalid user ID in token")
	}

	return userID, nil
}
