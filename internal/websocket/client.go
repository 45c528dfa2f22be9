package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dom/ridecore/internal/domain"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 64
	recordTimeout  = 5 * time.Second
)

// LocationRecorder stores a location reported over the socket.
type LocationRecorder interface {
	UpdateLocation(ctx context.Context, user *domain.User, point domain.GeoPoint) (*domain.UserLocation, error)
}

type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	user      *domain.User
	recorder  LocationRecorder
	closeOnce sync.Once

	// last known position, owned by the hub goroutine
	position *domain.GeoPoint
}

func NewClient(hub *Hub, conn *websocket.Conn, user *domain.User, recorder LocationRecorder) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		user:     user,
		recorder: recorder,
	}
}

func (c *Client) ReadPump() {
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
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logg := c.hub.opts.Logger
				logg.Warn(logg.WithField(context.Background(), "error", err.Error()), "websocket.read_error")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("INVALID_MESSAGE", "Message must be a JSON envelope")
			continue
		}
		c.handleMessage(&msg)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

func (c *Client) handleMessage(msg *Message) {
	switch msg.Type {
	case MessageTypeLocationUpdate:
		var payload LocationUpdatePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Latitude == nil || payload.Longitude == nil {
			c.sendError(string(domain.CodeValidation), domain.ErrInvalidCoordinates.Message)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		point := domain.GeoPoint{Longitude: *payload.Longitude, Latitude: *payload.Latitude}
		location, err := c.recorder.UpdateLocation(ctx, c.user, point)
		if err != nil {
			if typed := domain.AsError(err); typed != nil && typed.Code != domain.CodeInternal {
				c.sendError(string(typed.Code), typed.Message)
				return
			}
			c.hub.opts.Logger.Error(ctx, "websocket.location_update", err)
			c.sendError(string(domain.CodeInternal), "Could not store location")
			return
		}
		c.Send(MessageTypeLocationSaved, location)

	default:
		c.sendError("UNKNOWN_MESSAGE", "Unsupported message type")
	}
}

func (c *Client) sendError(code, message string) {
	c.Send(MessageTypeError, ErrorPayload{Code: code, Message: message})
}

// Send queues a message for this client only, dropping it when the buffer
// is full.
func (c *Client) Send(msgType MessageType, payload any) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.trySend(data)
}

func (c *Client) trySend(data []byte) (sent bool) {
	defer func() {
		// send may be closed by the hub during shutdown
		if recover() != nil {
			sent = false
		}
	}()
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.send) })
}
