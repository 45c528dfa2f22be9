package testutil

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dom/ridecore/internal/websocket"
	gorillaWS "github.com/gorilla/websocket"
)

// WSClient is a test WebSocket client
type WSClient struct {
	t        *testing.T
	conn     *gorillaWS.Conn
	messages chan *websocket.Message
	errors   chan error
	done     chan struct{}
	mu       sync.Mutex
}

func NewWSClient(t *testing.T, url string) *WSClient {
	t.Helper()

	dialer := *gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect to websocket: %v", err)
	}

	client := &WSClient{
		t:        t,
		conn:     conn,
		messages: make(chan *websocket.Message, 100),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
	}
	go client.readPump()

	t.Cleanup(client.Close)
	return client
}

func (c *WSClient) readPump() {
	defer close(c.messages)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			case c.errors <- err:
			default:
			}
			return
		}

		var msg websocket.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			select {
			case c.errors <- err:
			default:
			}
			continue
		}

		select {
		case c.messages <- &msg:
		case <-c.done:
			return
		}
	}
}

// Close sends a close frame and closes the connection.
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
		_ = c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
		_ = c.conn.Close()
	}
}

func (c *WSClient) send(msgType websocket.MessageType, payload any) {
	c.t.Helper()

	msg, err := websocket.NewMessage(msgType, payload)
	if err != nil {
		c.t.Fatalf("failed to build message: %v", err)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		c.t.Fatalf("failed to marshal message: %v", err)
	}

	c.mu.Lock()
	err = c.conn.WriteMessage(gorillaWS.TextMessage, data)
	c.mu.Unlock()
	if err != nil {
		c.t.Fatalf("failed to send %s: %v", msgType, err)
	}
}

// SendLocation reports a position as LOCATION_UPDATE.
func (c *WSClient) SendLocation(lng, lat float64) {
	c.send(websocket.MessageTypeLocationUpdate, websocket.LocationUpdatePayload{
		Latitude:  &lat,
		Longitude: &lng,
	})
}

// SendRaw writes an arbitrary text frame.
func (c *WSClient) SendRaw(data string) {
	c.t.Helper()
	c.mu.Lock()
	err := c.conn.WriteMessage(gorillaWS.TextMessage, []byte(data))
	c.mu.Unlock()
	if err != nil {
		c.t.Fatalf("failed to send raw frame: %v", err)
	}
}

// ExpectMessage waits for a message of the specified type, skipping others.
func (c *WSClient) ExpectMessage(msgType websocket.MessageType, timeout time.Duration) *websocket.Message {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg, ok := <-c.messages:
			if !ok {
				c.t.Fatalf("connection closed while waiting for %s", msgType)
			}
			if msg.Type == msgType {
				return msg
			}
		case err := <-c.errors:
			c.t.Fatalf("error while waiting for %s: %v", msgType, err)
		case <-deadline:
			c.t.Fatalf("timeout waiting for message type %s", msgType)
		}
	}
}

// ExpectNoMessage fails if a message of msgType arrives within wait.
func (c *WSClient) ExpectNoMessage(msgType websocket.MessageType, wait time.Duration) {
	c.t.Helper()

	deadline := time.After(wait)
	for {
		select {
		case msg, ok := <-c.messages:
			if !ok {
				return
			}
			if msg.Type == msgType {
				c.t.Fatalf("unexpected %s message: %s", msgType, string(msg.Payload))
			}
		case <-deadline:
			return
		}
	}
}

func (c *WSClient) ExpectConnected(timeout time.Duration) *websocket.ConnectedPayload {
	c.t.Helper()
	var payload websocket.ConnectedPayload
	c.decode(c.ExpectMessage(websocket.MessageTypeConnected, timeout), &payload)
	return &payload
}

func (c *WSClient) ExpectBroadcast(timeout time.Duration) *websocket.LocationBroadcastPayload {
	c.t.Helper()
	var payload websocket.LocationBroadcastPayload
	c.decode(c.ExpectMessage(websocket.MessageTypeLocationBroadcast, timeout), &payload)
	return &payload
}

func (c *WSClient) ExpectError(timeout time.Duration) *websocket.ErrorPayload {
	c.t.Helper()
	var payload websocket.ErrorPayload
	c.decode(c.ExpectMessage(websocket.MessageTypeError, timeout), &payload)
	return &payload
}

func (c *WSClient) decode(msg *websocket.Message, v any) {
	c.t.Helper()
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		c.t.Fatalf("failed to decode %s payload: %v", msg.Type, err)
	}
}
