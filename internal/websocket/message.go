package websocket

import (
	"encoding/json"
	"time"

	"github.com/dom/ridecore/internal/domain"
)

type MessageType string

const (
	// Client to Server
	MessageTypeLocationUpdate MessageType = "LOCATION_UPDATE"

	// Server to Client
	MessageTypeConnected         MessageType = "CONNECTED"
	MessageTypeLocationSaved     MessageType = "LOCATION_SAVED"
	MessageTypeLocationBroadcast MessageType = "LOCATION_BROADCAST"
	MessageTypeError             MessageType = "ERROR"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload any) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

type LocationUpdatePayload struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type ConnectedPayload struct {
	UserID   string          `json:"userId"`
	UserType domain.UserType `json:"userType"`
}

type LocationBroadcastPayload struct {
	UserID    string          `json:"userId"`
	UserType  domain.UserType `json:"userType"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	At        int64           `json:"at"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newBroadcast(ev domain.LocationEvent) ([]byte, error) {
	msg, err := NewMessage(MessageTypeLocationBroadcast, LocationBroadcastPayload{
		UserID:    ev.UserID.String(),
		UserType:  ev.UserType,
		Latitude:  ev.Location.Latitude,
		Longitude: ev.Location.Longitude,
		At:        ev.At.UnixMilli(),
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}
