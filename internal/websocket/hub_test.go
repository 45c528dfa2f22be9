package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dom/ridecore/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceives(t *testing.T) {
	tests := []struct {
		recipient domain.UserType
		sender    domain.UserType
		want      bool
	}{
		{domain.UserTypePassenger, domain.UserTypeDriver, true},
		{domain.UserTypeDriver, domain.UserTypePassenger, true},
		{domain.UserTypeDriver, domain.UserTypeDriver, false},
		{domain.UserTypePassenger, domain.UserTypePassenger, false},
		{domain.UserTypeAdmin, domain.UserTypeDriver, true},
		{domain.UserTypeAdmin, domain.UserTypePassenger, true},
		{domain.UserTypeDriver, domain.UserTypeAdmin, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.recipient)+"<-"+string(tt.sender), func(t *testing.T) {
			assert.Equal(t, tt.want, Receives(tt.recipient, tt.sender))
		})
	}
}

func testClient(userType domain.UserType, position *domain.GeoPoint) *Client {
	return &Client{
		send:     make(chan []byte, 4),
		user:     &domain.User{ID: uuid.New(), UserType: userType},
		position: position,
	}
}

func drain(c *Client) []LocationBroadcastPayload {
	var out []LocationBroadcastPayload
	for {
		select {
		case data := <-c.send:
			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				return out
			}
			var payload LocationBroadcastPayload
			_ = json.Unmarshal(msg.Payload, &payload)
			out = append(out, payload)
		default:
			return out
		}
	}
}

func TestHub_FanOut(t *testing.T) {
	center := domain.GeoPoint{Longitude: 90.4125, Latitude: 23.8103}
	farAway := domain.GeoPoint{Longitude: 91.8687, Latitude: 24.8949}

	hub := NewHub(HubOptions{BroadcastRadius: 5000})
	driver := testClient(domain.UserTypeDriver, nil)
	otherDriver := testClient(domain.UserTypeDriver, nil)
	nearPassenger := testClient(domain.UserTypePassenger, &center)
	farPassenger := testClient(domain.UserTypePassenger, &farAway)
	unplacedPassenger := testClient(domain.UserTypePassenger, nil)
	admin := testClient(domain.UserTypeAdmin, nil)
	for _, c := range []*Client{driver, otherDriver, nearPassenger, farPassenger, unplacedPassenger, admin} {
		hub.clients[c] = true
	}

	hub.fanOut(domain.LocationEvent{
		UserID:   driver.user.ID,
		UserType: domain.UserTypeDriver,
		Location: center,
		At:       time.Now(),
	})

	assert.Empty(t, drain(driver), "sender is not echoed")
	assert.Empty(t, drain(otherDriver))
	assert.Empty(t, drain(farPassenger))

	for _, c := range []*Client{nearPassenger, unplacedPassenger, admin} {
		got := drain(c)
		require.Len(t, got, 1)
		assert.Equal(t, driver.user.ID.String(), got[0].UserID)
		assert.Equal(t, domain.UserTypeDriver, got[0].UserType)
		assert.InDelta(t, center.Latitude, got[0].Latitude, 1e-9)
	}

	require.NotNil(t, driver.position)
	assert.Equal(t, center, *driver.position)
}

func TestHub_PublishLocation(t *testing.T) {
	var nilHub *Hub
	assert.NotPanics(t, func() { nilHub.PublishLocation(domain.LocationEvent{}) })

	hub := NewHub(HubOptions{})
	go hub.Run()

	passenger := testClient(domain.UserTypePassenger, nil)
	hub.Register(passenger)

	hub.PublishLocation(domain.LocationEvent{UserID: uuid.New(), UserType: domain.UserTypeDriver, At: time.Now()})

	select {
	case data := <-passenger.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, MessageTypeLocationBroadcast, msg.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast was not delivered")
	}

	hub.Stop()
	assert.NotPanics(t, func() {
		hub.PublishLocation(domain.LocationEvent{UserID: uuid.New(), UserType: domain.UserTypeDriver})
	})

	_, open := <-passenger.send
	assert.False(t, open, "stop closes client queues")
}

func TestHub_FullClientBufferDropsMessage(t *testing.T) {
	hub := NewHub(HubOptions{})
	passenger := &Client{
		send: make(chan []byte, 1),
		user: &domain.User{ID: uuid.New(), UserType: domain.UserTypePassenger},
	}
	hub.clients[passenger] = true

	ev := domain.LocationEvent{UserID: uuid.New(), UserType: domain.UserTypeDriver, At: time.Now()}
	hub.fanOut(ev)
	hub.fanOut(ev)

	assert.Len(t, passenger.send, 1)
}
