package websocket

import (
	"context"
	"sync"

	"github.com/dom/ridecore/internal/domain"
	"github.com/dom/ridecore/internal/logger"
	"github.com/dom/ridecore/internal/metrics"
)

const broadcastBuffer = 256

type HubOptions struct {
	// BroadcastRadius in meters. Zero disables the distance filter.
	BroadcastRadius float64
	Metrics         *metrics.Metrics
	Logger          *logger.Logger
}

// Hub fans location events out to connected clients. All client state is
// owned by the Run goroutine.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan domain.LocationEvent
	stop       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	opts       HubOptions
}

func NewHub(opts HubOptions) *Hub {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan domain.LocationEvent, broadcastBuffer),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		opts:       opts,
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			for client := range h.clients {
				client.Close()
				h.opts.Metrics.ClientDisconnected()
			}
			h.clients = make(map[*Client]bool)
			return

		case client := <-h.register:
			h.clients[client] = true
			h.opts.Metrics.ClientConnected()

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
				h.opts.Metrics.ClientDisconnected()
			}

		case ev := <-h.broadcast:
			h.fanOut(ev)
		}
	}
}

// Stop closes every client and blocks until Run has returned.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// PublishLocation queues an event without blocking. Events are dropped
// when the queue is full or the hub has stopped.
func (h *Hub) PublishLocation(ev domain.LocationEvent) {
	if h == nil {
		return
	}
	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.broadcast <- ev:
	default:
		h.opts.Metrics.MessageDropped()
		h.opts.Logger.Warn(context.Background(), "websocket.broadcast_queue_full")
	}
}

func (h *Hub) fanOut(ev domain.LocationEvent) {
	data, err := newBroadcast(ev)
	if err != nil {
		h.opts.Logger.Error(context.Background(), "websocket.encode_broadcast", err)
		return
	}

	for client := range h.clients {
		if client.user.ID == ev.UserID {
			pos := ev.Location
			client.position = &pos
			continue
		}
		if !Receives(client.user.UserType, ev.UserType) {
			continue
		}
		if h.opts.BroadcastRadius > 0 && client.position != nil &&
			client.position.DistanceTo(ev.Location) > h.opts.BroadcastRadius {
			continue
		}
		if !client.trySend(data) {
			h.opts.Metrics.MessageDropped()
		}
	}
}

// Receives reports whether a recipient role sees updates from a sender
// role. Drivers and passengers see each other. Admins see everyone.
func Receives(recipient, sender domain.UserType) bool {
	switch {
	case recipient == domain.UserTypeAdmin:
		return true
	case sender == domain.UserTypeDriver:
		return recipient == domain.UserTypePassenger
	case sender == domain.UserTypePassenger:
		return recipient == domain.UserTypeDriver
	}
	return false
}
