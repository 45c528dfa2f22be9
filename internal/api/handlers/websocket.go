package handlers

import (
	"net/http"
	"strings"

	"github.com/dom/ridecore/internal/domain"
	"github.com/dom/ridecore/internal/logger"
	"github.com/dom/ridecore/internal/service"
	"github.com/dom/ridecore/internal/websocket"
	ws "github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub       *websocket.Hub
	auth      *service.AuthService
	locations *service.LocationService
	upgrader  ws.Upgrader
	logg      *logger.Logger
}

// NewWebSocketHandler accepts any origin when allowedOrigins contains "*".
func NewWebSocketHandler(hub *websocket.Hub, services *service.Services, allowedOrigins []string, logg *logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:       hub,
		auth:      services.Auth,
		locations: services.Location,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logg: logg,
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// Handle authenticates ?token= the same way middleware.Auth does, then
// upgrades.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, r, h.logg, domain.ErrUnauthenticated)
		return
	}
	user, err := h.auth.AuthenticateToken(r.Context(), token)
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logg.Warn(h.logg.WithField(r.Context(), "error", err.Error()), "websocket.upgrade_failed")
		return
	}

	client := websocket.NewClient(h.hub, conn, user, h.locations)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	client.Send(websocket.MessageTypeConnected, websocket.ConnectedPayload{
		UserID:   user.ID.String(),
		UserType: user.UserType,
	})
}
