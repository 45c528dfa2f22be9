package handlers

import (
	"net/http"

	"github.com/dom/ridecore/internal/api/middleware"
	"github.com/dom/ridecore/internal/api/responses"
	"github.com/dom/ridecore/internal/domain"
	"github.com/dom/ridecore/internal/logger"
)

type MessageResponse struct {
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, r *http.Request, logg *logger.Logger, err error) {
	responses.WriteError(r.Context(), logg, w, err)
}

// currentUser returns the user attached by middleware.Auth.
func currentUser(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*domain.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, logg, domain.ErrUnauthenticated)
		return nil, false
	}
	return user, true
}

// upsertStatus is 201 for a fresh row and 200 for an update.
func upsertStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}
