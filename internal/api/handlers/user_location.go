package handlers

import (
	"net/http"

	"github.com/dom/ridecore/internal/api/responses"
	"github.com/dom/ridecore/internal/api/validators"
	"github.com/dom/ridecore/internal/domain"
	"github.com/dom/ridecore/internal/logger"
	"github.com/dom/ridecore/internal/service"
)

type UserLocationHandler struct {
	locations *service.LocationService
	logg      *logger.Logger
}

func NewUserLocationHandler(locations *service.LocationService, logg *logger.Logger) *UserLocationHandler {
	return &UserLocationHandler{locations: locations, logg: logg}
}

// Coordinates are pointers so a missing field is not read as zero.
type LocationRequest struct {
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
}

func (req LocationRequest) point() domain.GeoPoint {
	return domain.GeoPoint{Longitude: *req.Longitude, Latitude: *req.Latitude}
}

type RadiusRequest struct {
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Radius    *float64 `json:"radius" validate:"required,gt=0"`
}

type UserLocationResponse struct {
	Message      string               `json:"message,omitempty"`
	UserLocation *domain.UserLocation `json:"userLocation"`
}

type UserLocationListResponse struct {
	UserLocations []*domain.UserLocation `json:"userLocations"`
}

type WithinRadiusResponse struct {
	Result            string               `json:"result"`
	UsersWithinRadius []*domain.NearbyUser `json:"usersWithinRadius"`
}

// Upsert stores the caller's position; a user has exactly one row.
func (h *UserLocationHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logg)
	if !ok {
		return
	}
	var req LocationRequest
	if err := validators.DecodeJSONBody(w, r, &req); err != nil {
		writeError(w, r, h.logg, err)
		return
	}

	location, err := h.locations.UpdateLocation(r.Context(), user, req.point())
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, UserLocationResponse{Message: "User location saved successfully", UserLocation: location})
}

func (h *UserLocationHandler) UpdateMine(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logg)
	if !ok {
		return
	}
	var req LocationRequest
	if err := validators.DecodeJSONBody(w, r, &req); err != nil {
		writeError(w, r, h.logg, err)
		return
	}

	location, err := h.locations.MoveLocation(r.Context(), user, req.point())
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, UserLocationResponse{Message: "User location updated successfully", UserLocation: location})
}

func (h *UserLocationHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logg)
	if !ok {
		return
	}
	location, err := h.locations.Get(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, UserLocationResponse{UserLocation: location})
}

func (h *UserLocationHandler) DeleteMine(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logg)
	if !ok {
		return
	}
	if err := h.locations.Delete(r.Context(), user.ID); err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, MessageResponse{Message: "User location deleted successfully"})
}

func (h *UserLocationHandler) List(w http.ResponseWriter, r *http.Request) {
	locations, err := h.locations.List(r.Context())
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, UserLocationListResponse{UserLocations: locations})
}

// FindWithinRadius only returns dispatchable drivers.
func (h *UserLocationHandler) FindWithinRadius(w http.ResponseWriter, r *http.Request) {
	var req RadiusRequest
	if err := validators.DecodeJSONBody(w, r, &req); err != nil {
		writeError(w, r, h.logg, err)
		return
	}

	center := domain.GeoPoint{Longitude: *req.Longitude, Latitude: *req.Latitude}
	nearby, err := h.locations.FindNearby(r.Context(), center, *req.Radius, true)
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, WithinRadiusResponse{Result: "success", UsersWithinRadius: nearby})
}
