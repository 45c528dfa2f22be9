package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dom/ridecore/internal/api/responses"
	"github.com/dom/ridecore/internal/api/validators"
	"github.com/dom/ridecore/internal/domain"
	"github.com/dom/ridecore/internal/logger"
	"github.com/dom/ridecore/internal/service"
)

type UserAddressHandler struct {
	addresses *service.UserAddressService
	logg      *logger.Logger
}

func NewUserAddressHandler(addresses *service.UserAddressService, logg *logger.Logger) *UserAddressHandler {
	return &UserAddressHandler{addresses: addresses, logg: logg}
}

type UserAddressRequest struct {
	AddressType  string          `json:"addressType" validate:"omitempty,max=10"`
	Street       string          `json:"street" validate:"max=255"`
	City         string          `json:"city" validate:"max=100"`
	State        string          `json:"state" validate:"max=100"`
	Zip          string          `json:"zip" validate:"max=20"`
	Country      string          `json:"country" validate:"max=100"`
	Status       *bool           `json:"status"`
	AdditionInfo json.RawMessage `json:"additionInfo"`
}

func (req UserAddressRequest) input() service.UserAddressInput {
	return service.UserAddressInput{
		AddressType:  req.AddressType,
		Street:       req.Street,
		City:         req.City,
		State:        req.State,
		Zip:          req.Zip,
		Country:      req.Country,
		Status:       req.Status,
		AdditionInfo: req.AdditionInfo,
	}
}

type UserAddressResponse struct {
	Message     string              `json:"message"`
	UserAddress *domain.UserAddress `json:"userAddress"`
}

type UserAddressListResponse struct {
	UserAddresses []*domain.UserAddress `json:"userAddresses"`
}

func (h *UserAddressHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logg)
	if !ok {
		return
	}
	addresses, err := h.addresses.ListForUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, UserAddressListResponse{UserAddresses: addresses})
}

func (h *UserAddressHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logg)
	if !ok {
		return
	}
	var req UserAddressRequest
	if err := validators.DecodeJSONBody(w, r, &req); err != nil {
		writeError(w, r, h.logg, err)
		return
	}

	address, created, err := h.addresses.Upsert(r.Context(), user.ID, req.input())
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	message := "User address updated successfully"
	if created {
		message = "User address created successfully"
	}
	responses.WriteJSON(w, upsertStatus(created), UserAddressResponse{Message: message, UserAddress: address})
}

// UpdateMine replaces the caller's existing address of addressType.
func (h *UserAddressHandler) UpdateMine(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logg)
	if !ok {
		return
	}
	var req UserAddressRequest
	if err := validators.DecodeJSONBody(w, r, &req); err != nil {
		writeError(w, r, h.logg, err)
		return
	}

	address, err := h.addresses.Update(r.Context(), user.ID, req.input())
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, UserAddressResponse{Message: "User address updated successfully", UserAddress: address})
}

// DeleteMine removes one address selected by ?addressType=, HOME when omitted.
func (h *UserAddressHandler) DeleteMine(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logg)
	if !ok {
		return
	}
	if err := h.addresses.Delete(r.Context(), user.ID, r.URL.Query().Get("addressType")); err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, MessageResponse{Message: "User address deleted successfully"})
}

func (h *UserAddressHandler) List(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.addresses.List(r.Context())
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, UserAddressListResponse{UserAddresses: addresses})
}
