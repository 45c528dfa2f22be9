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

type UserInfoHandler struct {
	infos *service.UserInfoService
	logg  *logger.Logger
}

func NewUserInfoHandler(infos *service.UserInfoService, logg *logger.Logger) *UserInfoHandler {
	return &UserInfoHandler{infos: infos, logg: logg}
}

// UserInfoRequest uses pointers so omitted fields keep their stored value.
type UserInfoRequest struct {
	Gender           *string         `json:"gender" validate:"omitempty,max=20"`
	BirthDate        *string         `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
	Picture          *string         `json:"picture" validate:"omitempty,max=500"`
	ResidenceAddress *string         `json:"residenceAddress" validate:"omitempty,max=500"`
	Occupation       *string         `json:"occupation" validate:"omitempty,max=100"`
	Designation      *string         `json:"designation" validate:"omitempty,max=100"`
	NID              *string         `json:"nid" validate:"omitempty,max=50"`
	ReferralID       *string         `json:"referralId" validate:"omitempty,max=50"`
	TIN              *string         `json:"tin" validate:"omitempty,max=50"`
	ApproveTerms     *bool           `json:"approveTerms"`
	ApprovePrivacy   *bool           `json:"approvePrivacy"`
	Status           *bool           `json:"status"`
	AdditionInfo     json.RawMessage `json:"additionInfo"`
}

func (req UserInfoRequest) input() service.UserInfoInput {
	return service.UserInfoInput{
		Gender:           req.Gender,
		BirthDate:        req.BirthDate,
		Picture:          req.Picture,
		ResidenceAddress: req.ResidenceAddress,
		Occupation:       req.Occupation,
		Designation:      req.Designation,
		NID:              req.NID,
		ReferralID:       req.ReferralID,
		TIN:              req.TIN,
		ApproveTerms:     req.ApproveTerms,
		ApprovePrivacy:   req.ApprovePrivacy,
		Status:           req.Status,
		AdditionInfo:     req.AdditionInfo,
	}
}

type UserInfoResponse struct {
	Message  string           `json:"message,omitempty"`
	UserInfo *domain.UserInfo `json:"userInfo"`
}

type UserInfoListResponse struct {
	UserInfos []*domain.UserInfo `json:"userInfos"`
}

func (h *UserInfoHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logg)
	if !ok {
		return
	}
	info, err := h.infos.Get(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, UserInfoResponse{UserInfo: info})
}

// Upsert creates the caller's info or revives a deleted one.
func (h *UserInfoHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logg)
	if !ok {
		return
	}
	var req UserInfoRequest
	if err := validators.DecodeJSONBody(w, r, &req); err != nil {
		writeError(w, r, h.logg, err)
		return
	}

	info, created, err := h.infos.Upsert(r.Context(), user.ID, req.input())
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	message := "User info updated successfully"
	if created {
		message = "User info created successfully"
	}
	responses.WriteJSON(w, upsertStatus(created), UserInfoResponse{Message: message, UserInfo: info})
}

// UpdateMine changes only the fields present in the body.
func (h *UserInfoHandler) UpdateMine(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logg)
	if !ok {
		return
	}
	var req UserInfoRequest
	if err := validators.DecodeJSONBody(w, r, &req); err != nil {
		writeError(w, r, h.logg, err)
		return
	}

	info, err := h.infos.Update(r.Context(), user.ID, req.input())
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, UserInfoResponse{Message: "User info updated successfully", UserInfo: info})
}

func (h *UserInfoHandler) DeleteMine(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logg)
	if !ok {
		return
	}
	if err := h.infos.Delete(r.Context(), user.ID); err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, MessageResponse{Message: "User info deleted successfully"})
}

func (h *UserInfoHandler) List(w http.ResponseWriter, r *http.Request) {
	infos, err := h.infos.List(r.Context())
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, UserInfoListResponse{UserInfos: infos})
}
