package handlers

import (
	"net/http"
	"strconv"

	"github.com/dom/ridecore/internal/api/responses"
	"github.com/dom/ridecore/internal/api/validators"
	"github.com/dom/ridecore/internal/domain"
	"github.com/dom/ridecore/internal/logger"
	"github.com/dom/ridecore/internal/service"
	"github.com/go-chi/chi/v5"
)

type CategoryHandler struct {
	categories *service.CategoryService
	logg       *logger.Logger
}

func NewCategoryHandler(categories *service.CategoryService, logg *logger.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, logg: logg}
}

type CategoryRequest struct {
	CategoryName string `json:"categoryName" validate:"required,min=2,max=50"`
	Icon         string `json:"icon" validate:"required,url"`
	Type         string `json:"type" validate:"max=50"`
}

func (req CategoryRequest) input() service.CategoryInput {
	return service.CategoryInput{CategoryName: req.CategoryName, Icon: req.Icon, Type: req.Type}
}

type CategoryResponse struct {
	Message  string           `json:"message,omitempty"`
	Category *domain.Category `json:"category"`
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := validators.DecodeJSONBody(w, r, &req); err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	category, err := h.categories.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteCreated(w, CategoryResponse{Message: "Category created successfully", Category: category})
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := categoryID(r)
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	var req CategoryRequest
	if err := validators.DecodeJSONBody(w, r, &req); err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	category, err := h.categories.Update(r.Context(), id, req.input())
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, CategoryResponse{Message: "Category updated successfully", Category: category})
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := categoryID(r)
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	category, err := h.categories.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, CategoryResponse{Message: "Category deleted successfully", Category: category})
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := categoryID(r)
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	category, err := h.categories.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, CategoryResponse{Category: category})
}

// List serves both the admin and the public listing as a bare array.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.ListActive(r.Context())
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, categories)
}

func categoryID(r *http.Request) (uint, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, domain.NewError(domain.CodeValidation, "invalid category id").
			WithDetails(map[string]string{"id": "must be a positive integer"})
	}
	return uint(id), nil
}
