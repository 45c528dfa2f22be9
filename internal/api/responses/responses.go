package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dom/ridecore/internal/domain"
	"github.com/dom/ridecore/internal/logger"
)

type ErrorBody struct {
	Error   string           `json:"error"`
	Code    domain.ErrorCode `json:"code"`
	Details any              `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteOK(w http.ResponseWriter, payload any) {
	WriteJSON(w, http.StatusOK, payload)
}

func WriteCreated(w http.ResponseWriter, payload any) {
	WriteJSON(w, http.StatusCreated, payload)
}

// WriteError renders typed errors with their own status and message.
// Anything else is logged and rendered as an opaque 500.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := domain.AsError(err)
	if typed == nil {
		typed = domain.WrapError(domain.CodeInternal, err, "internal server error")
	}

	status := typed.Code.HTTPStatus()
	body := ErrorBody{Error: typed.Message, Code: typed.Code, Details: typed.Details}
	if status >= http.StatusInternalServerError {
		body = ErrorBody{Error: "internal server error", Code: domain.CodeInternal}
		if logg != nil {
			logg.Error(ctx, "request.error", err)
		}
	}
	WriteJSON(w, status, body)
}
