package middleware

import (
	"net/http"

	"github.com/dom/ridecore/internal/api/responses"
	"github.com/dom/ridecore/internal/domain"
	"github.com/dom/ridecore/internal/logger"
)

// RequireAdmin must run after Auth.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, domain.ErrUnauthenticated)
				return
			}
			if !user.IsAdmin() {
				responses.WriteError(r.Context(), logg, w, domain.ErrAdminRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
