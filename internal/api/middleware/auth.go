package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dom/ridecore/internal/api/responses"
	"github.com/dom/ridecore/internal/domain"
	"github.com/dom/ridecore/internal/logger"
)

type TokenAuthenticator interface {
	AuthenticateToken(ctx context.Context, token string) (*domain.User, error)
}

// Auth resolves the bearer token to a user with a live session.
func Auth(auth TokenAuthenticator, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				responses.WriteError(ctx, logg, w, domain.ErrUnauthenticated)
				return
			}

			user, err := auth.AuthenticateToken(ctx, token)
			if err != nil {
				if logg != nil {
					logg.Debug(logg.WithField(ctx, "reason", err.Error()), "auth.rejected")
				}
				responses.WriteError(ctx, logg, w, err)
				return
			}

			ctx = WithUser(ctx, user)
			if logg != nil {
				ctx = logg.WithUserID(ctx, user.ID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
