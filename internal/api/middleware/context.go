package middleware

import (
	"context"

	"github.com/dom/ridecore/internal/domain"
	"github.com/google/uuid"
)

type contextKey string

const (
	ctxUser contextKey = "user"
)

// WithUser stores the authenticated user in the context.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUser, user)
}

func UserFromContext(ctx context.Context) (*domain.User, bool) {
	if ctx == nil {
		return nil, false
	}
	user, ok := ctx.Value(ctxUser).(*domain.User)
	return user, ok && user != nil
}

func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return user.ID, true
}
