package service

import (
	"context"
	"errors"
	"time"

	"github.com/dom/ridecore/internal/config"
	"github.com/dom/ridecore/internal/domain"
	"github.com/dom/ridecore/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	repos *repository.Repositories
	cfg   *config.Config
	now   func() time.Time
}

func NewAuthService(repos *repository.Repositories, cfg *config.Config) *AuthService {
	return &AuthService{
		repos: repos,
		cfg:   cfg,
		now:   time.Now,
	}
}

// AuthResult is returned by every operation that opens a session.
type AuthResult struct {
	User           *domain.User
	Token          string
	SessionToken   string
	TokenExpiresAt time.Time
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.Auth.BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the user's stored hash.
// A user without a password never matches.
func (s *AuthService) CheckPassword(user *domain.User, password string) bool {
	if !user.HasPassword() {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) == nil
}

func (s *AuthService) GenerateToken(userID uuid.UUID) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.JWTExpiration())
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken checks signature, algorithm and expiry and returns the
// subject as a user id.
func (s *AuthService) ValidateToken(tokenString string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.JWT.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return uuid.Nil, domain.WrapError(domain.CodeUnauthenticated, err, domain.ErrInvalidToken.Message)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, domain.WrapError(domain.CodeUnauthenticated, err, domain.ErrInvalidToken.Message)
	}
	return userID, nil
}

// Authenticate is the server-side half of the gate: the user must still
// exist and hold an unexpired session.
func (s *AuthService) Authenticate(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.repos.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	if _, err := s.repos.Session.GetActiveByUserID(ctx, userID, s.now()); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) AuthenticateToken(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return s.Authenticate(ctx, userID)
}

// startSession replaces every session of the user with a fresh one and
// mints a bearer token. repos must be bound to the caller's transaction.
func (s *AuthService) startSession(ctx context.Context, repos *repository.Repositories, user *domain.User) (*AuthResult, error) {
	if err := repos.Session.DeleteByUserID(ctx, user.ID); err != nil {
		return nil, err
	}
	now := s.now()
	session := &domain.Session{
		ID:           uuid.New(),
		UserID:       user.ID,
		SessionToken: uuid.NewString(),
		ExpireAt:     now.Add(s.cfg.Auth.SessionTTL),
		LoggerType:   domain.SessionSourceAppsUser,
		CreatedAt:    now,
	}
	if err := repos.Session.Create(ctx, session); err != nil {
		return nil, err
	}
	token, expiresAt, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User:           user,
		Token:          token,
		SessionToken:   session.SessionToken,
		TokenExpiresAt: expiresAt,
	}, nil
}

// Logout revokes every session of the user. Tokens already issued stop
// passing the gate immediately.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.repos.Session.DeleteByUserID(ctx, userID)
}

// SweepExpiredSessions deletes sessions past their expiry.
func (s *AuthService) SweepExpiredSessions(ctx context.Context) (int64, error) {
	return s.repos.Session.DeleteExpired(ctx, s.now())
}
