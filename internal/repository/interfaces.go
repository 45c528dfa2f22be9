package repository

import (
	"context"
	"time"

	"github.com/dom/ridecore/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
	SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetActiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.Session, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type OTPRepository interface {
	Create(ctx context.Context, otp *domain.OneTimePasscode) error
	FindLatestActive(ctx context.Context, userID uuid.UUID, code string, now time.Time) (*domain.OneTimePasscode, error)
	Consume(ctx context.Context, id uuid.UUID) error
	DeactivateByUserID(ctx context.Context, userID uuid.UUID) error
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}

type UserInfoRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserInfo, error)
	Create(ctx context.Context, info *domain.UserInfo) error
	// Upsert inserts or replaces the row for info.UserID, clearing deleted_at.
	Upsert(ctx context.Context, info *domain.UserInfo) (created bool, err error)
	UpsertConsent(ctx context.Context, userID uuid.UUID, at time.Time) error
	SoftDelete(ctx context.Context, userID uuid.UUID) error
	List(ctx context.Context) ([]*domain.UserInfo, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}

type UserAddressRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.UserAddress, error)
	Upsert(ctx context.Context, address *domain.UserAddress) (created bool, err error)
	Delete(ctx context.Context, userID uuid.UUID, addressType domain.AddressType) error
	List(ctx context.Context) ([]*domain.UserAddress, error)
}

type UserLocationRepository interface {
	Upsert(ctx context.Context, userID uuid.UUID, point domain.GeoPoint) (*domain.UserLocation, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserLocation, error)
	Delete(ctx context.Context, userID uuid.UUID) error
	List(ctx context.Context) ([]*domain.UserLocation, error)
	FindNearby(ctx context.Context, query domain.NearbyQuery) ([]*domain.NearbyUser, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id uint) (*domain.Category, error)
	Update(ctx context.Context, category *domain.Category) error
	Deactivate(ctx context.Context, id uint) (*domain.Category, error)
	ListActive(ctx context.Context) ([]*domain.Category, error)
}

// Transactor runs fn against repositories bound to a single database
// transaction. Returning an error rolls everything back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(repos *Repositories) error) error
}

type Repositories struct {
	User         UserRepository
	Session      SessionRepository
	OTP          OTPRepository
	UserInfo     UserInfoRepository
	UserAddress  UserAddressRepository
	UserLocation UserLocationRepository
	Category     CategoryRepository
	Tx           Transactor
}
