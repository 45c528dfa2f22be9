package postgres

import (
	"context"

	"github.com/dom/ridecore/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return conflictAs(err, domain.ErrUserExists)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, domain.ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, notFoundAs(err, domain.ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, "phone_number = ?", phone).Error; err != nil {
		return nil, notFoundAs(err, domain.ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepository) ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("email = ? OR phone_number = ?", email, phone).
		Count(&count).Error
	if err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error) {
	result := make(map[uuid.UUID]*domain.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var users []*domain.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translateError(err)
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (r *userRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	return r.updates(ctx, id, map[string]any{"is_verified": true})
}

// SetPassword stores the hash and activates the account.
func (r *userRepository) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.updates(ctx, id, map[string]any{
		"password":       passwordHash,
		"status":         true,
		"service_status": true,
	})
}

func (r *userRepository) updates(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
