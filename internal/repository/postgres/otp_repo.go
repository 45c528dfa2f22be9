package postgres

import (
	"context"
	"time"

	"github.com/dom/ridecore/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type otpRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) *otpRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) Create(ctx context.Context, otp *domain.OneTimePasscode) error {
	return translateError(r.db.WithContext(ctx).Create(otp).Error)
}

// FindLatestActive returns the newest active, unexpired code that matches.
func (r *otpRepository) FindLatestActive(ctx context.Context, userID uuid.UUID, code string, now time.Time) (*domain.OneTimePasscode, error) {
	var otp domain.OneTimePasscode
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND code = ? AND status = ? AND expire_at > ?", userID, code, true, now).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		return nil, notFoundAs(err, domain.ErrInvalidOTP)
	}
	return &otp, nil
}

// Consume flips an active code to used. A code that was consumed
// concurrently affects no rows and is reported as invalid.
func (r *otpRepository) Consume(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&domain.OneTimePasscode{}).
		Where("id = ? AND status = ?", id, true).
		Updates(map[string]any{"status": false, "is_verified": true})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrInvalidOTP
	}
	return nil
}

func (r *otpRepository) DeactivateByUserID(ctx context.Context, userID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Model(&domain.OneTimePasscode{}).
		Where("user_id = ? AND status = ?", userID, true).
		Update("status", false).Error
	return translateError(err)
}

func (r *otpRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.OneTimePasscode{}).Where("user_id = ?", userID).Count(&count).Error
	return count, translateError(err)
}
