package postgres

import (
	"context"
	"time"

	"github.com/dom/ridecore/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	return translateError(r.db.WithContext(ctx).Create(session).Error)
}

func (r *sessionRepository) GetActiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.Session, error) {
	var session domain.Session
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND expire_at > ?", userID, now).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		return nil, notFoundAs(err, domain.ErrSessionExpired)
	}
	return &session, nil
}

func (r *sessionRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Session{}).Where("user_id = ?", userID).Count(&count).Error
	return count, translateError(err)
}

func (r *sessionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	return translateError(r.db.WithContext(ctx).Delete(&domain.Session{}, "user_id = ?", userID).Error)
}

// DeleteExpired removes sessions whose expiry has passed and reports how many.
func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&domain.Session{}, "expire_at <= ?", now)
	return res.RowsAffected, translateError(res.Error)
}
