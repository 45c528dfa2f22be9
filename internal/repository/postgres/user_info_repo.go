package postgres

import (
	"context"
	"time"

	"github.com/dom/ridecore/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var userInfoUpsertColumns = []string{
	"gender", "birth_date", "picture", "residence_address", "occupation",
	"designation", "nid", "referral_id", "tin", "approve_terms",
	"approve_privacy", "status", "addition_info", "updated_at", "deleted_at",
}

type userInfoRepository struct {
	db *gorm.DB
}

func NewUserInfoRepository(db *gorm.DB) *userInfoRepository {
	return &userInfoRepository{db: db}
}

func (r *userInfoRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserInfo, error) {
	var info domain.UserInfo
	if err := r.db.WithContext(ctx).First(&info, "user_id = ?", userID).Error; err != nil {
		return nil, notFoundAs(err, domain.ErrUserInfoNotFound)
	}
	return &info, nil
}

func (r *userInfoRepository) Create(ctx context.Context, info *domain.UserInfo) error {
	return translateError(r.db.WithContext(ctx).Create(info).Error)
}

// Upsert writes every column of info keyed on user_id. A soft-deleted row
// is revived. created is true when no live row existed before.
func (r *userInfoRepository) Upsert(ctx context.Context, info *domain.UserInfo) (bool, error) {
	var live int64
	if err := r.db.WithContext(ctx).Model(&domain.UserInfo{}).Where("user_id = ?", info.UserID).Count(&live).Error; err != nil {
		return false, translateError(err)
	}

	info.DeletedAt = gorm.DeletedAt{}
	info.UpdatedAt = time.Now()
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns(userInfoUpsertColumns),
		}).
		Omit("id").
		Create(info).Error
	if err != nil {
		return false, translateError(err)
	}

	stored, err := r.GetByUserID(ctx, info.UserID)
	if err != nil {
		return false, err
	}
	*info = *stored
	return live == 0, nil
}

// UpsertConsent records terms and privacy approval, creating the row when
// missing. birth_date is only set on insert.
func (r *userInfoRepository) UpsertConsent(ctx context.Context, userID uuid.UUID, at time.Time) error {
	info := &domain.UserInfo{
		ID:             uuid.New(),
		UserID:         userID,
		BirthDate:      &at,
		ApproveTerms:   true,
		ApprovePrivacy: true,
		Status:         true,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"approve_terms":   true,
				"approve_privacy": true,
				"status":          true,
				"deleted_at":      nil,
				"updated_at":      at,
			}),
		}).
		Create(info).Error
	return translateError(err)
}

func (r *userInfoRepository) SoftDelete(ctx context.Context, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.UserInfo{})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserInfoNotFound
	}
	return nil
}

func (r *userInfoRepository) List(ctx context.Context) ([]*domain.UserInfo, error) {
	var infos []*domain.UserInfo
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&infos).Error; err != nil {
		return nil, translateError(err)
	}
	return infos, nil
}

func (r *userInfoRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&domain.UserInfo{}).Where("user_id = ?", userID).Count(&count).Error
	return count, translateError(err)
}
