package postgres

import (
	"context"

	"github.com/dom/ridecore/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userAddressRepository struct {
	db *gorm.DB
}

func NewUserAddressRepository(db *gorm.DB) *userAddressRepository {
	return &userAddressRepository{db: db}
}

func (r *userAddressRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.UserAddress, error) {
	var addresses []*domain.UserAddress
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("address_type ASC").
		Find(&addresses).Error
	if err != nil {
		return nil, translateError(err)
	}
	return addresses, nil
}

// Upsert writes the address keyed on (user_id, address_type).
func (r *userAddressRepository) Upsert(ctx context.Context, address *domain.UserAddress) (bool, error) {
	var existing int64
	err := r.db.WithContext(ctx).
		Model(&domain.UserAddress{}).
		Where("user_id = ? AND address_type = ?", address.UserID, address.AddressType).
		Count(&existing).Error
	if err != nil {
		return false, translateError(err)
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "address_type"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"street", "city", "state", "zip", "country", "status", "addition_info", "updated_at",
			}),
		}).
		Omit("id").
		Create(address).Error
	if err != nil {
		return false, translateError(err)
	}

	var stored domain.UserAddress
	err = r.db.WithContext(ctx).
		First(&stored, "user_id = ? AND address_type = ?", address.UserID, address.AddressType).Error
	if err != nil {
		return false, translateError(err)
	}
	*address = stored
	return existing == 0, nil
}

func (r *userAddressRepository) Delete(ctx context.Context, userID uuid.UUID, addressType domain.AddressType) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND address_type = ?", userID, addressType).
		Delete(&domain.UserAddress{})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrAddressNotFound
	}
	return nil
}

func (r *userAddressRepository) List(ctx context.Context) ([]*domain.UserAddress, error) {
	var addresses []*domain.UserAddress
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&addresses).Error; err != nil {
		return nil, translateError(err)
	}
	return addresses, nil
}
