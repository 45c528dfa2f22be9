package postgres

import (
	"context"

	"github.com/dom/ridecore/internal/domain"
	"gorm.io/gorm"
)

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *categoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return conflictAs(err, domain.ErrCategoryExists)
	}
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*domain.Category, error) {
	var category domain.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, domain.ErrCategoryNotFound)
	}
	return &category, nil
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Category{}).
		Where("id = ?", category.ID).
		Updates(map[string]any{
			"category_name": category.CategoryName,
			"icon":          category.Icon,
			"type":          category.Type,
			"status":        category.Status,
		})
	if res.Error != nil {
		return conflictAs(res.Error, domain.ErrCategoryExists)
	}
	if res.RowsAffected == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

// Deactivate is the delete operation: the row stays, status goes false.
func (r *categoryRepository) Deactivate(ctx context.Context, id uint) (*domain.Category, error) {
	res := r.db.WithContext(ctx).Model(&domain.Category{}).Where("id = ?", id).Update("status", false)
	if res.Error != nil {
		return nil, translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrCategoryNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *categoryRepository) ListActive(ctx context.Context) ([]*domain.Category, error) {
	var categories []*domain.Category
	err := r.db.WithContext(ctx).
		Where("status = ?", true).
		Order("created_at DESC").
		Order("id DESC").
		Find(&categories).Error
	if err != nil {
		return nil, translateError(err)
	}
	return categories, nil
}
