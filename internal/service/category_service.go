package service

import (
	"context"
	"strings"

	"github.com/dom/ridecore/internal/domain"
	"github.com/dom/ridecore/internal/repository"
)

type CategoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

type CategoryInput struct {
	CategoryName string
	Icon         string
	Type         string
}

func (s *CategoryService) Create(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	category := &domain.Category{
		CategoryName: strings.TrimSpace(input.CategoryName),
		Icon:         strings.TrimSpace(input.Icon),
		Type:         categoryType(input.Type),
		Status:       true,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) Get(ctx context.Context, id uint) (*domain.Category, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CategoryService) Update(ctx context.Context, id uint, input CategoryInput) (*domain.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	category.CategoryName = strings.TrimSpace(input.CategoryName)
	category.Icon = strings.TrimSpace(input.Icon)
	category.Type = categoryType(input.Type)
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *CategoryService) Delete(ctx context.Context, id uint) (*domain.Category, error) {
	return s.repo.Deactivate(ctx, id)
}

func (s *CategoryService) ListActive(ctx context.Context) ([]*domain.Category, error) {
	return s.repo.ListActive(ctx)
}

func categoryType(raw string) string {
	if t := strings.TrimSpace(raw); t != "" {
		return t
	}
	return domain.DefaultCategoryType
}
