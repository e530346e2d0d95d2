package repository

import (
	"context"
	"errors"

	"bloomhaven/internal/app/catalog/entity"

	"gorm.io/gorm"
)

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository создает новый репозиторий категорий
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// GetAll получает все категории, упорядоченные по ID
func (r *categoryRepository) GetAll(ctx context.Context) ([]entity.Category, error) {
	var categories []entity.Category
	result := r.db.WithContext(ctx).Order("category_id ASC").Find(&categories)

	if result.Error != nil {
		return nil, result.Error
	}

	return categories, nil
}

// GetByID получает категорию по ID
func (r *categoryRepository) GetByID(ctx context.Context, id int64) (*entity.Category, error) {
	var category entity.Category
	result := r.db.WithContext(ctx).First(&category, "category_id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, result.Error
	}

	return &category, nil
}
