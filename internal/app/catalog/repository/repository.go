package repository

import (
	"context"
	"errors"

	"bloomhaven/internal/app/catalog/entity"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrForeignKey       = errors.New("foreign key violation")
	ErrDuplicateKey     = errors.New("duplicate key")
)

type CategoryRepository interface {
	GetAll(ctx context.Context) ([]entity.Category, error)
	GetByID(ctx context.Context, id int64) (*entity.Category, error)
}

type ProductRepository interface {
	// CreateWithImages вставляет строку товара и его изображения в одной транзакции
	CreateWithImages(ctx context.Context, product *entity.Product, images []entity.ProductImage) error
	// DeleteWithImages удаляет строки изображений и товара в одной транзакции
	DeleteWithImages(ctx context.Context, id int64) error
	GetDetail(ctx context.Context, id int64) (*entity.ProductDetail, error)
	ListDetails(ctx context.Context, filter entity.ProductFilter) ([]entity.ProductDetail, error)
	// ImageURLs возвращает пути файлов изображений товара в порядке sort_order
	ImageURLs(ctx context.Context, id int64) ([]string, error)
	// AllImageURLs возвращает пути всех файлов, на которые ссылается БД
	AllImageURLs(ctx context.Context) ([]string, error)
}
