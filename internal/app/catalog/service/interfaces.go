package service

import (
	"context"
	"mime/multipart"
	"time"

	"bloomhaven/internal/app/catalog/entity"
)

// CategoryCache - кеш списка категорий (Redis)
type CategoryCache interface {
	GetCategories(ctx context.Context) ([]entity.Category, error)
	SetCategories(ctx context.Context, categories []entity.Category, ttl time.Duration) error
}

// MessagePublisher - отправка событий каталога (Kafka)
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
}

// ImageStore - файловое хранилище изображений товаров
// Save обязан оставить файл на диске до того, как на него сошлётся строка БД
type ImageStore interface {
	Save(file *multipart.FileHeader) (entity.ProductImage, error)
	Remove(url string) error
}

type CatalogServiceInterface interface {
	CreateProduct(ctx context.Context, req *entity.CreateProductRequest, files []*multipart.FileHeader) (*entity.Product, error)
	GetProduct(ctx context.Context, id int64) (*entity.ProductDetail, error)
	ListProducts(ctx context.Context, filter entity.ProductFilter) ([]entity.ProductDetail, error)
	DeleteProduct(ctx context.Context, id int64) error

	GetAllCategories(ctx context.Context) ([]entity.Category, error)
	GetCategory(ctx context.Context, id int64) (*entity.Category, error)
}
