package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strconv"
	"time"

	"bloomhaven/internal/app/catalog/entity"
	"bloomhaven/internal/app/catalog/repository"
	"bloomhaven/pkg/logger"
	"bloomhaven/pkg/metrics"
)

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidReference = errors.New("referenced lookup entity does not exist")
)

const categoriesCacheTTL = time.Hour

// CatalogService обрабатывает бизнес-логику каталога товаров
// Координирует репозитории, файловое хранилище изображений, Redis кеш и Kafka producer
type CatalogService struct {
	productRepo   repository.ProductRepository
	categoryRepo  repository.CategoryRepository
	imageStore    ImageStore
	categoryCache CategoryCache
	publisher     MessagePublisher
}

// NewCatalogService создает новый сервис каталога с внедрением зависимостей
func NewCatalogService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	imageStore ImageStore,
	categoryCache CategoryCache,
	publisher MessagePublisher,
) *CatalogService {
	return &CatalogService{
		productRepo:   productRepo,
		categoryRepo:  categoryRepo,
		imageStore:    imageStore,
		categoryCache: categoryCache,
		publisher:     publisher,
	}
}

// === PRODUCTS ===

// CreateProduct создает товар вместе с изображениями
// Файлы сначала пишутся на диск (строка БД не может ссылаться на отсутствующий файл),
// затем строка товара и строки изображений вставляются одной транзакцией.
// Если транзакция не прошла, только что записанные файлы убираются с диска -
// компенсация вместо распределенной транзакции с файловой системой.
func (s *CatalogService) CreateProduct(ctx context.Context, req *entity.CreateProductRequest, files []*multipart.FileHeader) (*entity.Product, error) {
	saved := make([]entity.ProductImage, 0, len(files))
	for _, file := range files {
		img, err := s.imageStore.Save(file)
		if err != nil {
			s.removeFiles(saved, "compensation")
			return nil, fmt.Errorf("failed to store uploaded image: %w", err)
		}
		saved = append(saved, img)
	}

	count := 0
	if req.Count != nil {
		count = *req.Count
	}

	product := &entity.Product{
		PName:            req.PName,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Price:            req.Price,
		OfferPrice:       req.OfferPrice,
		OfferLabel:       req.OfferLabel,
		FinishTypeID:     req.FinishTypeID,
		DeliveryTime:     req.DeliveryTime,
		Count:            count,
		CategoryID:       req.CategoryID,
		OccasionTypeID:   req.OccasionTypeID,
	}

	if err := s.productRepo.CreateWithImages(ctx, product, saved); err != nil {
		s.removeFiles(saved, "compensation")
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, ErrInvalidReference
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	metrics.ProductsCreated.Inc()
	s.publishProductEvent(ctx, "PRODUCT_CREATED", product.ProductID, product.PName, product.Price)

	return product, nil
}

// GetProduct получает товар по ID с именами справочников и изображениями
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*entity.ProductDetail, error) {
	detail, err := s.productRepo.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return detail, nil
}

// ListProducts получает товары по фильтру с сортировкой
func (s *CatalogService) ListProducts(ctx context.Context, filter entity.ProductFilter) ([]entity.ProductDetail, error) {
	products, err := s.productRepo.ListDetails(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

// DeleteProduct удаляет товар, его строки изображений и файлы с диска
// Порядок намеренный: строки удаляются и коммитятся первыми, файлы - после.
// Сбой между коммитом и зачисткой оставляет файлы-сироты на диске,
// но никогда не оставляет в БД ссылку на удаленный файл. Сирот убирает sweeper.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	urls, err := s.productRepo.ImageURLs(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load product images: %w", err)
	}

	if err := s.productRepo.DeleteWithImages(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	for _, url := range urls {
		if err := s.imageStore.Remove(url); err != nil {
			// Файл не удалось убрать - не повод откатывать уже закоммиченное удаление
			logger.Warn().Err(err).Str("image_url", url).Msg("Failed to remove image file")
			continue
		}
		metrics.UploadFilesDeleted.WithLabelValues("product_delete").Inc()
	}

	metrics.ProductsDeleted.Inc()
	s.publishProductEvent(ctx, "PRODUCT_DELETED", id, "", 0)

	return nil
}

// === CATEGORIES ===

// GetAllCategories получает все категории с кешированием в Redis
// Сначала проверяет кеш, при промахе загружает из БД и кеширует на час
func (s *CatalogService) GetAllCategories(ctx context.Context) ([]entity.Category, error) {
	categories, err := s.categoryCache.GetCategories(ctx)
	if err == nil && len(categories) > 0 {
		return categories, nil
	}

	categories, err = s.categoryRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}

	if err := s.categoryCache.SetCategories(ctx, categories, categoriesCacheTTL); err != nil {
		// Данные получены из БД, проблемы с кешем не критичны
		logger.Warn().Err(err).Msg("Failed to cache categories")
	}

	return categories, nil
}

// GetCategory получает категорию по ID из PostgreSQL
func (s *CatalogService) GetCategory(ctx context.Context, id int64) (*entity.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return category, nil
}

// removeFiles компенсирующая зачистка: убирает с диска файлы,
// на которые так и не сослалась ни одна строка БД
func (s *CatalogService) removeFiles(images []entity.ProductImage, reason string) {
	for _, img := range images {
		if err := s.imageStore.Remove(img.ImageURL); err != nil {
			logger.Warn().Err(err).Str("image_url", img.ImageURL).Msg("Failed to remove stored file")
			continue
		}
		metrics.UploadFilesDeleted.WithLabelValues(reason).Inc()
	}
}

// publishProductEvent отправляет событие каталога в Kafka
// Key - ID товара для партиционирования, ошибки отправки не прерывают запрос
func (s *CatalogService) publishProductEvent(ctx context.Context, eventType string, id int64, name string, price float64) {
	event := entity.ProductEvent{
		EventType: eventType,
		ProductID: id,
		PName:     name,
		Price:     price,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal product event")
		return
	}

	if err := s.publisher.PublishMessage(ctx, strconv.FormatInt(id, 10), data); err != nil {
		logger.Warn().Err(err).Str("event_type", eventType).Msg("Failed to publish product event")
	}
}
