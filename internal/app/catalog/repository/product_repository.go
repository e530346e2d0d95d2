package repository

import (
	"context"
	"errors"
	"time"

	"bloomhaven/internal/app/catalog/entity"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Коды ошибок PostgreSQL, которые репозиторий переводит в свои sentinel ошибки
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository создает новый репозиторий товаров
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// productRow - плоская строка выборки товара с именами справочников
type productRow struct {
	ProductID        int64     `gorm:"column:product_id"`
	PName            string    `gorm:"column:p_name"`
	Description      *string   `gorm:"column:description"`
	ShortDescription *string   `gorm:"column:short_description"`
	Price            float64   `gorm:"column:price"`
	OfferPrice       *float64  `gorm:"column:offer_price"`
	OfferLabel       *string   `gorm:"column:offer_label"`
	FinishType       *string   `gorm:"column:finish_type"`
	DeliveryTime     *string   `gorm:"column:delivery_time"`
	Count            int       `gorm:"column:count"`
	Category         *string   `gorm:"column:category"`
	OccasionType     *string   `gorm:"column:occasion_type"`
	CreatedAt        time.Time `gorm:"column:created_at"`
}

const productDetailColumns = `p.product_id, p.p_name, p.description, p.short_description, ` +
	`p.price, p.offer_price, p.offer_label, f.name AS finish_type, p.delivery_time, ` +
	`p.count, c.name AS category, o.name AS occasion_type, p.created_at`

// detailQuery строит базовую выборку товара с JOIN справочников
func (r *productRepository) detailQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("products p").
		Select(productDetailColumns).
		Joins("LEFT JOIN categories c ON p.category_id = c.category_id").
		Joins("LEFT JOIN finish_types f ON p.finish_type_id = f.finish_type_id").
		Joins("LEFT JOIN occasion_types o ON p.occasion_type_id = o.occasion_type_id")
}

// CreateWithImages вставляет товар и строки его изображений атомарно
// SortOrder присваивается здесь: 1..N в порядке переданного списка
// При любой ошибке транзакция откатывается целиком - частичного товара не бывает
func (r *productRepository) CreateWithImages(ctx context.Context, product *entity.Product, images []entity.ProductImage) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Images").Create(product).Error; err != nil {
			return err
		}

		if len(images) == 0 {
			product.Images = make([]entity.ProductImage, 0)
			return nil
		}

		for i := range images {
			images[i].ProductID = product.ProductID
			images[i].SortOrder = i + 1
		}

		if err := tx.Create(&images).Error; err != nil {
			return err
		}

		product.Images = images
		return nil
	})

	return classifyPgError(err)
}

// DeleteWithImages удаляет строки изображений и товара в одной транзакции
// Возвращает ErrProductNotFound если товара не было - откат оставляет БД без изменений
func (r *productRepository) DeleteWithImages(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&entity.ProductImage{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&entity.Product{}, "product_id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrProductNotFound
		}

		return nil
	})
}

// GetDetail получает товар по ID с именами справочников и изображениями
func (r *productRepository) GetDetail(ctx context.Context, id int64) (*entity.ProductDetail, error) {
	var rows []productRow
	if err := r.detailQuery(ctx).Where("p.product_id = ?", id).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrProductNotFound
	}

	details, err := r.attachImages(ctx, rows)
	if err != nil {
		return nil, err
	}

	return &details[0], nil
}

// ListDetails получает товары по фильтру с сортировкой
// Пустые поля фильтра не добавляют условий в запрос
func (r *productRepository) ListDetails(ctx context.Context, filter entity.ProductFilter) ([]entity.ProductDetail, error) {
	q := r.detailQuery(ctx)

	if filter.Category != "" {
		q = q.Where("c.name = ?", filter.Category)
	}
	if filter.FinishType != "" {
		q = q.Where("f.name = ?", filter.FinishType)
	}
	if filter.OccasionType != "" {
		q = q.Where("o.name = ?", filter.OccasionType)
	}

	switch filter.SortBy {
	case "price_asc":
		q = q.Order("p.price ASC")
	case "price_desc":
		q = q.Order("p.price DESC")
	default:
		// latest - сортировка по умолчанию
		q = q.Order("p.created_at DESC")
	}

	var rows []productRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	return r.attachImages(ctx, rows)
}

// attachImages догружает изображения одним IN-запросом и раскладывает их по товарам
// Товар без изображений получает пустой срез, а не nil - в JSON это []
func (r *productRepository) attachImages(ctx context.Context, rows []productRow) ([]entity.ProductDetail, error) {
	details := make([]entity.ProductDetail, 0, len(rows))
	if len(rows) == 0 {
		return details, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}

	var images []entity.ProductImage
	err := r.db.WithContext(ctx).
		Where("product_id IN ?", ids).
		Order("product_id, sort_order").
		Find(&images).Error
	if err != nil {
		return nil, err
	}

	byProduct := make(map[int64][]entity.ProductImage, len(rows))
	for _, img := range images {
		byProduct[img.ProductID] = append(byProduct[img.ProductID], img)
	}

	for _, row := range rows {
		imgs := byProduct[row.ProductID]
		if imgs == nil {
			imgs = make([]entity.ProductImage, 0)
		}
		details = append(details, entity.ProductDetail{
			ProductID:        row.ProductID,
			PName:            row.PName,
			Description:      row.Description,
			ShortDescription: row.ShortDescription,
			Price:            row.Price,
			OfferPrice:       row.OfferPrice,
			OfferLabel:       row.OfferLabel,
			FinishType:       row.FinishType,
			DeliveryTime:     row.DeliveryTime,
			Count:            row.Count,
			Category:         row.Category,
			OccasionType:     row.OccasionType,
			CreatedAt:        row.CreatedAt,
			Images:           imgs,
		})
	}

	return details, nil
}

// ImageURLs возвращает пути файлов изображений товара в порядке показа
func (r *productRepository) ImageURLs(ctx context.Context, id int64) ([]string, error) {
	var urls []string
	err := r.db.WithContext(ctx).
		Model(&entity.ProductImage{}).
		Where("product_id = ?", id).
		Order("sort_order").
		Pluck("image_url", &urls).Error
	if err != nil {
		return nil, err
	}
	return urls, nil
}

// AllImageURLs возвращает все пути файлов, на которые ссылается БД
// Используется сборщиком файлов-сирот
func (r *productRepository) AllImageURLs(ctx context.Context) ([]string, error) {
	var urls []string
	err := r.db.WithContext(ctx).
		Model(&entity.ProductImage{}).
		Pluck("image_url", &urls).Error
	if err != nil {
		return nil, err
	}
	return urls, nil
}

// classifyPgError переводит коды ошибок PostgreSQL в sentinel ошибки репозитория
// Сырой текст ошибки драйвера остается внутри через wrapping
func classifyPgError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return ErrForeignKey
		case pgUniqueViolation:
			return ErrDuplicateKey
		}
	}

	return err
}
