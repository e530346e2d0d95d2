package entity

import (
	"time"
)

// Category представляет справочную категорию товаров (только чтение)
type Category struct {
	CategoryID int64  `json:"category_id" gorm:"column:category_id;primaryKey"`
	Name       string `json:"name" gorm:"column:name"`
}

func (Category) TableName() string { return "categories" }

// FinishType - справочник видов отделки (только чтение)
type FinishType struct {
	FinishTypeID int64  `json:"finish_type_id" gorm:"column:finish_type_id;primaryKey"`
	Name         string `json:"name" gorm:"column:name"`
}

func (FinishType) TableName() string { return "finish_types" }

// OccasionType - справочник поводов (только чтение)
type OccasionType struct {
	OccasionTypeID int64  `json:"occasion_type_id" gorm:"column:occasion_type_id;primaryKey"`
	Name           string `json:"name" gorm:"column:name"`
}

func (OccasionType) TableName() string { return "occasion_types" }

// Product представляет строку товара так, как она хранится в PostgreSQL
// Необязательные поля - указатели, чтобы отличать NULL от пустого значения
type Product struct {
	ProductID        int64          `json:"product_id" gorm:"column:product_id;primaryKey;autoIncrement"`
	PName            string         `json:"p_name" gorm:"column:p_name"`
	Description      *string        `json:"description" gorm:"column:description"`
	ShortDescription *string        `json:"short_description" gorm:"column:short_description"`
	Price            float64        `json:"price" gorm:"column:price"`
	OfferPrice       *float64       `json:"offer_price" gorm:"column:offer_price"`
	OfferLabel       *string        `json:"offer_label" gorm:"column:offer_label"`
	FinishTypeID     *int64         `json:"finish_type_id" gorm:"column:finish_type_id"`
	DeliveryTime     *string        `json:"delivery_time" gorm:"column:delivery_time"`
	Count            int            `json:"count" gorm:"column:count"`
	CategoryID       *int64         `json:"category_id" gorm:"column:category_id"`
	OccasionTypeID   *int64         `json:"occasion_type_id" gorm:"column:occasion_type_id"`
	CreatedAt        time.Time      `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	Images           []ProductImage `json:"images" gorm:"foreignKey:ProductID;references:ProductID"`
}

func (Product) TableName() string { return "products" }

// ProductImage - одна строка изображения товара
// SortOrder фиксирует порядок показа: 1..N в порядке загрузки
type ProductImage struct {
	ImageID   int64  `json:"-" gorm:"column:image_id;primaryKey;autoIncrement"`
	ProductID int64  `json:"-" gorm:"column:product_id"`
	ImageURL  string `json:"image_url" gorm:"column:image_url"`
	AltText   string `json:"alt_text" gorm:"column:alt_text"`
	SortOrder int    `json:"-" gorm:"column:sort_order"`
}

func (ProductImage) TableName() string { return "product_images" }

// ProductDetail - читаемая форма товара: имена справочников вместо FK
// плюс упорядоченный список изображений
type ProductDetail struct {
	ProductID        int64          `json:"product_id"`
	PName            string         `json:"p_name"`
	Description      *string        `json:"description"`
	ShortDescription *string        `json:"short_description"`
	Price            float64        `json:"price"`
	OfferPrice       *float64       `json:"offer_price"`
	OfferLabel       *string        `json:"offer_label"`
	FinishType       *string        `json:"finish_type"`
	DeliveryTime     *string        `json:"delivery_time"`
	Count            int            `json:"count"`
	Category         *string        `json:"category"`
	OccasionType     *string        `json:"occasion_type"`
	CreatedAt        time.Time      `json:"created_at"`
	Images           []ProductImage `json:"images"`
}

// ProductEvent представляет событие изменения каталога для Kafka
type ProductEvent struct {
	EventType string    `json:"event_type"` // PRODUCT_CREATED, PRODUCT_DELETED
	ProductID int64     `json:"product_id"`
	PName     string    `json:"p_name"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}
