package entity

// CreateProductRequest - поля multipart формы создания товара
// Файлы изображений идут отдельным полем "images" (до 5 штук)
type CreateProductRequest struct {
	PName            string   `form:"p_name" validate:"required,min=2,max=200"`
	Description      *string  `form:"description" validate:"omitempty,max=2000"`
	ShortDescription *string  `form:"short_description" validate:"omitempty,max=500"`
	Price            float64  `form:"price" validate:"required,gt=0"`
	OfferPrice       *float64 `form:"offer_price" validate:"omitempty,gt=0"`
	OfferLabel       *string  `form:"offer_label" validate:"omitempty,max=100"`
	FinishTypeID     *int64   `form:"finish_type_id" validate:"omitempty,gt=0"`
	DeliveryTime     *string  `form:"delivery_time" validate:"omitempty,max=100"`
	Count            *int     `form:"count" validate:"omitempty,gte=0"`
	CategoryID       *int64   `form:"category_id" validate:"omitempty,gt=0"`
	OccasionTypeID   *int64   `form:"occasion_type_id" validate:"omitempty,gt=0"`
}

// ProductFilter - параметры выборки списка товаров
// Пустое поле фильтра не накладывает ограничения
type ProductFilter struct {
	Category     string `form:"category"`
	FinishType   string `form:"finish_type"`
	OccasionType string `form:"occasion_type"`
	SortBy       string `form:"sort_by"` // price_asc, price_desc, latest (по умолчанию)
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ProductListResponse struct {
	Products []ProductDetail `json:"products"`
	Total    int             `json:"total"`
}

type CategoryListResponse struct {
	Categories []Category `json:"categories"`
	Total      int        `json:"total"`
}
