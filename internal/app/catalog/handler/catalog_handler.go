package handler

import (
	"errors"
	"net/http"
	"strconv"

	"bloomhaven/internal/app/catalog/entity"
	"bloomhaven/internal/app/catalog/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// CatalogHandler обрабатывает HTTP запросы каталога
type CatalogHandler struct {
	catalogService service.CatalogServiceInterface
	validator      *validator.Validate
	maxImages      int
}

// NewCatalogHandler создает новый обработчик каталога
// maxImages ограничивает число файлов в одном запросе создания товара
func NewCatalogHandler(catalogService service.CatalogServiceInterface, maxImages int) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		validator:      validator.New(),
		maxImages:      maxImages,
	}
}

// === PRODUCTS HANDLERS ===

// ListProducts обрабатывает GET /api/items
// Фильтры category/finish_type/occasion_type и сортировка sort_by берутся из query
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var filter entity.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	products, err := h.catalogService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list products")
		return
	}

	c.JSON(http.StatusOK, entity.ProductListResponse{
		Products: products,
		Total:    len(products),
	})
}

// GetProduct обрабатывает GET /api/items/:productId
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, c.Param("productId"), "Invalid product ID")
	if !ok {
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, http.StatusNotFound, "Product not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to get product")
		return
	}

	c.JSON(http.StatusOK, product)
}

// CreateProduct обрабатывает POST /api/items (multipart, поле images - до maxImages файлов)
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req entity.CreateProductRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Валидация
	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	files := form.File["images"]
	if len(files) > h.maxImages {
		respondError(c, http.StatusBadRequest, "Too many image files")
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), &req, files)
	if err != nil {
		if errors.Is(err, service.ErrInvalidReference) {
			respondError(c, http.StatusBadRequest, "Referenced category, finish type or occasion type does not exist")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, product)
}

// DeleteProduct обрабатывает DELETE /api/items/:productId
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, c.Param("productId"), "Invalid product ID")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, http.StatusNotFound, "Product not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Product deleted successfully",
	})
}

// === CATEGORIES HANDLERS ===

// GetAllCategories обрабатывает GET /api/category (с кешированием)
func (h *CatalogHandler) GetAllCategories(c *gin.Context) {
	categories, err := h.catalogService.GetAllCategories(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to get categories")
		return
	}

	c.JSON(http.StatusOK, entity.CategoryListResponse{
		Categories: categories,
		Total:      len(categories),
	})
}

// GetCategory обрабатывает GET /api/category/:id
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	id, ok := parseID(c, c.Param("id"), "Invalid category ID")
	if !ok {
		return
	}

	category, err := h.catalogService.GetCategory(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			respondError(c, http.StatusNotFound, "Category not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to get category")
		return
	}

	c.JSON(http.StatusOK, category)
}

// === HELPER FUNCTIONS ===

// parseID разбирает идентификатор из пути
// Нечисловой или неположительный ID отклоняется до обращения к хранилищу
func parseID(c *gin.Context, raw, message string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, message)
		return 0, false
	}
	return id, true
}

// respondError отправляет JSON ответ об ошибке
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

// formatValidationError форматирует ошибки валидации
func formatValidationError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrors) > 0 {
			return validationErrors[0].Field() + " validation failed"
		}
	}
	return "Validation failed"
}
