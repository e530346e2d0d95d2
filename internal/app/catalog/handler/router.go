package handler

import (
	"net/http"
	"time"

	"bloomhaven/pkg/logger"
	"bloomhaven/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes настраивает все маршруты Catalog Service с использованием Gin
// uploadsDir раздается статикой под uploadsBaseURL - image_url товаров указывают туда
func SetupRoutes(catalogHandler *CatalogHandler, uploadsDir, uploadsBaseURL string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinLoggerMiddleware())
	router.Use(metrics.GinPrometheusMiddleware("catalog"))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "catalog-service",
		})
	})

	// Prometheus метрики
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Загруженные изображения товаров
	router.Static(uploadsBaseURL, uploadsDir)

	// Items endpoints
	items := router.Group("/api/items")
	{
		items.GET("", catalogHandler.ListProducts)          // Список товаров с фильтрами и сортировкой
		items.GET("/:productId", catalogHandler.GetProduct) // Товар по ID
		items.POST("", catalogHandler.CreateProduct)        // Создать товар (multipart с изображениями)
		items.DELETE("/:productId", catalogHandler.DeleteProduct)
	}

	// Category endpoints
	category := router.Group("/api/category")
	{
		category.GET("", catalogHandler.GetAllCategories) // Список категорий (кеш Redis)
		category.GET("/:id", catalogHandler.GetCategory)  // Категория по ID
	}

	return router
}
