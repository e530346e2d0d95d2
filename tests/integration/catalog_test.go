//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"bloomhaven/internal/app/catalog/entity"
	"bloomhaven/internal/app/catalog/handler"
	"bloomhaven/internal/app/catalog/repository"
	"bloomhaven/internal/app/catalog/service"
	"bloomhaven/internal/app/catalog/util"
	"bloomhaven/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// CatalogIntegrationTestSuite содержит интеграционные тесты каталога
// Требует запущенные PostgreSQL и Redis
type CatalogIntegrationTestSuite struct {
	suite.Suite
	db          *gorm.DB
	redisClient *util.RedisClient
	redisRaw    *redis.Client
	uploadsDir  string
	router      *gin.Engine
}

// SetupSuite выполняется один раз перед всеми тестами
func (s *CatalogIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	logger.InitWithWriter("catalog-test", "error", io.Discard)

	// Подключение к PostgreSQL (тестовая БД)
	dsn := "host=localhost port=5433 user=postgres password=postgres dbname=catalog_test sslmode=disable"
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL")
	s.db = db

	// Подключение к Redis (отдельная БД под тесты)
	s.redisClient, err = util.NewRedisClient("localhost:6380", "", 15)
	require.NoError(s.T(), err, "Failed to connect to Redis")
	s.redisRaw = redis.NewClient(&redis.Options{Addr: "localhost:6380", DB: 15})

	// Каталог загрузок на время прогона
	s.uploadsDir, err = os.MkdirTemp("", "catalog-uploads-*")
	require.NoError(s.T(), err)
	imageStore, err := util.NewDiskImageStore(s.uploadsDir, "/uploads")
	require.NoError(s.T(), err)

	// Применяем миграции
	s.setupDatabase()

	// Собираем сервис с настоящими репозиториями и файловым хранилищем
	productRepo := repository.NewProductRepository(s.db)
	categoryRepo := repository.NewCategoryRepository(s.db)
	catalogService := service.NewCatalogService(productRepo, categoryRepo, imageStore, s.redisClient, &mockKafkaProducer{})
	catalogHandler := handler.NewCatalogHandler(catalogService, 5)

	s.router = handler.SetupRoutes(catalogHandler, s.uploadsDir, "/uploads")
}

// TearDownSuite выполняется один раз после всех тестов
func (s *CatalogIntegrationTestSuite) TearDownSuite() {
	s.cleanupDatabase()
	if s.redisClient != nil {
		s.redisClient.Close()
	}
	if s.redisRaw != nil {
		s.redisRaw.Close()
	}
	os.RemoveAll(s.uploadsDir)
}

// SetupTest выполняется перед каждым тестом
func (s *CatalogIntegrationTestSuite) SetupTest() {
	s.db.Exec("DELETE FROM product_images")
	s.db.Exec("DELETE FROM products")
	s.db.Exec("DELETE FROM categories")
	s.db.Exec("DELETE FROM finish_types")
	s.db.Exec("DELETE FROM occasion_types")
	s.redisRaw.FlushDB(context.Background())
}

func (s *CatalogIntegrationTestSuite) setupDatabase() {
	// Пересоздаем таблицы, чтобы упавший прошлый прогон не оставил мусора
	s.cleanupDatabase()

	err := s.db.AutoMigrate(
		&entity.Category{},
		&entity.FinishType{},
		&entity.OccasionType{},
		&entity.Product{},
		&entity.ProductImage{},
	)
	require.NoError(s.T(), err)

	// AutoMigrate не создает FK на справочники - добавляем их, как в боевой схеме
	s.db.Exec("ALTER TABLE products ADD CONSTRAINT fk_products_category FOREIGN KEY (category_id) REFERENCES categories (category_id)")
	s.db.Exec("ALTER TABLE products ADD CONSTRAINT fk_products_finish_type FOREIGN KEY (finish_type_id) REFERENCES finish_types (finish_type_id)")
	s.db.Exec("ALTER TABLE products ADD CONSTRAINT fk_products_occasion_type FOREIGN KEY (occasion_type_id) REFERENCES occasion_types (occasion_type_id)")
}

func (s *CatalogIntegrationTestSuite) cleanupDatabase() {
	s.db.Exec("DROP TABLE IF EXISTS product_images")
	s.db.Exec("DROP TABLE IF EXISTS products")
	s.db.Exec("DROP TABLE IF EXISTS categories")
	s.db.Exec("DROP TABLE IF EXISTS finish_types")
	s.db.Exec("DROP TABLE IF EXISTS occasion_types")
}

// mockKafkaProducer - мок для Kafka в интеграционных тестах
type mockKafkaProducer struct{}

func (m *mockKafkaProducer) PublishMessage(ctx context.Context, key string, value []byte) error {
	return nil
}

func (m *mockKafkaProducer) Close() error {
	return nil
}

func (s *CatalogIntegrationTestSuite) seedCategory(id int64, name string) {
	require.NoError(s.T(), s.db.Create(&entity.Category{CategoryID: id, Name: name}).Error)
}

// productForm собирает multipart запрос создания товара с файлами изображений
func (s *CatalogIntegrationTestSuite) productForm(fields map[string]string, fileNames []string) *http.Request {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(s.T(), writer.WriteField(k, v))
	}
	for _, name := range fileNames {
		part, err := writer.CreateFormFile("images", name)
		require.NoError(s.T(), err)
		_, err = part.Write([]byte("fake image bytes"))
		require.NoError(s.T(), err)
	}
	require.NoError(s.T(), writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/items", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// ==================== Category Tests ====================

func (s *CatalogIntegrationTestSuite) TestGetAllCategories_Success() {
	// Arrange
	s.seedCategory(1, "Vases")
	s.seedCategory(2, "Bouquets")

	req := httptest.NewRequest(http.MethodGet, "/api/category", nil)
	rec := httptest.NewRecorder()

	// Act
	s.router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(s.T(), http.StatusOK, rec.Code)

	var response entity.CategoryListResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, response.Total)
	assert.Equal(s.T(), "Vases", response.Categories[0].Name)
}

func (s *CatalogIntegrationTestSuite) TestGetAllCategories_SecondCallServedFromCache() {
	// Arrange
	s.seedCategory(1, "Vases")

	first := httptest.NewRecorder()
	s.router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/category", nil))
	require.Equal(s.T(), http.StatusOK, first.Code)

	// Строка ушла из БД, но кеш еще жив
	s.db.Exec("DELETE FROM categories")

	// Act
	second := httptest.NewRecorder()
	s.router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/category", nil))

	// Assert
	assert.Equal(s.T(), http.StatusOK, second.Code)

	var response entity.CategoryListResponse
	err := json.Unmarshal(second.Body.Bytes(), &response)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, response.Total)
}

func (s *CatalogIntegrationTestSuite) TestGetCategory_Success() {
	// Arrange
	s.seedCategory(7, "Vases")

	req := httptest.NewRequest(http.MethodGet, "/api/category/7", nil)
	rec := httptest.NewRecorder()

	// Act
	s.router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(s.T(), http.StatusOK, rec.Code)

	var response entity.Category
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(7), response.CategoryID)
	assert.Equal(s.T(), "Vases", response.Name)
}

func (s *CatalogIntegrationTestSuite) TestGetCategory_NotFound() {
	// Act
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/category/999999", nil))

	// Assert
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
}

// ==================== Product Tests ====================

func (s *CatalogIntegrationTestSuite) TestCreateProduct_Success() {
	// Arrange
	s.seedCategory(1, "Vases")

	req := s.productForm(map[string]string{
		"p_name":      "Red Vase",
		"price":       "24.50",
		"category_id": "1",
	}, []string{"front.jpg", "side.jpg"})
	rec := httptest.NewRecorder()

	// Act
	s.router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(s.T(), http.StatusCreated, rec.Code)

	var response entity.Product
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Red Vase", response.PName)
	assert.Equal(s.T(), 24.50, response.Price)
	require.Len(s.T(), response.Images, 2)
	assert.Equal(s.T(), "front.jpg", response.Images[0].AltText)
	assert.Equal(s.T(), "side.jpg", response.Images[1].AltText)

	// Файлы лежат на диске под именами из image_url
	for _, img := range response.Images {
		name := strings.TrimPrefix(img.ImageURL, "/uploads/")
		_, statErr := os.Stat(filepath.Join(s.uploadsDir, name))
		assert.NoError(s.T(), statErr)
	}
}

func (s *CatalogIntegrationTestSuite) TestCreateProduct_UnknownCategory() {
	// Arrange - категория не существует, FK срабатывает в транзакции
	req := s.productForm(map[string]string{
		"p_name":      "Red Vase",
		"price":       "24.50",
		"category_id": "999999",
	}, []string{"front.jpg"})
	rec := httptest.NewRecorder()

	// Act
	s.router.ServeHTTP(rec, req)

	// Assert - строк нет, компенсирующее удаление убрало файл
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)

	var count int64
	s.db.Model(&entity.Product{}).Count(&count)
	assert.Equal(s.T(), int64(0), count)

	entries, err := os.ReadDir(s.uploadsDir)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), entries)
}

func (s *CatalogIntegrationTestSuite) TestCreateProduct_MissingName() {
	// Act
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, s.productForm(map[string]string{"price": "24.50"}, nil))

	// Assert
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *CatalogIntegrationTestSuite) TestGetProduct_Success() {
	// Arrange
	s.seedCategory(1, "Vases")

	createRec := httptest.NewRecorder()
	s.router.ServeHTTP(createRec, s.productForm(map[string]string{
		"p_name":      "Red Vase",
		"price":       "24.50",
		"category_id": "1",
	}, []string{"front.jpg", "side.jpg"}))
	require.Equal(s.T(), http.StatusCreated, createRec.Code)

	var created entity.Product
	require.NoError(s.T(), json.Unmarshal(createRec.Body.Bytes(), &created))

	// Act
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/"+itoa(created.ProductID), nil))

	// Assert - имя категории вместо FK, изображения в порядке загрузки
	assert.Equal(s.T(), http.StatusOK, rec.Code)

	var response entity.ProductDetail
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), created.ProductID, response.ProductID)
	require.NotNil(s.T(), response.Category)
	assert.Equal(s.T(), "Vases", *response.Category)
	require.Len(s.T(), response.Images, 2)
	assert.Equal(s.T(), "front.jpg", response.Images[0].AltText)
}

func (s *CatalogIntegrationTestSuite) TestGetProduct_NotFound() {
	// Act
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/999999", nil))

	// Assert
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
}

func (s *CatalogIntegrationTestSuite) TestListProducts_FilterAndSort() {
	// Arrange
	s.seedCategory(1, "Vases")
	s.seedCategory(2, "Bouquets")

	for _, p := range []map[string]string{
		{"p_name": "Cheap Vase", "price": "10", "category_id": "1"},
		{"p_name": "Dear Vase", "price": "90", "category_id": "1"},
		{"p_name": "Bouquet", "price": "30", "category_id": "2"},
	} {
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, s.productForm(p, nil))
		require.Equal(s.T(), http.StatusCreated, rec.Code)
	}

	// Act
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items?category=Vases&sort_by=price_asc", nil))

	// Assert
	assert.Equal(s.T(), http.StatusOK, rec.Code)

	var response entity.ProductListResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 2, response.Total)
	assert.Equal(s.T(), "Cheap Vase", response.Products[0].PName)
	assert.Equal(s.T(), "Dear Vase", response.Products[1].PName)
}

func (s *CatalogIntegrationTestSuite) TestDeleteProduct_Success() {
	// Arrange
	s.seedCategory(1, "Vases")

	createRec := httptest.NewRecorder()
	s.router.ServeHTTP(createRec, s.productForm(map[string]string{
		"p_name":      "To Delete",
		"price":       "5",
		"category_id": "1",
	}, []string{"front.jpg"}))
	require.Equal(s.T(), http.StatusCreated, createRec.Code)

	var created entity.Product
	require.NoError(s.T(), json.Unmarshal(createRec.Body.Bytes(), &created))

	// Act
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/items/"+itoa(created.ProductID), nil))

	// Assert - строки и файл исчезли
	assert.Equal(s.T(), http.StatusOK, rec.Code)

	var count int64
	s.db.Model(&entity.Product{}).Where("product_id = ?", created.ProductID).Count(&count)
	assert.Equal(s.T(), int64(0), count)
	s.db.Model(&entity.ProductImage{}).Where("product_id = ?", created.ProductID).Count(&count)
	assert.Equal(s.T(), int64(0), count)

	entries, err := os.ReadDir(s.uploadsDir)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), entries)
}

func (s *CatalogIntegrationTestSuite) TestDeleteProduct_NotFound() {
	// Act
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/items/999999", nil))

	// Assert
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
}

func (s *CatalogIntegrationTestSuite) TestHealthCheck() {
	// Act
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	// Assert
	assert.Equal(s.T(), http.StatusOK, rec.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Запуск test suite
func TestCatalogIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(CatalogIntegrationTestSuite))
}
