package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"bloomhaven/internal/app/catalog/config"
	"bloomhaven/internal/app/catalog/handler"
	"bloomhaven/internal/app/catalog/repository"
	"bloomhaven/internal/app/catalog/service"
	"bloomhaven/internal/app/catalog/util"
	"bloomhaven/pkg/logger"
)

func main() {
	// === ИНИЦИАЛИЗАЦИЯ КОНФИГУРАЦИИ ===
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init("catalog-service", cfg.LogLevel)

	// === ПОДКЛЮЧЕНИЕ К POSTGRESQL ===
	db, err := connectDB(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	logger.Info().Msg("Successfully connected to PostgreSQL")

	// === ПОДКЛЮЧЕНИЕ К REDIS ===
	// Redis кеширует список категорий
	redisClient, err := util.NewRedisClient(
		cfg.Redis.Address(),
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Msg("Successfully connected to Redis")

	// === ИНИЦИАЛИЗАЦИЯ KAFKA PRODUCER ===
	// События PRODUCT_CREATED / PRODUCT_DELETED уходят в топик product_events
	kafkaProducer := util.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer kafkaProducer.Close()
	logger.Info().Msg("Successfully initialized Kafka producer")

	// === ФАЙЛОВОЕ ХРАНИЛИЩЕ ИЗОБРАЖЕНИЙ ===
	imageStore, err := util.NewDiskImageStore(cfg.Uploads.Dir, cfg.Uploads.BaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize image store")
	}

	// === ИНИЦИАЛИЗАЦИЯ СЛОЕВ ===
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)

	catalogService := service.NewCatalogService(
		productRepo,
		categoryRepo,
		imageStore,
		redisClient,
		kafkaProducer,
	)

	catalogHandler := handler.NewCatalogHandler(catalogService, cfg.Uploads.MaxFiles)
	router := handler.SetupRoutes(catalogHandler, cfg.Uploads.Dir, cfg.Uploads.BaseURL)

	// === СБОРЩИК ФАЙЛОВ-СИРОТ ===
	// Удаление товара сначала коммитит БД и лишь затем убирает файлы,
	// поэтому сбой зачистки оставляет сирот - их ночью убирает sweeper
	sweeper := util.NewOrphanSweeper(imageStore, productRepo, 24*time.Hour)
	if err := sweeper.Start(context.Background(), "0 3 * * *"); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start orphan sweeper")
	}
	defer sweeper.Stop()

	// === НАСТРОЙКА HTTP СЕРВЕРА ===
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запускаем сервер в отдельной горутине для graceful shutdown
	go func() {
		logger.Info().Str("addr", cfg.Server.Address()).Msg("Starting Catalog Service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// === GRACEFUL SHUTDOWN ===
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Catalog Service...")

	// Даем серверу 30 секунд на завершение текущих запросов
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Catalog Service stopped gracefully")
}

// connectDB открывает соединение с PostgreSQL через GORM
// Повторяет попытки подключения: при запуске в Docker база может быть еще не готова
func connectDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
		if err == nil {
			break
		}
		logger.Warn().Err(err).Int("attempt", i+1).Msg("Failed to connect to database, retrying")
		time.Sleep(3 * time.Second)
	}
	if err != nil {
		return nil, err
	}

	// Настройки пула соединений
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Minute)

	return db, nil
}
