package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config содержит все настройки Catalog Service
// Включает конфигурацию HTTP сервера, PostgreSQL, Redis, Kafka и хранилища загрузок
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Uploads  UploadsConfig
	LogLevel string
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Host string // Адрес хоста (по умолчанию 0.0.0.0)
	Port string // Порт сервера (по умолчанию 8080)
}

// DatabaseConfig - настройки подключения к PostgreSQL
// Единственный источник истины для товаров, изображений и справочников
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string // Режим SSL (disable/require/verify-full)
}

// RedisConfig - настройки Redis для кеширования списка категорий
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int // Номер БД Redis (0-15)
}

// KafkaConfig - настройки Kafka для событий каталога
// События PRODUCT_CREATED / PRODUCT_DELETED уходят в топик product_events
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// UploadsConfig - настройки файлового хранилища изображений товаров
type UploadsConfig struct {
	Dir      string // Каталог на диске для загруженных файлов
	BaseURL  string // Web-префикс, под которым каталог раздаётся статикой
	MaxFiles int    // Максимум файлов в одном запросе создания товара
}

// Load загружает конфигурацию из переменных окружения
// Локальный .env файл подхватывается если он есть
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB value: %w", err)
	}

	maxFiles, err := strconv.Atoi(getEnv("UPLOADS_MAX_FILES", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOADS_MAX_FILES value: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "bloomhaven"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Topic:   getEnv("KAFKA_TOPIC", "product_events"),
		},
		Uploads: UploadsConfig{
			Dir:      getEnv("UPLOADS_DIR", "./public/uploads"),
			BaseURL:  getEnv("UPLOADS_BASE_URL", "/uploads"),
			MaxFiles: maxFiles,
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}, nil
}

// DSN возвращает строку подключения к PostgreSQL в формате libpq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Address возвращает адрес сервера в формате host:port
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// Address возвращает адрес Redis в формате host:port
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
