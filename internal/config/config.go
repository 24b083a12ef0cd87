package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config структура конфигурации
type Config struct {
	Port           string
	JWTSecret      string
	DatabaseURL    string
	DatabaseConfig DatabaseConfig
	TradeConfig    TradeConfig
	RateLimit      RateLimitConfig
	StorageDriver  string // postgres или memory
	MemorySeedFile string // JSON с пользователями и книгами для memory
	LogLevel       string
	AppEnv         string
}

// DatabaseConfig содержит конфигурацию базы данных
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// TradeConfig - параметры повторов атомарной записи при конфликтах сериализации
type TradeConfig struct {
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

// RateLimitConfig - ограничение частоты отправки сообщений одним пользователем
type RateLimitConfig struct {
	MessagesPerSecond float64
	Burst             int
}

// LoadConfig загружает переменные из .env
func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️ .env файл не найден, используем переменные окружения")
	}

	dbConfig, dbURL := loadDatabaseConfig()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		DatabaseURL:    dbURL,
		DatabaseConfig: dbConfig,
		TradeConfig: TradeConfig{
			MaxAttempts:    getEnvInt("TRADE_TX_MAX_ATTEMPTS", 3),
			RetryBaseDelay: getEnvDuration("TRADE_TX_RETRY_DELAY", 10*time.Millisecond),
		},
		RateLimit: RateLimitConfig{
			MessagesPerSecond: getEnvFloat("MESSAGES_PER_SECOND", 1),
			Burst:             getEnvInt("MESSAGES_BURST", 5),
		},
		StorageDriver:  getEnv("STORAGE_DRIVER", StoragePostgres),
		MemorySeedFile: getEnv("MEMORY_SEED_FILE", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AppEnv:         getEnv("APP_ENV", "production"), // По умолчанию production
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Ошибка конфигурации: %v", err)
	}

	return cfg
}

// LoadDatabaseURL - только строка подключения, для утилит без HTTP-сервера
func LoadDatabaseURL() string {
	_ = godotenv.Load()
	_, dbURL := loadDatabaseConfig()
	return dbURL
}

func loadDatabaseConfig() (DatabaseConfig, string) {
	dbConfig := DatabaseConfig{
		Host:     getEnv("PGHOST", "localhost"),
		Port:     getEnv("PGPORT", "5432"),
		User:     getEnv("PGUSER", "bookswap_user"),
		Password: getEnv("PGPASSWORD", "bookswap_pass"),
		Name:     getEnv("PGDATABASE", "bookswap"),
		SSLMode:  getEnv("PGSSLMODE", "disable"),
		MaxConns: int32(getEnvInt("PGMAXCONNS", 10)),
		MinConns: int32(getEnvInt("PGMINCONNS", 2)),
	}

	// Формируем строку подключения к базе данных
	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name, dbConfig.SSLMode)

	return dbConfig, getEnv("DATABASE_URL", dbURL)
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("не задана переменная окружения JWT_SECRET")
	}
	if c.StorageDriver != StoragePostgres && c.StorageDriver != StorageMemory {
		return fmt.Errorf("неизвестный STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.TradeConfig.MaxAttempts <= 0 {
		return fmt.Errorf("TRADE_TX_MAX_ATTEMPTS должен быть положительным")
	}
	if c.TradeConfig.RetryBaseDelay < 0 {
		return fmt.Errorf("TRADE_TX_RETRY_DELAY не может быть отрицательным")
	}
	if c.RateLimit.MessagesPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("лимит сообщений должен быть положительным")
	}
	return nil
}

// getEnv получает переменную окружения или использует дефолтное значение
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("⚠️ %s=%q не число, используем %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("⚠️ %s=%q не число, используем %v", key, value, defaultValue)
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("⚠️ %s=%q не длительность, используем %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
