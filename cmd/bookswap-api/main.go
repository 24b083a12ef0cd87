package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	jsoniter "github.com/json-iterator/go"

	"github.com/rajivgeraev/bookswap-api/internal/config"
	"github.com/rajivgeraev/bookswap-api/internal/db"
	"github.com/rajivgeraev/bookswap-api/internal/events"
	"github.com/rajivgeraev/bookswap-api/internal/logging"
	"github.com/rajivgeraev/bookswap-api/internal/middleware"
	"github.com/rajivgeraev/bookswap-api/internal/services/chat"
	"github.com/rajivgeraev/bookswap-api/internal/services/trade"
	"github.com/rajivgeraev/bookswap-api/internal/utils"
)

// storage - общее у хранилищ для сервисов обменов и сообщений
type storage interface {
	trade.Store
	chat.Store
}

func main() {
	// Загружаем конфигурацию
	cfg := config.LoadConfig()
	appLogger := logging.New(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStorage(ctx, cfg)
	defer closeStore()

	hub := events.NewHub(appLogger)
	defer hub.Shutdown()

	// Создаём сервисы
	tradeService := trade.NewTradeService(store,
		trade.WithLogger(appLogger),
		trade.WithPublisher(hub),
		trade.WithRetry(
			trade.WithMaxAttempts(cfg.TradeConfig.MaxAttempts),
			trade.WithBaseDelay(cfg.TradeConfig.RetryBaseDelay),
		),
	)
	chatService := chat.NewChatService(store,
		chat.WithLogger(appLogger),
		chat.WithPublisher(hub),
	)

	json := jsoniter.ConfigCompatibleWithStandardLibrary

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "BookSwap API",
		ErrorHandler: middleware.ErrorHandler(appLogger),
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowCredentials: false,
	}))

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Настраиваем middleware для аутентификации
	jwtService := utils.NewJWTService(cfg.JWTSecret)
	api := app.Group("/api/trades", middleware.AuthMiddleware(jwtService))

	// Регистрируем маршруты
	trade.NewHandler(tradeService).SetupRoutes(api)
	messageLimiter := middleware.NewRateLimiter(cfg.RateLimit.MessagesPerSecond, cfg.RateLimit.Burst)
	chat.NewHandler(chatService).SetupRoutes(api, messageLimiter.Handler())

	go func() {
		<-ctx.Done()
		log.Println("⏹️ Останавливаем сервер")
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Ошибка при остановке сервера: %v", err)
		}
	}()

	// Запускаем сервер
	log.Printf("✅ BookSwap API запущен на порту %s (хранилище: %s)", cfg.Port, cfg.StorageDriver)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Ошибка сервера: %v", err)
	}
}

// openStorage выбирает хранилище по STORAGE_DRIVER
func openStorage(ctx context.Context, cfg *config.Config) (storage, func()) {
	if cfg.StorageDriver == config.StorageMemory {
		store := db.NewMemoryStore()
		if cfg.MemorySeedFile != "" {
			seed, err := db.LoadSeedFile(cfg.MemorySeedFile)
			if err != nil {
				log.Fatalf("❌ %v", err)
			}
			seed.Apply(store)
			log.Printf("✅ Загружено пользователей: %d, книг: %d", len(seed.Users), len(seed.Books))
		} else {
			log.Println("⚠️ Хранилище в памяти пустое: задайте MEMORY_SEED_FILE")
		}
		return store, func() {}
	}

	// Инициализируем базу данных
	pool, err := db.InitDB(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Ошибка при инициализации базы данных: %v", err)
	}
	return db.NewPostgresStore(pool), pool.Close
}
