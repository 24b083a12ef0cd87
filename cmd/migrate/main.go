package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"

	"github.com/rajivgeraev/bookswap-api/internal/config"
	"github.com/rajivgeraev/bookswap-api/internal/db"
)

// Применяет схему таблиц обменов к базе из DATABASE_URL
func main() {
	conn, err := sql.Open("postgres", config.LoadDatabaseURL())
	if err != nil {
		log.Fatalf("❌ Ошибка подключения к базе данных: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		log.Fatalf("❌ База данных недоступна: %v", err)
	}

	if _, err := conn.ExecContext(ctx, db.Schema); err != nil {
		log.Fatalf("❌ Ошибка применения схемы: %v", err)
	}

	log.Println("✅ Схема применена")
}
