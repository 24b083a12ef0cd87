package db

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/rajivgeraev/bookswap-api/internal/models"
)

// Seed - начальные данные каталога для хранилища в памяти
type Seed struct {
	Users []models.User `json:"users"`
	Books []models.Book `json:"books"`
}

// LoadSeedFile читает JSON с пользователями и книгами
func LoadSeedFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла начальных данных: %w", err)
	}

	var seed Seed
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("ошибка разбора файла начальных данных: %w", err)
	}
	return &seed, nil
}

// Apply загружает данные в хранилище
func (s *Seed) Apply(store *MemoryStore) {
	for _, u := range s.Users {
		store.AddUser(u)
	}
	for _, b := range s.Books {
		store.AddBook(b)
	}
}
