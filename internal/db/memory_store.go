package db

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/rajivgeraev/bookswap-api/internal/apperr"
	"github.com/rajivgeraev/bookswap-api/internal/models"
	"github.com/rajivgeraev/bookswap-api/internal/services/trade"
)

type creditKey struct {
	tradeID uuid.UUID
	userID  uuid.UUID
}

type memoryData struct {
	books   map[uuid.UUID]models.Book
	users   map[uuid.UUID]models.User
	trades  map[uuid.UUID]*models.Trade
	credits map[creditKey]bool
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		books:   make(map[uuid.UUID]models.Book, len(d.books)),
		users:   make(map[uuid.UUID]models.User, len(d.users)),
		trades:  make(map[uuid.UUID]*models.Trade, len(d.trades)),
		credits: make(map[creditKey]bool, len(d.credits)),
	}
	for id, b := range d.books {
		c.books[id] = b
	}
	for id, u := range d.users {
		c.users[id] = u
	}
	for id, t := range d.trades {
		c.trades[id] = t.Clone()
	}
	for k, v := range d.credits {
		c.credits[k] = v
	}
	return c
}

// MemoryStore - хранилище в памяти для тестов и локальной разработки.
// Транзакции выполняются по одной; записи копятся на копии данных
// и публикуются, только если fn вернула nil.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *memoryData

	msgMu    sync.RWMutex
	messages map[uuid.UUID][]models.TradeMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: &memoryData{
			books:   make(map[uuid.UUID]models.Book),
			users:   make(map[uuid.UUID]models.User),
			trades:  make(map[uuid.UUID]*models.Trade),
			credits: make(map[creditKey]bool),
		},
		messages: make(map[uuid.UUID][]models.TradeMessage),
	}
}

// AddUser добавляет или заменяет пользователя
func (s *MemoryStore) AddUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.users[u.ID] = u
}

// AddBook добавляет или заменяет книгу
func (s *MemoryStore) AddBook(b models.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.books[b.ID] = b
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(ctx context.Context, tx trade.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	staged := s.data.clone()
	s.mu.RUnlock()

	if err := fn(ctx, &memoryTx{data: staged}); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = staged
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetTrade(_ context.Context, id uuid.UUID) (*models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.data.trades[id]
	if !ok {
		return nil, apperr.NotFound("trade", id)
	}
	return t.Clone(), nil
}

func (s *MemoryStore) ListTrades(_ context.Context, filter models.TradeFilter) ([]*models.Trade, error) {
	s.mu.RLock()
	var trades []*models.Trade
	for _, t := range s.data.trades {
		if filter.Matches(t) {
			trades = append(trades, t.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(trades, func(i, j int) bool {
		if !trades[i].CreatedAt.Equal(trades[j].CreatedAt) {
			return trades[i].CreatedAt.After(trades[j].CreatedAt)
		}
		return trades[i].ID.String() > trades[j].ID.String()
	})

	return paginate(trades, filter.Page.Offset, filter.Page.Limit), nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (s *MemoryStore) GetBook(_ context.Context, id uuid.UUID) (models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.getBook(id)
}

func (s *MemoryStore) GetUser(_ context.Context, id uuid.UUID) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.getUser(id)
}

// Сообщения хранятся отдельно и не ждут транзакций обменов

func (s *MemoryStore) AppendMessage(_ context.Context, msg *models.TradeMessage) error {
	s.msgMu.Lock()
	defer s.msgMu.Unlock()
	s.messages[msg.TradeID] = append(s.messages[msg.TradeID], *msg)
	return nil
}

func (s *MemoryStore) ListMessages(_ context.Context, tradeID uuid.UUID, page models.MessagePage) ([]models.TradeMessage, error) {
	s.msgMu.RLock()
	defer s.msgMu.RUnlock()

	var messages []models.TradeMessage
	for _, m := range s.messages[tradeID] {
		if page.After != nil && !m.CreatedAt.After(*page.After) {
			continue
		}
		messages = append(messages, m)
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return paginate(messages, 0, page.Limit), nil
}

func (d *memoryData) getBook(id uuid.UUID) (models.Book, error) {
	b, ok := d.books[id]
	if !ok {
		return models.Book{}, apperr.NotFound("book", id)
	}
	return b, nil
}

func (d *memoryData) getUser(id uuid.UUID) (models.User, error) {
	u, ok := d.users[id]
	if !ok {
		return models.User{}, apperr.NotFound("user", id)
	}
	return u, nil
}

// memoryTx работает с подготовленной копией данных
type memoryTx struct {
	data *memoryData
}

func (t *memoryTx) GetTradeForUpdate(_ context.Context, id uuid.UUID) (*models.Trade, error) {
	tr, ok := t.data.trades[id]
	if !ok {
		return nil, apperr.NotFound("trade", id)
	}
	return tr.Clone(), nil
}

func (t *memoryTx) InsertTrade(_ context.Context, tr *models.Trade) error {
	t.data.trades[tr.ID] = tr.Clone()
	return nil
}

func (t *memoryTx) UpdateTrade(_ context.Context, tr *models.Trade) error {
	if _, ok := t.data.trades[tr.ID]; !ok {
		return apperr.NotFound("trade", tr.ID)
	}
	t.data.trades[tr.ID] = tr.Clone()
	return nil
}

func (t *memoryTx) HasPendingDuplicate(_ context.Context, requesterID, requestedBookID uuid.UUID, offeredBookID *uuid.UUID) (bool, error) {
	for _, tr := range t.data.trades {
		if tr.Status != models.StatusPending || tr.RequesterID != requesterID || tr.RequestedBookID != requestedBookID {
			continue
		}
		if sameOptionalID(tr.OfferedBookID, offeredBookID) {
			return true, nil
		}
	}
	return false, nil
}

func sameOptionalID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (t *memoryTx) GetBook(_ context.Context, id uuid.UUID) (models.Book, error) {
	return t.data.getBook(id)
}

func (t *memoryTx) SetOwnerAndAvailability(_ context.Context, id, ownerID uuid.UUID, available bool) error {
	b, err := t.data.getBook(id)
	if err != nil {
		return err
	}
	b.OwnerID = ownerID
	b.IsAvailable = available
	t.data.books[id] = b
	return nil
}

func (t *memoryTx) GetUser(_ context.Context, id uuid.UUID) (models.User, error) {
	return t.data.getUser(id)
}

func (t *memoryTx) IncrementSuccessfulTrades(_ context.Context, userID, tradeID uuid.UUID) error {
	u, err := t.data.getUser(userID)
	if err != nil {
		return err
	}
	key := creditKey{tradeID: tradeID, userID: userID}
	if t.data.credits[key] {
		return nil
	}
	t.data.credits[key] = true
	u.SuccessfulTradesCount++
	t.data.users[userID] = u
	return nil
}
