package trade_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/bookswap-api/internal/apperr"
	"github.com/rajivgeraev/bookswap-api/internal/db"
	"github.com/rajivgeraev/bookswap-api/internal/events"
	"github.com/rajivgeraev/bookswap-api/internal/logging"
	"github.com/rajivgeraev/bookswap-api/internal/models"
	"github.com/rajivgeraev/bookswap-api/internal/services/trade"
)

// fixture: R (requester) хочет книгу X у P (recipient) и предлагает Y.
// У P есть ещё Z (доступна) и W (недоступна). U - посторонний.
type fixture struct {
	store   *db.MemoryStore
	faulty  *faultyStore
	service *trade.TradeService
	hub     *events.Hub

	R, P, U    uuid.UUID
	X, Y, Z, W uuid.UUID
}

func newFixture(t *testing.T, extra ...trade.Option) *fixture {
	t.Helper()

	f := &fixture{
		store: db.NewMemoryStore(),
		hub:   events.NewHub(logging.Nop()),
		R:     uuid.New(), P: uuid.New(), U: uuid.New(),
		X: uuid.New(), Y: uuid.New(), Z: uuid.New(), W: uuid.New(),
	}
	t.Cleanup(f.hub.Shutdown)

	f.store.AddUser(models.User{ID: f.R, Username: "reader"})
	f.store.AddUser(models.User{ID: f.P, Username: "provider", SuccessfulTradesCount: 4})
	f.store.AddUser(models.User{ID: f.U, Username: "stranger"})

	f.store.AddBook(models.Book{ID: f.X, OwnerID: f.P, Title: "X", IsAvailable: true})
	f.store.AddBook(models.Book{ID: f.Y, OwnerID: f.R, Title: "Y", IsAvailable: true})
	f.store.AddBook(models.Book{ID: f.Z, OwnerID: f.P, Title: "Z", IsAvailable: true})
	f.store.AddBook(models.Book{ID: f.W, OwnerID: f.P, Title: "W", IsAvailable: false})

	f.faulty = &faultyStore{Store: f.store}

	opts := []trade.Option{
		trade.WithLogger(logging.Nop()),
		trade.WithPublisher(f.hub),
		trade.WithClock(newTickingClock()),
		trade.WithRetry(trade.WithBaseDelay(time.Millisecond)),
	}
	f.service = trade.NewTradeService(f.faulty, append(opts, extra...)...)
	return f
}

// newTickingClock возвращает строго возрастающее время, безопасное для горутин
func newTickingClock() func() time.Time {
	var mu sync.Mutex
	current := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func (f *fixture) createSwap(t *testing.T) *models.Trade {
	t.Helper()
	tr, err := f.service.CreateTrade(context.Background(), f.R, trade.CreateTradeInput{
		RecipientID:     f.P,
		RequestedBookID: f.X,
		OfferedBookID:   ptr(f.Y),
		Message:         "Would you swap?",
	})
	require.NoError(t, err)
	return tr
}

func (f *fixture) acceptSwap(t *testing.T) *models.Trade {
	t.Helper()
	tr := f.createSwap(t)
	accepted, err := f.service.AcceptTrade(context.Background(), f.P, tr.ID, trade.AcceptTradeInput{
		TradeType:              models.TradeTypeSwap,
		RecipientOfferedBookID: ptr(f.Z),
	})
	require.NoError(t, err)
	return accepted
}

func (f *fixture) book(t *testing.T, id uuid.UUID) models.Book {
	t.Helper()
	b, err := f.store.GetBook(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (f *fixture) trades(t *testing.T, id uuid.UUID) int {
	t.Helper()
	u, err := f.store.GetUser(context.Background(), id)
	require.NoError(t, err)
	return u.SuccessfulTradesCount
}

func (f *fixture) stored(t *testing.T, id uuid.UUID) *models.Trade {
	t.Helper()
	tr, err := f.store.GetTrade(context.Background(), id)
	require.NoError(t, err)
	return tr
}

// faultyStore подмешивает сбои в хранилище: конфликты сериализации
// перед транзакцией и ошибку реестра книг на заданном вызове
type faultyStore struct {
	trade.Store

	mu            sync.Mutex
	conflicts     int
	setOwnerCalls int
	failSetOwner  int
}

var errRegistryDown = errors.New("book registry unavailable")

func (s *faultyStore) InTx(ctx context.Context, fn func(ctx context.Context, tx trade.Tx) error) error {
	s.mu.Lock()
	if s.conflicts > 0 {
		s.conflicts--
		s.mu.Unlock()
		return fmt.Errorf("%w: injected", apperr.ErrSerializationConflict)
	}
	s.mu.Unlock()

	return s.Store.InTx(ctx, func(ctx context.Context, tx trade.Tx) error {
		return fn(ctx, &faultyTx{Tx: tx, store: s})
	})
}

// failNextSetOwner - n-й следующий вызов SetOwnerAndAvailability вернёт ошибку
func (s *faultyStore) failNextSetOwner(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSetOwner = s.setOwnerCalls + n
}

func (s *faultyStore) injectConflicts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflicts = n
}

type faultyTx struct {
	trade.Tx
	store *faultyStore
}

func (t *faultyTx) SetOwnerAndAvailability(ctx context.Context, id, ownerID uuid.UUID, available bool) error {
	t.store.mu.Lock()
	t.store.setOwnerCalls++
	fail := t.store.failSetOwner > 0 && t.store.setOwnerCalls == t.store.failSetOwner
	t.store.mu.Unlock()

	if fail {
		return errRegistryDown
	}
	return t.Tx.SetOwnerAndAvailability(ctx, id, ownerID, available)
}
