package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/bookswap-api/internal/apperr"
	"github.com/rajivgeraev/bookswap-api/internal/models"
	"github.com/rajivgeraev/bookswap-api/internal/services/trade"
)

func seededMemoryStore(t *testing.T) (*MemoryStore, models.User, models.Book) {
	t.Helper()

	store := NewMemoryStore()
	user := models.User{ID: uuid.New(), Username: "reader"}
	book := models.Book{ID: uuid.New(), OwnerID: user.ID, Title: "Dune", IsAvailable: true}
	store.AddUser(user)
	store.AddBook(book)
	return store, user, book
}

func Test_MemoryStore_InTx_RollsBackOnError(t *testing.T) {
	// arrange
	store, user, book := seededMemoryStore(t)
	newOwner := uuid.New()
	boom := errors.New("boom")

	// act
	err := store.InTx(context.Background(), func(ctx context.Context, tx trade.Tx) error {
		require.NoError(t, tx.SetOwnerAndAvailability(ctx, book.ID, newOwner, false))
		require.NoError(t, tx.IncrementSuccessfulTrades(ctx, user.ID, uuid.New()))
		return boom
	})

	// assert
	require.ErrorIs(t, err, boom)

	got, err := store.GetBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.OwnerID)
	assert.True(t, got.IsAvailable)

	u, err := store.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Zero(t, u.SuccessfulTradesCount)
}

func Test_MemoryStore_InTx_CommitsOnSuccess(t *testing.T) {
	store, _, book := seededMemoryStore(t)
	newOwner := uuid.New()

	err := store.InTx(context.Background(), func(ctx context.Context, tx trade.Tx) error {
		return tx.SetOwnerAndAvailability(ctx, book.ID, newOwner, true)
	})

	require.NoError(t, err)
	got, err := store.GetBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, newOwner, got.OwnerID)
}

func Test_MemoryStore_IncrementSuccessfulTrades_OncePerTrade(t *testing.T) {
	store, user, _ := seededMemoryStore(t)
	tradeID := uuid.New()

	for i := 0; i < 3; i++ {
		err := store.InTx(context.Background(), func(ctx context.Context, tx trade.Tx) error {
			return tx.IncrementSuccessfulTrades(ctx, user.ID, tradeID)
		})
		require.NoError(t, err)
	}

	u, err := store.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, u.SuccessfulTradesCount)
}

func Test_MemoryStore_NotFound(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.GetTrade(ctx, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = store.GetBook(ctx, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = store.InTx(ctx, func(ctx context.Context, tx trade.Tx) error {
		return tx.SetOwnerAndAvailability(ctx, uuid.New(), uuid.New(), true)
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func Test_MemoryStore_ListTrades_OrdersNewestFirstAndPages(t *testing.T) {
	// arrange
	store := NewMemoryStore()
	me, other := uuid.New(), uuid.New()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	err := store.InTx(context.Background(), func(ctx context.Context, tx trade.Tx) error {
		for i := 0; i < 4; i++ {
			tr := &models.Trade{
				ID: uuid.New(), RequesterID: me, RecipientID: other, RequestedBookID: uuid.New(),
				Status: models.StatusPending, TradeType: models.TradeTypeSwap,
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			}
			ids = append(ids, tr.ID)
			if err := tx.InsertTrade(ctx, tr); err != nil {
				return err
			}
		}
		// чужой обмен не виден
		return tx.InsertTrade(ctx, &models.Trade{ID: uuid.New(), RequesterID: other, RecipientID: uuid.New(), CreatedAt: base})
	})
	require.NoError(t, err)

	// act
	page, err := store.ListTrades(context.Background(), models.TradeFilter{
		UserID: me, View: models.ViewAll, Page: models.Page{Limit: 2, Offset: 1},
	})

	// assert
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[2], page[0].ID)
	assert.Equal(t, ids[1], page[1].ID)
}

func Test_MemoryStore_HasPendingDuplicate(t *testing.T) {
	store := NewMemoryStore()
	requester, requested, offered := uuid.New(), uuid.New(), uuid.New()

	err := store.InTx(context.Background(), func(ctx context.Context, tx trade.Tx) error {
		require.NoError(t, tx.InsertTrade(ctx, &models.Trade{
			ID: uuid.New(), RequesterID: requester, RecipientID: uuid.New(),
			RequestedBookID: requested, OfferedBookID: &offered, Status: models.StatusPending,
		}))

		dup, err := tx.HasPendingDuplicate(ctx, requester, requested, &offered)
		require.NoError(t, err)
		assert.True(t, dup)

		dup, err = tx.HasPendingDuplicate(ctx, requester, requested, nil)
		require.NoError(t, err)
		assert.False(t, dup)
		return nil
	})
	require.NoError(t, err)
}

func Test_MemoryStore_ListMessages_AscendingWithCursor(t *testing.T) {
	// arrange
	store := NewMemoryStore()
	tradeID := uuid.New()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.AppendMessage(context.Background(), &models.TradeMessage{
			ID: uuid.New(), TradeID: tradeID, SenderID: uuid.New(), Text: "hi", CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	// act
	all, err := store.ListMessages(context.Background(), tradeID, models.MessagePage{})
	require.NoError(t, err)
	after := all[0].CreatedAt
	rest, err := store.ListMessages(context.Background(), tradeID, models.MessagePage{After: &after, Limit: 1})
	require.NoError(t, err)

	// assert
	require.Len(t, all, 3)
	assert.True(t, all[0].CreatedAt.Before(all[2].CreatedAt))
	require.Len(t, rest, 1)
	assert.Equal(t, all[1].ID, rest[0].ID)
}

func Test_LoadSeedFile(t *testing.T) {
	path := t.TempDir() + "/seed.json"
	userID, bookID := uuid.New(), uuid.New()
	content := `{"users":[{"id":"` + userID.String() + `","username":"anna"}],
		"books":[{"id":"` + bookID.String() + `","owner_id":"` + userID.String() + `","title":"Emma","is_available":true}]}`
	require.NoError(t, writeFile(path, content))

	seed, err := LoadSeedFile(path)
	require.NoError(t, err)
	store := NewMemoryStore()
	seed.Apply(store)

	book, err := store.GetBook(context.Background(), bookID)
	require.NoError(t, err)
	assert.Equal(t, userID, book.OwnerID)
	assert.True(t, book.IsAvailable)
}
