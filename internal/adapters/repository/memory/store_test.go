package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/fintrack/internal/core/domain"
)

func TestSessionRepository_ReplaceKeepsOneSessionPerUser(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Sessions()

	first := &domain.RefreshSession{ID: uuid.New(), UserID: 1, ExpiresIn: 100}
	second := &domain.RefreshSession{ID: uuid.New(), UserID: 1, ExpiresIn: 200}
	other := &domain.RefreshSession{ID: uuid.New(), UserID: 2, ExpiresIn: 100}

	require.NoError(t, repo.Replace(ctx, first))
	require.NoError(t, repo.Replace(ctx, other))
	require.NoError(t, repo.Replace(ctx, second))

	assert.Equal(t, 1, repo.Count(1))
	assert.Equal(t, 1, repo.Count(2))

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.GetByID(ctx, second.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(200), got.ExpiresIn)
}

func TestSessionRepository_Rotate(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Sessions()

	session := &domain.RefreshSession{ID: uuid.New(), UserID: 7, ExpiresIn: 100}
	require.NoError(t, repo.Replace(ctx, session))

	newID := uuid.New()
	rotated, err := repo.Rotate(ctx, session.ID, newID)
	require.NoError(t, err)
	assert.Equal(t, newID, rotated.ID)
	assert.Equal(t, int64(100), rotated.ExpiresIn)

	_, err = repo.Rotate(ctx, session.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Sessions()

	require.NoError(t, repo.Replace(ctx, &domain.RefreshSession{ID: uuid.New(), UserID: 1, ExpiresIn: 10}))
	require.NoError(t, repo.Replace(ctx, &domain.RefreshSession{ID: uuid.New(), UserID: 2, ExpiresIn: 50}))

	n, err := repo.DeleteExpired(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 0, repo.Count(1))
	assert.Equal(t, 1, repo.Count(2))
}

func TestUserRepository_CreateRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Users()

	require.NoError(t, repo.Create(ctx, &domain.User{Name: "Ann", Email: "ann@x.com"}))
	err := repo.Create(ctx, &domain.User{Name: "Ann 2", Email: "ann@x.com"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestTransactionRepository_ListAndSummarize(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	food := &domain.Category{Name: "Food", UserID: 1}
	require.NoError(t, store.Categories().Create(ctx, food))
	card := &domain.PaymentMethod{Name: "Card", UserID: 1}
	require.NoError(t, store.PaymentMethods().Create(ctx, card))

	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, amount := range []float64{100, -30, -20.5} {
		require.NoError(t, store.Transactions().Create(ctx, &domain.Transaction{
			Description:     "t",
			Amount:          amount,
			Date:            day.AddDate(0, 0, i),
			CategoryID:      food.ID,
			PaymentMethodID: card.ID,
			UserID:          1,
		}))
	}

	txs, err := store.Transactions().ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, -20.5, txs[0].Amount, "newest first")
	assert.Equal(t, "Food", txs[0].Category.Name)
	assert.Equal(t, "Card", txs[0].PaymentMethod.Name)

	summary, err := store.Transactions().Summarize(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, &domain.Summary{Balance: 49.5, Count: 3, Income: 100, Expense: -50.5}, summary)

	empty, err := store.Transactions().Summarize(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, &domain.Summary{}, empty)
}
