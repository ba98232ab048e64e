package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/fintrack/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/fintrack/internal/core/domain"
	"github.com/vncsmyrnk/fintrack/internal/core/ports"
)

func TestTransactionService_Create(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	categories := NewCategoryService(store.Categories())
	methods := NewPaymentMethodService(store.PaymentMethods())
	svc := NewTransactionService(store.Transactions(), store.Categories(), store.PaymentMethods())

	food, err := categories.Create(ctx, 1, ports.CreateCategoryInput{Name: "Food", Color: "#ff0000"})
	require.NoError(t, err)
	card, err := methods.Create(ctx, 1, "Card")
	require.NoError(t, err)
	otherCategory, err := categories.Create(ctx, 2, ports.CreateCategoryInput{Name: "Rent"})
	require.NoError(t, err)

	date := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)

	t.Run("category of another user", func(t *testing.T) {
		_, err := svc.Create(ctx, 1, ports.CreateTransactionInput{
			Description: "x", Amount: -1, Date: date,
			CategoryID: otherCategory.ID, PaymentMethodID: card.ID,
		})
		assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
	})

	t.Run("unknown payment method", func(t *testing.T) {
		_, err := svc.Create(ctx, 1, ports.CreateTransactionInput{
			Description: "x", Amount: -1, Date: date,
			CategoryID: food.ID, PaymentMethodID: 9999,
		})
		assert.ErrorIs(t, err, domain.ErrPaymentMethodNotFound)
	})

	t.Run("success", func(t *testing.T) {
		tx, err := svc.Create(ctx, 1, ports.CreateTransactionInput{
			Description: " Lunch ", Amount: -12.5, Date: date,
			CategoryID: food.ID, PaymentMethodID: card.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, "Lunch", tx.Description)
		assert.Equal(t, &domain.Reference{ID: food.ID, Name: "Food"}, tx.Category)
		assert.Equal(t, &domain.Reference{ID: card.ID, Name: "Card"}, tx.PaymentMethod)

		list, err := svc.List(ctx, 1)
		require.NoError(t, err)
		require.Len(t, list, 1)

		others, err := svc.List(ctx, 2)
		require.NoError(t, err)
		assert.Empty(t, others)
	})
}

func TestTransactionService_DeleteAndSummary(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewTransactionService(store.Transactions(), store.Categories(), store.PaymentMethods())

	food := &domain.Category{Name: "Food", UserID: 1}
	require.NoError(t, store.Categories().Create(ctx, food))
	cash := &domain.PaymentMethod{Name: "Cash", UserID: 1}
	require.NoError(t, store.PaymentMethods().Create(ctx, cash))

	var ids []int64
	for _, amount := range []float64{2000, -150, -50} {
		tx, err := svc.Create(ctx, 1, ports.CreateTransactionInput{
			Description: "t", Amount: amount, Date: time.Now(),
			CategoryID: food.ID, PaymentMethodID: cash.ID,
		})
		require.NoError(t, err)
		ids = append(ids, tx.ID)
	}

	summary, err := svc.Summary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, &domain.Summary{Balance: 1800, Count: 3, Income: 2000, Expense: -200}, summary)

	assert.ErrorIs(t, svc.Delete(ctx, 2, ids[0]), domain.ErrTransactionNotFound, "other users cannot delete")
	require.NoError(t, svc.Delete(ctx, 1, ids[0]))
	assert.ErrorIs(t, svc.Delete(ctx, 1, ids[0]), domain.ErrTransactionNotFound)

	summary, err = svc.Summary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Count)
	assert.Equal(t, float64(-200), summary.Balance)
}

func TestCategoryService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := NewCategoryService(memory.NewStore().Categories())

	c, err := svc.Create(ctx, 1, ports.CreateCategoryInput{Name: "  Fun "})
	require.NoError(t, err)
	assert.Equal(t, "Fun", c.Name)

	assert.ErrorIs(t, svc.Delete(ctx, 2, c.ID), domain.ErrCategoryNotFound)
	require.NoError(t, svc.Delete(ctx, 1, c.ID))

	list, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPaymentMethodService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := NewPaymentMethodService(memory.NewStore().PaymentMethods())

	m, err := svc.Create(ctx, 1, "Pix")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Delete(ctx, 1, m.ID+1), domain.ErrPaymentMethodNotFound)
	require.NoError(t, svc.Delete(ctx, 1, m.ID))
}
