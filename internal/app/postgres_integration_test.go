package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/vncsmyrnk/fintrack/internal/client"
)

func setupPostgresContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("fintrack"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

func TestPostgres_FullFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	cfg := testConfig(setupPostgresContainer(t))
	cfg.Auth.RotateRefreshToken = true
	cfg.Auth.RevokeOnLogout = true

	clk := &clock{t: time.Now()}
	a, server := newServer(t, cfg, clk.Now)

	expired := 0
	c := newClient(t, server, func() { expired++ })
	ctx := context.Background()

	_, err := c.Register(ctx, "Ana", "Ana@Example.com", "secret123")
	require.NoError(t, err)
	_, err = c.Register(ctx, "Ana", "ana@example.com", "secret123")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Email already in use.", apiErr.Message)

	_, err = c.Login(ctx, "ana@example.com", "secret123", true)
	require.NoError(t, err)

	food, err := c.CreateCategory(ctx, "Food", "")
	require.NoError(t, err)
	card, err := c.CreatePaymentMethod(ctx, "Card")
	require.NoError(t, err)

	for _, tx := range []client.NewTransaction{
		{Description: "Salary", Amount: 2000, Date: "2025-03-01", CategoryID: food.ID, PaymentMethodID: card.ID},
		{Description: "Groceries", Amount: -150.5, Date: "2025-03-02T10:00:00Z", CategoryID: food.ID, PaymentMethodID: card.ID},
	} {
		_, err := c.CreateTransaction(ctx, tx)
		require.NoError(t, err)
	}

	clk.Advance(20 * time.Minute)

	summary, err := c.Summary(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1849.5, summary.Balance, 0.001)
	assert.InDelta(t, 2000, summary.Income, 0.001)
	assert.InDelta(t, -150.5, summary.Expense, 0.001)
	assert.Equal(t, int64(2), summary.Count)

	txs, err := c.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "Groceries", txs[0].Description)
	require.NotNil(t, txs[0].Category)
	assert.Equal(t, "Food", txs[0].Category.Name)

	require.NoError(t, c.DeleteTransaction(ctx, txs[0].ID))
	err = c.DeleteTransaction(ctx, txs[0].ID)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Transaction not found", apiErr.Message)

	require.NoError(t, c.Logout(ctx))
	clk.Advance(20 * time.Minute)

	n, err := a.Sessions.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "logout already removed the session")
	assert.Zero(t, expired)
}
