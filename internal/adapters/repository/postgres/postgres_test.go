package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/fintrack/internal/core/domain"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func TestUserRepository_Create(t *testing.T) {
	q := `(?s)^INSERT\s+INTO\s+users\s*\(name,\s*email,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id,\s*created_at$`

	t.Run("success", func(t *testing.T) {
		db, mock := newMock(t)
		now := time.Now()
		mock.ExpectQuery(q).
			WithArgs("Ann", "ann@example.com", "hash").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))

		user := &domain.User{Name: "Ann", Email: "ann@example.com", PasswordHash: "hash"}
		require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
		assert.Equal(t, int64(7), user.ID)
		assert.Equal(t, now, user.CreatedAt)
	})

	t.Run("unique violation", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q).
			WithArgs("Ann", "ann@example.com", "hash").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

		err := NewUserRepository(db).Create(context.Background(), &domain.User{Name: "Ann", Email: "ann@example.com", PasswordHash: "hash"})
		assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	})

	t.Run("other error", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q).WillReturnError(errors.New("db down"))

		err := NewUserRepository(db).Create(context.Background(), &domain.User{})
		assert.EqualError(t, err, "db down")
	})
}

func TestUserRepository_GetByEmail(t *testing.T) {
	q := `(?s)^SELECT\s+id,\s*name,\s*email,\s*password_hash,\s*created_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`

	t.Run("found", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q).
			WithArgs("ann@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at"}).
				AddRow(int64(1), "Ann", "ann@example.com", "hash", time.Now()))

		user, err := NewUserRepository(db).GetByEmail(context.Background(), "ann@example.com")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "hash", user.PasswordHash)
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q).WithArgs("ghost@example.com").WillReturnError(sql.ErrNoRows)

		user, err := NewUserRepository(db).GetByEmail(context.Background(), "ghost@example.com")
		require.NoError(t, err)
		assert.Nil(t, user)
	})
}

func TestSessionRepository_Replace(t *testing.T) {
	db, mock := newMock(t)
	session := &domain.RefreshSession{ID: uuid.New(), UserID: 3, ExpiresIn: 1700000000}

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+refresh_sessions.*ON\s+CONFLICT\s+\(user_id\)\s+DO\s+UPDATE\s+SET\s+id\s*=\s*EXCLUDED\.id,\s*expires_in\s*=\s*EXCLUDED\.expires_in`).
		WithArgs(session.ID, session.UserID, session.ExpiresIn).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewSessionRepository(db).Replace(context.Background(), session))
}

func TestSessionRepository_GetByID(t *testing.T) {
	q := `(?s)^SELECT\s+id,\s*user_id,\s*expires_in\s+FROM\s+refresh_sessions\s+WHERE\s+id\s*=\s*\$1$`
	id := uuid.New()

	t.Run("found", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q).WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "expires_in"}).AddRow(id.String(), int64(3), int64(99)))

		session, err := NewSessionRepository(db).GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, &domain.RefreshSession{ID: id, UserID: 3, ExpiresIn: 99}, session)
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q).WithArgs(id).WillReturnError(sql.ErrNoRows)

		session, err := NewSessionRepository(db).GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Nil(t, session)
	})
}

func TestSessionRepository_Rotate(t *testing.T) {
	selectQ := `(?s)^SELECT\s+user_id,\s*expires_in\s+FROM\s+refresh_sessions\s+WHERE\s+id\s*=\s*\$1\s+FOR\s+UPDATE$`
	updateQ := `(?s)^UPDATE\s+refresh_sessions\s+SET\s+id\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2$`
	oldID, newID := uuid.New(), uuid.New()

	t.Run("success", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(selectQ).WithArgs(oldID).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_in"}).AddRow(int64(5), int64(123)))
		mock.ExpectExec(updateQ).WithArgs(newID, oldID).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		session, err := NewSessionRepository(db).Rotate(context.Background(), oldID, newID)
		require.NoError(t, err)
		assert.Equal(t, &domain.RefreshSession{ID: newID, UserID: 5, ExpiresIn: 123}, session)
	})

	t.Run("already consumed", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(selectQ).WithArgs(oldID).WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := NewSessionRepository(db).Rotate(context.Background(), oldID, newID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+refresh_sessions\s+WHERE\s+expires_in\s*<\s*\$1$`).
		WithArgs(int64(1000)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := NewSessionRepository(db).DeleteExpired(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestCategoryRepository_ListByUser(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(`(?s)FROM\s+categories\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+name\s+ASC$`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "color", "user_id", "created_at"}).
			AddRow(int64(1), "Food", "#f00", int64(1), now).
			AddRow(int64(2), "Rent", "", int64(1), now))

	list, err := NewCategoryRepository(db).ListByUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "#f00", list[0].Color)
	assert.Empty(t, list[1].Color)
}

func TestCategoryRepository_DeleteScopedToUser(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+categories\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2$`).
		WithArgs(int64(10), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := NewCategoryRepository(db).Delete(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPaymentMethodRepository_GetByID(t *testing.T) {
	q := `(?s)FROM\s+payment_methods\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2$`

	db, mock := newMock(t)
	mock.ExpectQuery(q).WithArgs(int64(4), int64(2)).WillReturnError(sql.ErrNoRows)

	m, err := NewPaymentMethodRepository(db).GetByID(context.Background(), 2, 4)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestTransactionRepository_ListByUser(t *testing.T) {
	db, mock := newMock(t)
	date := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)FROM\s+transactions\s+t.*JOIN\s+categories.*JOIN\s+payment_methods.*WHERE\s+t\.user_id\s*=\s*\$1\s+ORDER\s+BY\s+t\.date\s+DESC`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "description", "amount", "date", "user_id", "created_at", "c_id", "c_name", "p_id", "p_name",
		}).AddRow(int64(9), "Lunch", -12.5, date, int64(1), date, int64(2), "Food", int64(3), "Card"))

	txs, err := NewTransactionRepository(db).ListByUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, int64(2), txs[0].CategoryID)
	assert.Equal(t, &domain.Reference{ID: 3, Name: "Card"}, txs[0].PaymentMethod)
	assert.Equal(t, -12.5, txs[0].Amount)
}

func TestTransactionRepository_Summarize(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`(?s)SUM\(amount\)\s+FILTER\s+\(WHERE\s+amount\s*>\s*0\).*FROM\s+transactions\s+WHERE\s+user_id\s*=\s*\$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"balance", "count", "income", "expense"}).AddRow(1800.0, int64(3), 2000.0, -200.0))

	s, err := NewTransactionRepository(db).Summarize(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, &domain.Summary{Balance: 1800, Count: 3, Income: 2000, Expense: -200}, s)
}

func TestMigrate_UsesEmbeddedDir(t *testing.T) {
	db, _ := newMock(t)

	var gotCommand, gotDir string
	orig := gooseRun
	gooseRun = func(_ context.Context, command string, _ *sql.DB, dir string, _ ...string) error {
		gotCommand, gotDir = command, dir
		return nil
	}
	t.Cleanup(func() { gooseRun = orig })

	require.NoError(t, Migrate(context.Background(), db, "up"))
	assert.Equal(t, "up", gotCommand)
	assert.Equal(t, "migrations", gotDir)

	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestMigrate_WrapsError(t *testing.T) {
	db, _ := newMock(t)

	orig := gooseRun
	gooseRun = func(context.Context, string, *sql.DB, string, ...string) error {
		return errors.New("no such table")
	}
	t.Cleanup(func() { gooseRun = orig })

	err := Migrate(context.Background(), db, "down")
	assert.EqualError(t, err, "goose down: no such table")
}
