package postgres

import (
	"context"
	"database/sql"

	"github.com/vncsmyrnk/fintrack/internal/core/domain"
	"github.com/vncsmyrnk/fintrack/internal/core/ports"
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) ports.TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Transaction, error) {
	query := `
		SELECT t.id, t.description, t.amount::float8, t.date, t.user_id, t.created_at,
		       c.id, c.name, p.id, p.name
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		JOIN payment_methods p ON p.id = t.payment_method_id
		WHERE t.user_id = $1
		ORDER BY t.date DESC, t.id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []*domain.Transaction{}
	for rows.Next() {
		tx := &domain.Transaction{Category: &domain.Reference{}, PaymentMethod: &domain.Reference{}}
		err := rows.Scan(
			&tx.ID,
			&tx.Description,
			&tx.Amount,
			&tx.Date,
			&tx.UserID,
			&tx.CreatedAt,
			&tx.Category.ID,
			&tx.Category.Name,
			&tx.PaymentMethod.ID,
			&tx.PaymentMethod.Name,
		)
		if err != nil {
			return nil, err
		}
		tx.CategoryID = tx.Category.ID
		tx.PaymentMethodID = tx.PaymentMethod.ID
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (description, amount, date, category_id, payment_method_id, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		tx.Description, tx.Amount, tx.Date, tx.CategoryID, tx.PaymentMethodID, tx.UserID,
	).Scan(&tx.ID, &tx.CreatedAt)
}

func (r *TransactionRepository) Delete(ctx context.Context, userID, id int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *TransactionRepository) Summarize(ctx context.Context, userID int64) (*domain.Summary, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)::float8,
		       COUNT(*),
		       COALESCE(SUM(amount) FILTER (WHERE amount > 0), 0)::float8,
		       COALESCE(SUM(amount) FILTER (WHERE amount < 0), 0)::float8
		FROM transactions
		WHERE user_id = $1
	`
	s := &domain.Summary{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.Balance, &s.Count, &s.Income, &s.Expense)
	if err != nil {
		return nil, err
	}
	return s, nil
}
