package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vncsmyrnk/fintrack/internal/core/domain"
	"github.com/vncsmyrnk/fintrack/internal/core/ports"
)

type PaymentMethodRepository struct {
	db *sql.DB
}

func NewPaymentMethodRepository(db *sql.DB) ports.PaymentMethodRepository {
	return &PaymentMethodRepository{db: db}
}

func (r *PaymentMethodRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.PaymentMethod, error) {
	query := `SELECT id, name, user_id, created_at FROM payment_methods WHERE user_id = $1 ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	methods := []*domain.PaymentMethod{}
	for rows.Next() {
		m := &domain.PaymentMethod{}
		if err := rows.Scan(&m.ID, &m.Name, &m.UserID, &m.CreatedAt); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

func (r *PaymentMethodRepository) GetByID(ctx context.Context, userID, id int64) (*domain.PaymentMethod, error) {
	query := `SELECT id, name, user_id, created_at FROM payment_methods WHERE id = $1 AND user_id = $2`
	m := &domain.PaymentMethod{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(&m.ID, &m.Name, &m.UserID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func (r *PaymentMethodRepository) Create(ctx context.Context, method *domain.PaymentMethod) error {
	query := `INSERT INTO payment_methods (name, user_id) VALUES ($1, $2) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, method.Name, method.UserID).Scan(&method.ID, &method.CreatedAt)
}

func (r *PaymentMethodRepository) Delete(ctx context.Context, userID, id int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payment_methods WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
