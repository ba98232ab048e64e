package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vncsmyrnk/fintrack/internal/core/domain"
	"github.com/vncsmyrnk/fintrack/internal/core/ports"
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) ports.CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Category, error) {
	query := `SELECT id, name, COALESCE(color, ''), user_id, created_at FROM categories WHERE user_id = $1 ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		c := &domain.Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.UserID, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) GetByID(ctx context.Context, userID, id int64) (*domain.Category, error) {
	query := `SELECT id, name, COALESCE(color, ''), user_id, created_at FROM categories WHERE id = $1 AND user_id = $2`
	c := &domain.Category{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(&c.ID, &c.Name, &c.Color, &c.UserID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `INSERT INTO categories (name, color, user_id) VALUES ($1, NULLIF($2, ''), $3) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, category.Name, category.Color, category.UserID).Scan(&category.ID, &category.CreatedAt)
}

func (r *CategoryRepository) Delete(ctx context.Context, userID, id int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
