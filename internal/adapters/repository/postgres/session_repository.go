package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/fintrack/internal/core/domain"
	"github.com/vncsmyrnk/fintrack/internal/core/ports"
	"github.com/vncsmyrnk/fintrack/internal/dbx"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) ports.SessionRepository {
	return &SessionRepository{db: db}
}

// Replace upserts on the user_id unique key, so concurrent logins of one
// user always leave a single row behind.
func (r *SessionRepository) Replace(ctx context.Context, session *domain.RefreshSession) error {
	query := `
		INSERT INTO refresh_sessions (id, user_id, expires_in)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET id = EXCLUDED.id, expires_in = EXCLUDED.expires_in
	`
	_, err := r.db.ExecContext(ctx, query, session.ID, session.UserID, session.ExpiresIn)
	return err
}

func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RefreshSession, error) {
	query := `SELECT id, user_id, expires_in FROM refresh_sessions WHERE id = $1`
	session := &domain.RefreshSession{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&session.ID, &session.UserID, &session.ExpiresIn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

// Rotate moves the session at oldID to newID. The row is locked first so two
// refreshes racing on the same id cannot both succeed.
func (r *SessionRepository) Rotate(ctx context.Context, oldID, newID uuid.UUID) (*domain.RefreshSession, error) {
	session := &domain.RefreshSession{ID: newID}

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		err := tx.QueryRowContext(ctx,
			`SELECT user_id, expires_in FROM refresh_sessions WHERE id = $1 FOR UPDATE`, oldID,
		).Scan(&session.UserID, &session.ExpiresIn)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrSessionNotFound
			}
			return err
		}

		_, err = tx.ExecContext(ctx, `UPDATE refresh_sessions SET id = $1 WHERE id = $2`, newID, oldID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE id = $1`, id)
	return err
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE expires_in < $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
