package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/fintrack/internal/core/domain"
)

type SessionRepository interface {
	// Replace stores session as the only session of session.UserID, removing
	// any previous one in the same statement.
	Replace(ctx context.Context, session *domain.RefreshSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.RefreshSession, error)
	// Rotate moves the session stored under oldID to newID. It returns
	// domain.ErrSessionNotFound when oldID no longer exists.
	Rotate(ctx context.Context, oldID, newID uuid.UUID) (*domain.RefreshSession, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now int64) (int64, error)
}

type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

type RefreshResult struct {
	Token   string
	Session *domain.RefreshSession
}

type SessionService interface {
	StartSession(ctx context.Context, userID int64) (*domain.RefreshSession, error)
	Refresh(ctx context.Context, sessionID string) (*RefreshResult, error)
	Revoke(ctx context.Context, sessionID string) error
	SweepExpired(ctx context.Context) (int64, error)
}
