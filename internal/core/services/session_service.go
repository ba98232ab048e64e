package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/fintrack/internal/core/domain"
	"github.com/vncsmyrnk/fintrack/internal/core/ports"
)

// DefaultSessionTTL is how long a refresh session stays valid after login.
const DefaultSessionTTL = 30 * 24 * time.Hour

type SessionOption func(*SessionService)

// WithSessionTTL overrides DefaultSessionTTL.
func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(s *SessionService) { s.ttl = ttl }
}

// WithRotation makes every successful Refresh move the session to a new id.
// The expiry is kept, so rotation never extends a session.
func WithRotation(enabled bool) SessionOption {
	return func(s *SessionService) { s.rotate = enabled }
}

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionService) { s.now = now }
}

type SessionService struct {
	repo   ports.SessionRepository
	tokens ports.TokenIssuer
	ttl    time.Duration
	rotate bool
	now    func() time.Time
}

func NewSessionService(repo ports.SessionRepository, tokens ports.TokenIssuer, opts ...SessionOption) *SessionService {
	s := &SessionService{
		repo:   repo,
		tokens: tokens,
		ttl:    DefaultSessionTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSession replaces any session the user already has with a fresh one.
// Only one live session per user exists, so a login on one device signs the
// others out at their next refresh.
func (s *SessionService) StartSession(ctx context.Context, userID int64) (*domain.RefreshSession, error) {
	session := &domain.RefreshSession{
		ID:        uuid.New(),
		UserID:    userID,
		ExpiresIn: s.now().Add(s.ttl).Unix(),
	}

	if err := s.repo.Replace(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store refresh session: %w", err)
	}

	return session, nil
}

// Refresh exchanges a session id for a new access token.
func (s *SessionService) Refresh(ctx context.Context, sessionID string) (*ports.RefreshResult, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}

	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh session: %w", err)
	}
	if session == nil {
		return nil, domain.ErrSessionNotFound
	}

	if session.Expired(s.now()) {
		return nil, domain.ErrSessionExpired
	}

	if s.rotate {
		session, err = s.repo.Rotate(ctx, session.ID, uuid.New())
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to rotate refresh session: %w", err)
		}
	}

	token, err := s.tokens.Issue(session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &ports.RefreshResult{Token: token, Session: session}, nil
}

// Revoke deletes the session. Unknown or malformed ids are not an error.
func (s *SessionService) Revoke(ctx context.Context, sessionID string) error {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to revoke refresh session: %w", err)
	}
	return nil
}

// SweepExpired removes sessions that can no longer be refreshed.
func (s *SessionService) SweepExpired(ctx context.Context) (int64, error) {
	return NewSessionSweeper(s.repo, s.now).SweepExpired(ctx)
}

// SessionSweeper deletes expired refresh sessions. Unlike SessionService it
// needs no token issuer, so housekeeping jobs can run without a signing key.
type SessionSweeper struct {
	repo ports.SessionRepository
	now  func() time.Time
}

// NewSessionSweeper uses time.Now when now is nil.
func NewSessionSweeper(repo ports.SessionRepository, now func() time.Time) *SessionSweeper {
	if now == nil {
		now = time.Now
	}
	return &SessionSweeper{repo: repo, now: now}
}

func (s *SessionSweeper) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return n, nil
}
