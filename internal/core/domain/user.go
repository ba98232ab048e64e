package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RefreshSession backs the refreshToken cookie. ExpiresIn is an absolute
// Unix timestamp in seconds.
type RefreshSession struct {
	ID        uuid.UUID `json:"id"`
	UserID    int64     `json:"userId"`
	ExpiresIn int64     `json:"expiresIn"`
}

// Expired reports whether the session is past its expiry at now.
func (s *RefreshSession) Expired(now time.Time) bool {
	return now.Unix() > s.ExpiresIn
}
