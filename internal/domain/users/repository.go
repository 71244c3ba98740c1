package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
)

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// Session backs a bearer token. Deleting a session revokes every token
// minted against it.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type CreateParams struct {
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	CreateSession(ctx context.Context, userID string, expiresAt time.Time) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSessionsForUser(ctx context.Context, userID string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}
