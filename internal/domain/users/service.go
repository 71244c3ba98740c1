package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gatherly/server/internal/auth"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultRole is assigned to self-registered accounts.
	DefaultRole = string(auth.RoleAttendee)

	// BcryptCost is the cost factor for bcrypt password hashing.
	BcryptCost = 12
)

// Service handles account registration and the credential lifecycle:
// password hashing, token issuance at login, and revocation at logout.
type Service struct {
	repo   Repository
	tokens *auth.JWTManager
	logger zerolog.Logger
}

func NewService(repo Repository, tokens *auth.JWTManager, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		logger: logger.With().Str("component", "users").Logger(),
	}
}

type RegisterParams struct {
	Name     string
	Email    string
	Password string
}

// Register creates a new attendee account. The email is lowercased before
// storage so the unique index also catches case-variant duplicates.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, CreateParams{
		Name:         strings.TrimSpace(params.Name),
		Email:        strings.ToLower(strings.TrimSpace(params.Email)),
		PasswordHash: string(hash),
		Role:         DefaultRole,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

// GetByID returns the account with the given id.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}

// Login verifies the credentials, opens a session, and issues a bearer
// token bound to it. Unknown emails and wrong passwords both collapse into
// ErrInvalidCredentials so the response does not leak which one it was.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	session, err := s.repo.CreateSession(ctx, user.ID, time.Now().Add(s.tokens.TTL()))
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, expiresAt, err := s.tokens.Generate(user.ID, user.Role, session.ID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Logout revokes every session the user holds, invalidating all of their
// outstanding tokens at once.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.repo.DeleteSessionsForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	s.logger.Info().Str("user_id", userID).Msg("user logged out")
	return nil
}

// ValidateToken resolves a bearer token to an Identity. The token must be
// well formed, unexpired, and its session must still exist.
func (s *Service) ValidateToken(ctx context.Context, token string) (*auth.Identity, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, ErrInvalidSession
	}

	session, err := s.repo.GetSession(ctx, claims.ID)
	if err != nil {
		return nil, ErrInvalidSession
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, ErrInvalidSession
	}
	if session.UserID != claims.Subject {
		return nil, ErrInvalidSession
	}

	return &auth.Identity{UserID: claims.Subject, Role: claims.Role}, nil
}

// PurgeExpiredSessions deletes sessions past their expiry. Run from the
// cleanup command, not from a background worker.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	if deleted > 0 {
		s.logger.Info().Int64("deleted", deleted).Msg("expired sessions purged")
	}
	return deleted, nil
}
