package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gatherly/server/internal/domain/users"
	"github.com/jackc/pgx/v5"
)

var _ users.Repository = (*UserRepository)(nil)

func (r *UserRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func (r *UserRepository) Create(ctx context.Context, params users.CreateParams) (*users.User, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO users (id, name, email, password_hash, role, created_at)
VALUES (gen_random_uuid(), $1, $2, $3, $4, now())
RETURNING id, created_at
`, params.Name, params.Email, params.PasswordHash, params.Role)

	user := users.User{
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
	}
	if err := row.Scan(&user.ID, &user.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, users.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.getUser(ctx, `
SELECT id, name, email, password_hash, role, created_at
  FROM users
 WHERE email = $1
`, email)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.getUser(ctx, `
SELECT id, name, email, password_hash, role, created_at
  FROM users
 WHERE id = $1
`, id)
}

func (r *UserRepository) getUser(ctx context.Context, query string, arg any) (*users.User, error) {
	row := r.queryer().QueryRow(ctx, query, arg)

	var user users.User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) CreateSession(ctx context.Context, userID string, expiresAt time.Time) (*users.Session, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO sessions (id, user_id, expires_at, created_at)
VALUES (gen_random_uuid(), $1, $2, now())
RETURNING id, created_at
`, userID, expiresAt)

	session := users.Session{UserID: userID, ExpiresAt: expiresAt}
	if err := row.Scan(&session.ID, &session.CreatedAt); err != nil {
		if isForeignKeyViolation(err) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &session, nil
}

func (r *UserRepository) GetSession(ctx context.Context, id string) (*users.Session, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT id, user_id, expires_at, created_at
  FROM sessions
 WHERE id = $1
`, id)

	var session users.Session
	if err := row.Scan(&session.ID, &session.UserID, &session.ExpiresAt, &session.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrInvalidSession
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &session, nil
}

func (r *UserRepository) DeleteSessionsForUser(ctx context.Context, userID string) error {
	if _, err := r.queryer().Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}

func (r *UserRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM sessions WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
