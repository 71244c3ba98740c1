package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// queryer is satisfied by both *pgxpool.Pool and pgx.Tx so repositories can
// run inside or outside a transaction.
type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository bundles the per-entity repositories over one connection pool.
type Repository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Users() *UserRepository {
	return &UserRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Events() *EventRepository {
	return &EventRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Feedback() *FeedbackRepository {
	return &FeedbackRepository{pool: r.pool, tx: r.tx}
}

// WithTx runs fn against a repository bound to a single transaction,
// committing when fn returns nil and rolling back otherwise.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, *Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := &Repository{pool: r.pool, tx: tx}
	if err := fn(ctx, wrapped); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type UserRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

type EventRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

type FeedbackRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}
