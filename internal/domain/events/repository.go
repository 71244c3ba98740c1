package events

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("event not found")

// ErrAlreadyRegistered is returned when a user attempts to register for an
// event they already hold a registration for. The persistence layer maps a
// unique-index violation on (user_id, event_id) to this error, so concurrent
// registration attempts resolve to the same outcome as sequential ones.
var ErrAlreadyRegistered = errors.New("already registered for event")

type Event struct {
	ID          string
	ULID        string
	Title       string
	Date        time.Time
	Time        string
	Location    *string
	Description *string
	CreatedAt   time.Time
}

type CreateParams struct {
	ULID        string
	Title       string
	Date        time.Time
	Time        string
	Location    *string
	Description *string
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Event, error)
	List(ctx context.Context) ([]Event, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]Event, error)
	GetByULID(ctx context.Context, ulid string) (*Event, error)
	CreateRegistration(ctx context.Context, userID, eventID string) error
	ListRegistered(ctx context.Context, userID string) ([]Event, error)
}
