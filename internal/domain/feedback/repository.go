package feedback

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrCommentTooLong = errors.New("comment must be at most 255 characters")
)

const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 255
)

type Feedback struct {
	ID        string
	UserID    string
	EventID   string
	Rating    int
	Comment   *string
	CreatedAt time.Time
}

// Entry is a feedback row joined with the submitting user's display name,
// the shape the retrieval endpoint serves.
type Entry struct {
	Feedback
	StudentName string
}

type CreateParams struct {
	UserID  string
	EventID string
	Rating  int
	Comment *string
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Feedback, error)
	ListForEvent(ctx context.Context, eventID string) ([]Entry, error)
}
