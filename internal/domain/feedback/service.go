package feedback

import (
	"context"
	"unicode/utf8"

	"github.com/gatherly/server/internal/domain/events"
	"github.com/rs/zerolog"
)

// EventResolver looks up events by their public identifier. Satisfied by
// *events.Service.
type EventResolver interface {
	GetByULID(ctx context.Context, ulid string) (*events.Event, error)
}

type Service struct {
	repo   Repository
	events EventResolver
	logger zerolog.Logger
}

func NewService(repo Repository, resolver EventResolver, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		events: resolver,
		logger: logger.With().Str("component", "feedback").Logger(),
	}
}

// Submit records feedback from userID on the event identified by eventULID.
// Any authenticated user may submit feedback for any existing event, and
// resubmission inserts a new row rather than replacing the previous one.
// Returns events.ErrNotFound when the event does not exist.
func (s *Service) Submit(ctx context.Context, userID, eventULID string, rating int, comment *string) (*Feedback, error) {
	if rating < MinRating || rating > MaxRating {
		return nil, ErrInvalidRating
	}
	// characters, not bytes, to match the API-layer limit
	if comment != nil && utf8.RuneCountInString(*comment) > MaxCommentLength {
		return nil, ErrCommentTooLong
	}

	event, err := s.events.GetByULID(ctx, eventULID)
	if err != nil {
		return nil, err
	}

	entry, err := s.repo.Create(ctx, CreateParams{
		UserID:  userID,
		EventID: event.ID,
		Rating:  rating,
		Comment: comment,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("event_ulid", event.ULID).
		Int("rating", rating).
		Msg("feedback submitted")
	return entry, nil
}

// ListForEvent returns all feedback for the event, newest first, with the
// submitter's name resolved. An event with no feedback yields an empty
// slice, not an error; an unknown event yields events.ErrNotFound.
func (s *Service) ListForEvent(ctx context.Context, eventULID string) ([]Entry, error) {
	event, err := s.events.GetByULID(ctx, eventULID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListForEvent(ctx, event.ID)
}
