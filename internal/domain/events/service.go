package events

import (
	"context"
	"fmt"
	"time"

	"github.com/gatherly/server/internal/domain/ids"
	"github.com/rs/zerolog"
)

// UpcomingWindowDays is the forward-looking window used by ListUpcoming.
// The window is a closed interval: events falling exactly on the boundary
// day are included.
const UpcomingWindowDays = 30

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "events").Logger(),
	}
}

type CreateInput struct {
	Title       string
	Date        time.Time
	Time        string
	Location    *string
	Description *string
}

// Create stores a new event with a freshly minted ULID as its public
// identifier. Callers are expected to have authorized the actor already.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Event, error) {
	ulid, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint event ulid: %w", err)
	}

	event, err := s.repo.Create(ctx, CreateParams{
		ULID:        ulid,
		Title:       input.Title,
		Date:        input.Date,
		Time:        input.Time,
		Location:    input.Location,
		Description: input.Description,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("event_ulid", event.ULID).
		Str("title", event.Title).
		Msg("event created")
	return event, nil
}

func (s *Service) List(ctx context.Context) ([]Event, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetByULID(ctx context.Context, ulid string) (*Event, error) {
	if err := ids.ValidateULID(ulid); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.GetByULID(ctx, ids.Normalize(ulid))
}

// ListUpcoming returns events dated within [today, today+30d], ordered by
// date ascending. The bounds are computed from now in UTC, truncated to the
// day so that an event later today still counts as upcoming.
func (s *Service) ListUpcoming(ctx context.Context, now time.Time) ([]Event, error) {
	year, month, day := now.UTC().Date()
	from := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, UpcomingWindowDays)
	return s.repo.ListBetween(ctx, from, to)
}

// Register records that userID intends to attend the event identified by
// eventULID. Registering twice is not an error at the domain level: the
// caller receives ErrAlreadyRegistered and maps it to a conflict response.
func (s *Service) Register(ctx context.Context, userID, eventULID string) error {
	event, err := s.GetByULID(ctx, eventULID)
	if err != nil {
		return err
	}

	if err := s.repo.CreateRegistration(ctx, userID, event.ID); err != nil {
		return err
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("event_ulid", event.ULID).
		Msg("user registered for event")
	return nil
}

// ListRegistered returns the events userID has registered for.
func (s *Service) ListRegistered(ctx context.Context, userID string) ([]Event, error) {
	return s.repo.ListRegistered(ctx, userID)
}
