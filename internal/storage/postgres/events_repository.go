package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gatherly/server/internal/domain/events"
	"github.com/jackc/pgx/v5"
)

var _ events.Repository = (*EventRepository)(nil)

const eventColumns = `e.id, e.ulid, e.title, e.event_date, to_char(e.event_time, 'HH24:MI'), e.location, e.description, e.created_at`

func (r *EventRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO events (id, ulid, title, event_date, event_time, location, description, created_at)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, now())
RETURNING id, created_at
`, params.ULID, params.Title, params.Date, params.Time, params.Location, params.Description)

	event := events.Event{
		ULID:        params.ULID,
		Title:       params.Title,
		Date:        params.Date,
		Time:        params.Time,
		Location:    params.Location,
		Description: params.Description,
	}
	if err := row.Scan(&event.ID, &event.CreatedAt); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return &event, nil
}

func (r *EventRepository) List(ctx context.Context) ([]events.Event, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+eventColumns+`
  FROM events e
 ORDER BY e.event_date ASC, e.event_time ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListBetween returns events dated within the closed interval [from, to].
func (r *EventRepository) ListBetween(ctx context.Context, from, to time.Time) ([]events.Event, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+eventColumns+`
  FROM events e
 WHERE e.event_date >= $1::date
   AND e.event_date <= $2::date
 ORDER BY e.event_date ASC, e.event_time ASC
`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list events between: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *EventRepository) GetByULID(ctx context.Context, ulid string) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT `+eventColumns+`
  FROM events e
 WHERE e.ulid = $1
`, ulid)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// CreateRegistration inserts into the (user_id, event_id) join table. The
// unique index is the source of truth for the at-most-once invariant:
// concurrent inserts for the same pair lose the race here, not in an
// application-level existence check.
func (r *EventRepository) CreateRegistration(ctx context.Context, userID, eventID string) error {
	_, err := r.queryer().Exec(ctx, `
INSERT INTO registration_event_users (user_id, event_id, created_at)
VALUES ($1, $2, now())
`, userID, eventID)
	if err != nil {
		if isUniqueViolation(err) {
			return events.ErrAlreadyRegistered
		}
		if isForeignKeyViolation(err) {
			return events.ErrNotFound
		}
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

func (r *EventRepository) ListRegistered(ctx context.Context, userID string) ([]events.Event, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+eventColumns+`
  FROM events e
  JOIN registration_event_users reg ON reg.event_id = e.id
 WHERE reg.user_id = $1
 ORDER BY e.event_date ASC, e.event_time ASC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list registered events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]events.Event, error) {
	items := make([]events.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return items, nil
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var event events.Event
	if err := row.Scan(
		&event.ID,
		&event.ULID,
		&event.Title,
		&event.Date,
		&event.Time,
		&event.Location,
		&event.Description,
		&event.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &event, nil
}
