package postgres

import (
	"context"
	"fmt"

	"github.com/gatherly/server/internal/domain/feedback"
)

var _ feedback.Repository = (*FeedbackRepository)(nil)

func (r *FeedbackRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func (r *FeedbackRepository) Create(ctx context.Context, params feedback.CreateParams) (*feedback.Feedback, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO feedback (id, user_id, event_id, rating, comment, created_at)
VALUES (gen_random_uuid(), $1, $2, $3, $4, now())
RETURNING id, created_at
`, params.UserID, params.EventID, params.Rating, params.Comment)

	entry := feedback.Feedback{
		UserID:  params.UserID,
		EventID: params.EventID,
		Rating:  params.Rating,
		Comment: params.Comment,
	}
	if err := row.Scan(&entry.ID, &entry.CreatedAt); err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("create feedback: unknown user or event: %w", err)
		}
		return nil, fmt.Errorf("create feedback: %w", err)
	}
	return &entry, nil
}

func (r *FeedbackRepository) ListForEvent(ctx context.Context, eventID string) ([]feedback.Entry, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT f.id, f.user_id, f.event_id, f.rating, f.comment, f.created_at, u.name
  FROM feedback f
  JOIN users u ON u.id = f.user_id
 WHERE f.event_id = $1
 ORDER BY f.created_at DESC
`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	entries := make([]feedback.Entry, 0)
	for rows.Next() {
		var entry feedback.Entry
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.EventID,
			&entry.Rating,
			&entry.Comment,
			&entry.CreatedAt,
			&entry.StudentName,
		); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}
	return entries, nil
}
