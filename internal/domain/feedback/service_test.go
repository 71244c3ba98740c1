package feedback

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gatherly/server/internal/domain/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFeedbackRepo struct {
	entries []Entry
	nextID  int
}

func (r *stubFeedbackRepo) Create(_ context.Context, params CreateParams) (*Feedback, error) {
	r.nextID++
	entry := Entry{
		Feedback: Feedback{
			ID:        strconv.Itoa(r.nextID),
			UserID:    params.UserID,
			EventID:   params.EventID,
			Rating:    params.Rating,
			Comment:   params.Comment,
			CreatedAt: time.Now(),
		},
		StudentName: "Test User",
	}
	r.entries = append(r.entries, entry)
	return &entry.Feedback, nil
}

func (r *stubFeedbackRepo) ListForEvent(_ context.Context, eventID string) ([]Entry, error) {
	out := make([]Entry, 0)
	for _, entry := range r.entries {
		if entry.EventID == eventID {
			out = append(out, entry)
		}
	}
	return out, nil
}

var _ Repository = (*stubFeedbackRepo)(nil)

type stubResolver struct {
	known map[string]*events.Event
}

func (r *stubResolver) GetByULID(_ context.Context, ulid string) (*events.Event, error) {
	if event, ok := r.known[ulid]; ok {
		return event, nil
	}
	return nil, events.ErrNotFound
}

const knownULID = "01HQZX5J8N9P2R4T6V8W0Y2A4C"

func newTestFeedbackService(repo *stubFeedbackRepo) *Service {
	resolver := &stubResolver{known: map[string]*events.Event{
		knownULID: {ID: "1", ULID: knownULID, Title: "Launch Party"},
	}}
	return NewService(repo, resolver, zerolog.Nop())
}

func TestSubmit(t *testing.T) {
	repo := &stubFeedbackRepo{}
	service := newTestFeedbackService(repo)

	comment := "Great event"
	entry, err := service.Submit(context.Background(), "user-1", knownULID, 5, &comment)
	require.NoError(t, err)
	assert.Equal(t, 5, entry.Rating)
	assert.Equal(t, "1", entry.EventID)
}

func TestSubmitRatingBounds(t *testing.T) {
	service := newTestFeedbackService(&stubFeedbackRepo{})
	ctx := context.Background()

	for _, rating := range []int{0, -1, 6, 100} {
		_, err := service.Submit(ctx, "user-1", knownULID, rating, nil)
		require.ErrorIs(t, err, ErrInvalidRating, "rating %d should be rejected", rating)
	}
	for _, rating := range []int{MinRating, MaxRating} {
		_, err := service.Submit(ctx, "user-1", knownULID, rating, nil)
		require.NoError(t, err, "rating %d should be accepted", rating)
	}
}

func TestSubmitCommentTooLong(t *testing.T) {
	service := newTestFeedbackService(&stubFeedbackRepo{})

	long := strings.Repeat("a", MaxCommentLength+1)
	_, err := service.Submit(context.Background(), "user-1", knownULID, 3, &long)
	require.ErrorIs(t, err, ErrCommentTooLong)

	atLimit := strings.Repeat("a", MaxCommentLength)
	_, err = service.Submit(context.Background(), "user-1", knownULID, 3, &atLimit)
	require.NoError(t, err)
}

func TestSubmitCommentLengthCountsCharacters(t *testing.T) {
	service := newTestFeedbackService(&stubFeedbackRepo{})
	ctx := context.Background()

	// 150 characters but 300 bytes; well under the limit
	multibyte := strings.Repeat("é", 150)
	_, err := service.Submit(ctx, "user-1", knownULID, 4, &multibyte)
	require.NoError(t, err)

	atLimit := strings.Repeat("é", MaxCommentLength)
	_, err = service.Submit(ctx, "user-1", knownULID, 4, &atLimit)
	require.NoError(t, err)

	overLimit := strings.Repeat("é", MaxCommentLength+1)
	_, err = service.Submit(ctx, "user-1", knownULID, 4, &overLimit)
	require.ErrorIs(t, err, ErrCommentTooLong)
}

func TestSubmitUnknownEvent(t *testing.T) {
	service := newTestFeedbackService(&stubFeedbackRepo{})

	_, err := service.Submit(context.Background(), "user-1", "01HQZX5J8N9P2R4T6V8W0Y2A00", 4, nil)
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestSubmitTwiceKeepsBoth(t *testing.T) {
	repo := &stubFeedbackRepo{}
	service := newTestFeedbackService(repo)
	ctx := context.Background()

	_, err := service.Submit(ctx, "user-1", knownULID, 4, nil)
	require.NoError(t, err)
	_, err = service.Submit(ctx, "user-1", knownULID, 2, nil)
	require.NoError(t, err)

	entries, err := service.ListForEvent(ctx, knownULID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestListForEventEmpty(t *testing.T) {
	service := newTestFeedbackService(&stubFeedbackRepo{})

	entries, err := service.ListForEvent(context.Background(), knownULID)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestListForEventUnknown(t *testing.T) {
	service := newTestFeedbackService(&stubFeedbackRepo{})

	_, err := service.ListForEvent(context.Background(), "01HQZX5J8N9P2R4T6V8W0Y2A00")
	require.ErrorIs(t, err, events.ErrNotFound)
}
