package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gatherly/server/internal/auth"
	"github.com/gatherly/server/internal/domain/events"
	"github.com/gatherly/server/internal/domain/feedback"
	"github.com/gatherly/server/internal/domain/users"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// In-memory repositories so handlers can be exercised through real services
// without a database.

type memUserRepo struct {
	byEmail  map[string]*users.User
	byID     map[string]*users.User
	sessions map[string]*users.Session
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byEmail:  make(map[string]*users.User),
		byID:     make(map[string]*users.User),
		sessions: make(map[string]*users.Session),
	}
}

func (r *memUserRepo) Create(_ context.Context, params users.CreateParams) (*users.User, error) {
	if _, exists := r.byEmail[params.Email]; exists {
		return nil, users.ErrEmailTaken
	}
	user := &users.User{
		ID:           uuid.NewString(),
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		CreatedAt:    time.Now(),
	}
	r.byEmail[user.Email] = user
	r.byID[user.ID] = user
	return user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	if user, ok := r.byEmail[email]; ok {
		return user, nil
	}
	return nil, users.ErrNotFound
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	if user, ok := r.byID[id]; ok {
		return user, nil
	}
	return nil, users.ErrNotFound
}

func (r *memUserRepo) CreateSession(_ context.Context, userID string, expiresAt time.Time) (*users.Session, error) {
	session := &users.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	r.sessions[session.ID] = session
	return session, nil
}

func (r *memUserRepo) GetSession(_ context.Context, id string) (*users.Session, error) {
	if session, ok := r.sessions[id]; ok {
		return session, nil
	}
	return nil, users.ErrNotFound
}

func (r *memUserRepo) DeleteSessionsForUser(_ context.Context, userID string) error {
	for id, session := range r.sessions {
		if session.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *memUserRepo) DeleteExpiredSessions(_ context.Context) (int64, error) {
	var deleted int64
	now := time.Now()
	for id, session := range r.sessions {
		if now.After(session.ExpiresAt) {
			delete(r.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

var _ users.Repository = (*memUserRepo)(nil)

type memEventRepo struct {
	events        []events.Event
	registrations map[string]bool
	nextID        int
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{registrations: make(map[string]bool)}
}

func (r *memEventRepo) Create(_ context.Context, params events.CreateParams) (*events.Event, error) {
	r.nextID++
	event := events.Event{
		ID:          strconv.Itoa(r.nextID),
		ULID:        params.ULID,
		Title:       params.Title,
		Date:        params.Date,
		Time:        params.Time,
		Location:    params.Location,
		Description: params.Description,
		CreatedAt:   time.Now(),
	}
	r.events = append(r.events, event)
	return &event, nil
}

func (r *memEventRepo) List(_ context.Context) ([]events.Event, error) {
	return r.events, nil
}

func (r *memEventRepo) ListBetween(_ context.Context, from, to time.Time) ([]events.Event, error) {
	var out []events.Event
	for _, event := range r.events {
		if !event.Date.Before(from) && !event.Date.After(to) {
			out = append(out, event)
		}
	}
	return out, nil
}

func (r *memEventRepo) GetByULID(_ context.Context, ulid string) (*events.Event, error) {
	for i := range r.events {
		if r.events[i].ULID == ulid {
			return &r.events[i], nil
		}
	}
	return nil, events.ErrNotFound
}

func (r *memEventRepo) CreateRegistration(_ context.Context, userID, eventID string) error {
	key := userID + ":" + eventID
	if r.registrations[key] {
		return events.ErrAlreadyRegistered
	}
	r.registrations[key] = true
	return nil
}

func (r *memEventRepo) ListRegistered(_ context.Context, userID string) ([]events.Event, error) {
	var out []events.Event
	for _, event := range r.events {
		if r.registrations[userID+":"+event.ID] {
			out = append(out, event)
		}
	}
	return out, nil
}

var _ events.Repository = (*memEventRepo)(nil)

type memFeedbackRepo struct {
	entries []feedback.Entry
	nextID  int
	names   map[string]string
}

func newMemFeedbackRepo() *memFeedbackRepo {
	return &memFeedbackRepo{names: make(map[string]string)}
}

func (r *memFeedbackRepo) Create(_ context.Context, params feedback.CreateParams) (*feedback.Feedback, error) {
	r.nextID++
	name := r.names[params.UserID]
	if name == "" {
		name = "Test User"
	}
	entry := feedback.Entry{
		Feedback: feedback.Feedback{
			ID:        strconv.Itoa(r.nextID),
			UserID:    params.UserID,
			EventID:   params.EventID,
			Rating:    params.Rating,
			Comment:   params.Comment,
			CreatedAt: time.Now(),
		},
		StudentName: name,
	}
	r.entries = append(r.entries, entry)
	return &entry.Feedback, nil
}

func (r *memFeedbackRepo) ListForEvent(_ context.Context, eventID string) ([]feedback.Entry, error) {
	out := make([]feedback.Entry, 0)
	for _, entry := range r.entries {
		if entry.EventID == eventID {
			out = append(out, entry)
		}
	}
	return out, nil
}

var _ feedback.Repository = (*memFeedbackRepo)(nil)

// testEnv bundles handlers wired onto in-memory repositories.
type testEnv struct {
	userRepo     *memUserRepo
	eventRepo    *memEventRepo
	feedbackRepo *memFeedbackRepo

	usersService    *users.Service
	eventsService   *events.Service
	feedbackService *feedback.Service

	auth     *AuthHandler
	events   *EventsHandler
	feedback *FeedbackHandler
}

func newTestEnv() *testEnv {
	logger := zerolog.Nop()
	tokens := auth.NewJWTManager("test-secret", time.Hour, "test")

	env := &testEnv{
		userRepo:     newMemUserRepo(),
		eventRepo:    newMemEventRepo(),
		feedbackRepo: newMemFeedbackRepo(),
	}
	env.usersService = users.NewService(env.userRepo, tokens, logger)
	env.eventsService = events.NewService(env.eventRepo, logger)
	env.feedbackService = feedback.NewService(env.feedbackRepo, env.eventsService, logger)

	env.auth = NewAuthHandler(env.usersService, "test")
	env.events = NewEventsHandler(env.eventsService, "test")
	env.feedback = NewFeedbackHandler(env.feedbackService, "test")
	return env
}

func (e *testEnv) createEvent(title string, date time.Time) *events.Event {
	event, err := e.eventsService.Create(context.Background(), events.CreateInput{
		Title: title,
		Date:  date,
		Time:  "18:00",
	})
	if err != nil {
		panic(err)
	}
	return event
}
