package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gatherly/server/internal/api/middleware"
	"github.com/gatherly/server/internal/api/problem"
	"github.com/gatherly/server/internal/domain/events"
	"github.com/gatherly/server/internal/domain/ids"
	"github.com/gatherly/server/internal/metrics"
	"github.com/go-playground/validator/v10"
)

type EventsHandler struct {
	Events   *events.Service
	Env      string
	validate *validator.Validate

	// now is swappable in tests
	now func() time.Time
}

func NewEventsHandler(eventsService *events.Service, env string) *EventsHandler {
	return &EventsHandler{
		Events:   eventsService,
		Env:      env,
		validate: newValidate(),
		now:      time.Now,
	}
}

type eventPayload struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	EventDate   string  `json:"event_date"`
	EventTime   string  `json:"event_time"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	CreatedAt   string  `json:"created_at"`
}

// List handles GET /events. Public: no authentication required.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Events.List(r.Context())
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": toEventPayloads(items)})
}

type createEventRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	EventDate   string  `json:"event_date" validate:"required,datetime=2006-01-02"`
	EventTime   string  `json:"event_time" validate:"required,datetime=15:04"`
	Location    *string `json:"location" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty"`
}

// Create handles POST /events. Admin only; the router applies the gate.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if !decodeAndValidate(w, r, h.validate, &req, h.Env) {
		return
	}

	date, err := time.Parse("2006-01-02", req.EventDate)
	if err != nil {
		problem.WriteValidation(w, r, map[string]interface{}{"event_date": "must use format 2006-01-02"}, h.Env)
		return
	}

	event, err := h.Events.Create(r.Context(), events.CreateInput{
		Title:       req.Title,
		Date:        date,
		Time:        req.EventTime,
		Location:    req.Location,
		Description: req.Description,
	})
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"event":   toEventPayload(event),
	})
}

// Upcoming handles GET /events/upcoming: events dated within the next 30
// days, boundary days included.
func (h *EventsHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	items, err := h.Events.ListUpcoming(r.Context(), h.now())
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"events":  toEventPayloads(items),
	})
}

// Register handles POST /events/{id}/register.
func (h *EventsHandler) Register(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Authentication required", nil, h.Env)
		return
	}

	eventULID := pathParam(r, "id")
	if err := ids.ValidateULID(eventULID); err != nil {
		metrics.EventRegistrationsTotal.WithLabelValues("not_found").Inc()
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, h.Env)
		return
	}

	err := h.Events.Register(r.Context(), identity.UserID, eventULID)
	switch {
	case err == nil:
		metrics.EventRegistrationsTotal.WithLabelValues("registered").Inc()
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Registered for event successfully.",
		})
	case errors.Is(err, events.ErrAlreadyRegistered):
		metrics.EventRegistrationsTotal.WithLabelValues("duplicate").Inc()
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Already registered", err, h.Env,
			problem.WithDetail("you are already registered for this event"))
	case errors.Is(err, events.ErrNotFound):
		metrics.EventRegistrationsTotal.WithLabelValues("not_found").Inc()
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, h.Env)
	default:
		metrics.EventRegistrationsTotal.WithLabelValues("error").Inc()
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
	}
}

// Registered handles GET /events/registered: the caller's registrations.
func (h *EventsHandler) Registered(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Authentication required", nil, h.Env)
		return
	}

	items, err := h.Events.ListRegistered(r.Context(), identity.UserID)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"events":  toEventPayloads(items),
	})
}

func toEventPayload(event *events.Event) eventPayload {
	return eventPayload{
		ID:          event.ULID,
		Title:       event.Title,
		EventDate:   event.Date.Format("2006-01-02"),
		EventTime:   event.Time,
		Location:    event.Location,
		Description: event.Description,
		CreatedAt:   event.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toEventPayloads(items []events.Event) []eventPayload {
	payloads := make([]eventPayload, 0, len(items))
	for i := range items {
		payloads = append(payloads, toEventPayload(&items[i]))
	}
	return payloads
}
