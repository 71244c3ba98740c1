package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gatherly/server/internal/api/middleware"
	"github.com/gatherly/server/internal/api/problem"
	"github.com/gatherly/server/internal/domain/events"
	"github.com/gatherly/server/internal/domain/feedback"
	"github.com/gatherly/server/internal/domain/ids"
	"github.com/gatherly/server/internal/metrics"
	"github.com/go-playground/validator/v10"
)

type FeedbackHandler struct {
	Feedback *feedback.Service
	Env      string
	validate *validator.Validate
}

func NewFeedbackHandler(feedbackService *feedback.Service, env string) *FeedbackHandler {
	return &FeedbackHandler{Feedback: feedbackService, Env: env, validate: newValidate()}
}

type submitFeedbackRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=255"`
}

type feedbackPayload struct {
	ID          string  `json:"id"`
	Rating      int     `json:"rating"`
	Comment     *string `json:"comment"`
	StudentName string  `json:"student_name"`
	CreatedAt   string  `json:"created_at"`
}

// Submit handles POST /events/{id}/feedback.
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Authentication required", nil, h.Env)
		return
	}

	eventULID := pathParam(r, "id")
	if err := ids.ValidateULID(eventULID); err != nil {
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, h.Env)
		return
	}

	var req submitFeedbackRequest
	if !decodeAndValidate(w, r, h.validate, &req, h.Env) {
		return
	}

	entry, err := h.Feedback.Submit(r.Context(), identity.UserID, eventULID, req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, events.ErrNotFound):
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, h.Env)
		case errors.Is(err, feedback.ErrInvalidRating):
			problem.WriteValidation(w, r, map[string]interface{}{"rating": "must be between 1 and 5"}, h.Env)
		case errors.Is(err, feedback.ErrCommentTooLong):
			problem.WriteValidation(w, r, map[string]interface{}{"comment": "must be at most 255 characters"}, h.Env)
		default:
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		}
		return
	}

	metrics.FeedbackSubmittedTotal.WithLabelValues(strconv.Itoa(entry.Rating)).Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Feedback submitted successfully.",
	})
}

// ListForEvent handles GET /events/{id}/feedback. An event with no feedback
// yields an empty list, never a 404; only an unknown event is a 404.
func (h *FeedbackHandler) ListForEvent(w http.ResponseWriter, r *http.Request) {
	eventULID := pathParam(r, "id")
	if err := ids.ValidateULID(eventULID); err != nil {
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, h.Env)
		return
	}

	entries, err := h.Feedback.ListForEvent(r.Context(), eventULID)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	payloads := make([]feedbackPayload, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, feedbackPayload{
			ID:          entry.ID,
			Rating:      entry.Rating,
			Comment:     entry.Comment,
			StudentName: entry.StudentName,
			CreatedAt:   entry.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"feedback": payloads})
}
