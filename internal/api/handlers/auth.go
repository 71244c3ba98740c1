package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gatherly/server/internal/api/middleware"
	"github.com/gatherly/server/internal/api/problem"
	"github.com/gatherly/server/internal/domain/users"
	"github.com/gatherly/server/internal/metrics"
	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	Users    *users.Service
	Env      string
	validate *validator.Validate
}

func NewAuthHandler(usersService *users.Service, env string) *AuthHandler {
	return &AuthHandler{Users: usersService, Env: env, validate: newValidate()}
}

type registerRequest struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

type userPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// Register handles POST /register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeAndValidate(w, r, h.validate, &req, h.Env) {
		return
	}

	user, err := h.Users.Register(r.Context(), users.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			problem.WriteValidation(w, r, map[string]interface{}{"email": "is already taken"}, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	metrics.UsersRegisteredTotal.Inc()
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"user":    toUserPayload(user),
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, h.validate, &req, h.Env) {
		return
	}

	result, err := h.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid credentials", nil, h.Env,
				problem.WithDetail("the provided credentials are incorrect"))
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"token":      result.Token,
		"expires_at": result.ExpiresAt.Format(time.RFC3339),
		"message":    "Login successful.",
	})
}

// Logout handles POST /logout. Revokes every token the caller holds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Authentication required", nil, h.Env)
		return
	}

	if err := h.Users.Logout(r.Context(), identity.UserID); err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Logged out successfully.",
	})
}

// CurrentUser handles GET /user: the authenticated caller's own account.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Authentication required", nil, h.Env)
		return
	}

	user, err := h.Users.GetByID(r.Context(), identity.UserID)
	if err != nil {
		// a valid token for a deleted account is no longer authenticated
		if errors.Is(err, users.ErrNotFound) {
			problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Authentication required", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserPayload(user),
	})
}

func toUserPayload(user *users.User) userPayload {
	return userPayload{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(r.PathValue(key))
}
