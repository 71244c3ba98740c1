package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gatherly/server/internal/api/middleware"
	"github.com/gatherly/server/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv()

	rec := postJSON(t, env.auth.Register, "/register", `{
		"name": "Ada Lovelace",
		"email": "Ada@Example.com",
		"password": "password123",
		"password_confirmation": "password123"
	}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", user["email"])
	assert.Equal(t, "attendee", user["role"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "password_hash")
}

func TestRegisterEndpointValidation(t *testing.T) {
	env := newTestEnv()

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{
			name:      "missing name",
			body:      `{"email":"a@example.com","password":"password123","password_confirmation":"password123"}`,
			wantField: "name",
		},
		{
			name:      "bad email",
			body:      `{"name":"A","email":"not-an-email","password":"password123","password_confirmation":"password123"}`,
			wantField: "email",
		},
		{
			name:      "short password",
			body:      `{"name":"A","email":"a@example.com","password":"short","password_confirmation":"short"}`,
			wantField: "password",
		},
		{
			name:      "mismatched confirmation",
			body:      `{"name":"A","email":"a@example.com","password":"password123","password_confirmation":"different1"}`,
			wantField: "password_confirmation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, env.auth.Register, "/register", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			body := decodeBody(t, rec)
			errs, ok := body["errors"].(map[string]any)
			require.True(t, ok, "expected errors map, got %v", body)
			assert.Contains(t, errs, tt.wantField)
		})
	}
}

func TestRegisterEndpointMalformedJSON(t *testing.T) {
	env := newTestEnv()

	rec := postJSON(t, env.auth.Register, "/register", `{"name": `)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterEndpointDuplicateEmail(t *testing.T) {
	env := newTestEnv()
	payload := `{"name":"A","email":"a@example.com","password":"password123","password_confirmation":"password123"}`

	rec := postJSON(t, env.auth.Register, "/register", payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, env.auth.Register, "/register", payload)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody(t, rec)
	errs, ok := body["errors"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, errs, "email")
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv()
	postJSON(t, env.auth.Register, "/register",
		`{"name":"A","email":"a@example.com","password":"password123","password_confirmation":"password123"}`)

	rec := postJSON(t, env.auth.Login, "/login", `{"email":"a@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Login successful.", body["message"])
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["expires_at"])
}

func TestLoginEndpointBadCredentials(t *testing.T) {
	env := newTestEnv()
	postJSON(t, env.auth.Register, "/register",
		`{"name":"A","email":"a@example.com","password":"password123","password_confirmation":"password123"}`)

	wrongPassword := postJSON(t, env.auth.Login, "/login", `{"email":"a@example.com","password":"wrongwrong"}`)
	unknownEmail := postJSON(t, env.auth.Login, "/login", `{"email":"b@example.com","password":"password123"}`)

	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	// same body for both so the response does not reveal which part was wrong
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestLogoutEndpoint(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	postJSON(t, env.auth.Register, "/register",
		`{"name":"A","email":"a@example.com","password":"password123","password_confirmation":"password123"}`)
	result, err := env.usersService.Login(ctx, "a@example.com", "password123")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	identity := &auth.Identity{UserID: result.User.ID, Role: result.User.Role}
	req = req.WithContext(middleware.ContextWithIdentity(req.Context(), identity))
	rec := httptest.NewRecorder()
	env.auth.Logout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Logged out successfully.", body["message"])

	_, err = env.usersService.ValidateToken(ctx, result.Token)
	require.Error(t, err)
}

func TestCurrentUserEndpoint(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	postJSON(t, env.auth.Register, "/register",
		`{"name":"Ada Lovelace","email":"a@example.com","password":"password123","password_confirmation":"password123"}`)
	result, err := env.usersService.Login(ctx, "a@example.com", "password123")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	identity := &auth.Identity{UserID: result.User.ID, Role: result.User.Role}
	req = req.WithContext(middleware.ContextWithIdentity(req.Context(), identity))
	rec := httptest.NewRecorder()
	env.auth.CurrentUser(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Ada Lovelace", user["name"])
	assert.Equal(t, "a@example.com", user["email"])
	assert.NotContains(t, user, "password_hash")
}

func TestCurrentUserEndpointUnauthenticated(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	rec := httptest.NewRecorder()
	env.auth.CurrentUser(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCurrentUserEndpointDeletedAccount(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	identity := &auth.Identity{UserID: "no-such-user", Role: "attendee"}
	req = req.WithContext(middleware.ContextWithIdentity(req.Context(), identity))
	rec := httptest.NewRecorder()
	env.auth.CurrentUser(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutEndpointUnauthenticated(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()
	env.auth.Logout(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
