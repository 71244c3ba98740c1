package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gatherly/server/internal/api/handlers"
	"github.com/gatherly/server/internal/api/middleware"
	"github.com/gatherly/server/internal/auth"
	"github.com/gatherly/server/internal/config"
	"github.com/gatherly/server/internal/domain/events"
	"github.com/gatherly/server/internal/domain/feedback"
	"github.com/gatherly/server/internal/domain/users"
	"github.com/gatherly/server/internal/metrics"
	"github.com/gatherly/server/internal/storage/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// NewRouter wires repositories, services, and handlers onto a ServeMux and
// wraps the whole thing in the ambient middleware chain.
func NewRouter(cfg config.Config, logger zerolog.Logger, pool *pgxpool.Pool) (http.Handler, error) {
	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return nil, err
	}

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Server.BaseURL)
	usersService := users.NewService(repo.Users(), jwtManager, logger)
	eventsService := events.NewService(repo.Events(), logger)
	feedbackService := feedback.NewService(repo.Feedback(), eventsService, logger)

	authHandler := handlers.NewAuthHandler(usersService, cfg.Environment)
	eventsHandler := handlers.NewEventsHandler(eventsService, cfg.Environment)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService, cfg.Environment)

	bearer := middleware.BearerAuth(usersService, cfg.Environment)
	admin := middleware.RequireAdmin(cfg.Environment)

	// One limiter store shared by every route; the tier wrappers tag the
	// request before the limiter picks a bucket.
	limit := middleware.RateLimit(cfg.RateLimit)
	public := func(h http.Handler) http.Handler { return limit(h) }
	asUser := func(h http.Handler) http.Handler {
		return bearer(middleware.WithRateLimitTierHandler(middleware.TierUser)(limit(h)))
	}
	asLogin := func(h http.Handler) http.Handler {
		return middleware.WithRateLimitTierHandler(middleware.TierLogin)(limit(h))
	}
	asAdmin := func(h http.Handler) http.Handler {
		return bearer(admin(middleware.WithRateLimitTierHandler(middleware.TierUser)(limit(h))))
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/readyz", handlers.Readyz(pool))
	mux.Handle("/metrics", metrics.Handler())

	mux.Handle("/register", methodMux(map[string]http.Handler{
		http.MethodPost: public(http.HandlerFunc(authHandler.Register)),
	}))
	mux.Handle("/login", methodMux(map[string]http.Handler{
		http.MethodPost: asLogin(http.HandlerFunc(authHandler.Login)),
	}))
	mux.Handle("/logout", methodMux(map[string]http.Handler{
		http.MethodPost: asUser(http.HandlerFunc(authHandler.Logout)),
	}))
	mux.Handle("/user", methodMux(map[string]http.Handler{
		http.MethodGet: asUser(http.HandlerFunc(authHandler.CurrentUser)),
	}))

	mux.Handle("/events", methodMux(map[string]http.Handler{
		http.MethodGet:  public(http.HandlerFunc(eventsHandler.List)),
		http.MethodPost: asAdmin(http.HandlerFunc(eventsHandler.Create)),
	}))
	mux.Handle("/events/upcoming", methodMux(map[string]http.Handler{
		http.MethodGet: asUser(http.HandlerFunc(eventsHandler.Upcoming)),
	}))
	mux.Handle("/events/registered", methodMux(map[string]http.Handler{
		http.MethodGet: asUser(http.HandlerFunc(eventsHandler.Registered)),
	}))
	mux.Handle("/events/{id}/register", methodMux(map[string]http.Handler{
		http.MethodPost: asUser(http.HandlerFunc(eventsHandler.Register)),
	}))
	mux.Handle("/events/{id}/feedback", methodMux(map[string]http.Handler{
		http.MethodGet:  asUser(http.HandlerFunc(feedbackHandler.ListForEvent)),
		http.MethodPost: asUser(http.HandlerFunc(feedbackHandler.Submit)),
	}))

	var handler http.Handler = mux
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.PublicRequestSize()(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.CorrelationID(logger)(handler)
	return handler, nil
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
