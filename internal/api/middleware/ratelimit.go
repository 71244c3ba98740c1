package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gatherly/server/internal/config"
	"golang.org/x/time/rate"
)

type RateLimitTier string

const (
	TierPublic RateLimitTier = "public"
	TierUser   RateLimitTier = "user"
	TierLogin  RateLimitTier = "login" // aggressive limiting for credential guessing
)

type rateLimitKey string

const rateLimitTierKey rateLimitKey = "rateLimitTier"

func WithRateLimitTier(ctx context.Context, tier RateLimitTier) context.Context {
	return context.WithValue(ctx, rateLimitTierKey, tier)
}

// WithRateLimitTierHandler tags requests passing through it with a tier so
// the outer RateLimit middleware picks the right bucket.
func WithRateLimitTierHandler(tier RateLimitTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithRateLimitTier(r.Context(), tier)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit applies a token-bucket limit per client IP and tier. Health
// endpoints are exempt.
func RateLimit(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	store := newLimiterStore(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" {
				next.ServeHTTP(w, r)
				return
			}

			tier := TierPublic
			if value, ok := r.Context().Value(rateLimitTierKey).(RateLimitTier); ok {
				tier = value
			}

			limiter := store.limiter(tier, clientKey(r))
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow() {
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	cfg      config.RateLimitConfig
}

const limiterIdleTTL = 10 * time.Minute

func newLimiterStore(cfg config.RateLimitConfig) *limiterStore {
	return &limiterStore{
		limiters: make(map[string]*limiterEntry),
		cfg:      cfg,
	}
}

func (s *limiterStore) limiter(tier RateLimitTier, client string) *rate.Limiter {
	perMinute := s.perMinute(tier)
	if perMinute <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.prune(now)

	key := string(tier) + ":" + client
	entry, ok := s.limiters[key]
	if !ok {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
		}
		s.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

func (s *limiterStore) perMinute(tier RateLimitTier) int {
	switch tier {
	case TierLogin:
		return s.cfg.LoginPerMinute
	case TierUser:
		return s.cfg.UserPerMinute
	default:
		return s.cfg.PublicPerMinute
	}
}

// prune drops idle entries. Called with the lock held.
func (s *limiterStore) prune(now time.Time) {
	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(s.limiters, key)
		}
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
