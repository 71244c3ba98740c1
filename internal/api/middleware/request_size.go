package middleware

import (
	"net/http"
)

// DefaultMaxBodySize caps request bodies at 1MB; every endpoint here takes
// small JSON payloads.
const DefaultMaxBodySize int64 = 1 << 20

// RequestSize limits the size of incoming request bodies. Oversized bodies
// fail inside the handler's decode with a 413 from http.MaxBytesReader.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// PublicRequestSize applies the default body cap.
func PublicRequestSize() func(http.Handler) http.Handler {
	return RequestSize(DefaultMaxBodySize)
}
