package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS lets the portal frontend call the API with its session cookie. The
// Idempotency-Key header is allowed for the admin endpoints; Retry-After and
// X-Request-ID are exposed so the frontend can read them.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", idempotencyHeader, requestIDHeader},
		ExposedHeaders:   []string{"Retry-After", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           600,
	})
}
