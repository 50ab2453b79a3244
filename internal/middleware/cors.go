package middleware

import (
	"net/http"
	"time"

	"github.com/rs/cors"
)

// NewCORSHandler returns a middleware that applies CORS headers based on allowedOrigins.
// Each entry in allowedOrigins must be a full origin (scheme + host, no trailing slash).
// The browser client needs If-None-Match for conditional itinerary reads and must be
// able to read ETag, Retry-After and Content-Disposition off responses.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "If-None-Match"},
		ExposedHeaders: []string{"ETag", "Retry-After", "Content-Disposition"},
		MaxAge:         int((10 * time.Minute).Seconds()),
	})
	return c.Handler
}
