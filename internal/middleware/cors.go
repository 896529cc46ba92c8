package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS wraps h so browsers on origins may call the API. "*" allows any origin.
func CORS(origins []string, h http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", IdempotencyHeader},
		MaxAge:         3600,
	}).Handler(h)
}
