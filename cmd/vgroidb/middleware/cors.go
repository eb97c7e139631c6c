// Package middleware wraps the inspection server handlers.
package middleware

import (
	"net/http"

	"github.com/kuanghuei/scene-graph-TF-release/internal/config"
)

const EnvCorsAllowedOrigin = "VGROIDB_CORS_ALLOWED_ORIGIN"

var allowedOrigin = config.GetEnv(EnvCorsAllowedOrigin, "*")

// Cors sets the CORS headers on every response and answers preflight
// requests itself.
func Cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
