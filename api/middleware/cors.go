package middleware

import (
	"net/http"

	"github.com/codana-ai/billing-sync/pkg/config"
	"github.com/go-chi/cors"
)

// The original frontend calls this API from the browser, so the default
// policy is wide open. Deployments narrow it via configuration.
var defaultCORSOrigins = []string{"*"}

// CORS returns middleware that applies the API's allowed origin policy.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Paddle-Signature", "X-Requested-With"},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler
}
