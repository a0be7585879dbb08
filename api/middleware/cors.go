package middleware

import (
	"net/http"

	"github.com/angelmondragon/fruitshop-backend/pkg/config"
	"github.com/go-chi/cors"
)

// CORS applies the configured origin policy. The shop serves its own pages,
// so this only matters for assets or health checks fetched cross-origin.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
