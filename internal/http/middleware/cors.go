package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8081",
	"http://localhost:19006",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:8081",
	"http://127.0.0.1:19006",
}

// CORS allows the web app and the Expo dev servers. origins overrides the
// default list; "*" allows any origin without credentials.
func CORS(origins ...string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Requested-With", "X-Request-Id", "X-Trace-Id"},
		ExposeHeaders:    []string{"X-Request-Id", "X-Trace-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	switch {
	case len(origins) == 1 && origins[0] == "*":
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	case len(origins) > 0:
		cfg.AllowOrigins = origins
	default:
		cfg.AllowOrigins = defaultOrigins
	}
	return cors.New(cfg)
}
