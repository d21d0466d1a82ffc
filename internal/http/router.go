package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/snapcal-backend/internal/http/handlers"
	httpMW "github.com/yungbote/snapcal-backend/internal/http/middleware"
	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string

	EventHandler  *httpH.EventHandler
	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log, "/health"))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/health", cfg.HealthHandler.HealthCheck)
	}

	if cfg.EventHandler != nil {
		r.POST("/extract", cfg.EventHandler.Extract)
		r.POST("/save", cfg.EventHandler.Save)
		r.GET("/history", cfg.EventHandler.ListHistory)
		r.DELETE("/history/:id", cfg.EventHandler.DeleteHistory)
	}

	return r
}
