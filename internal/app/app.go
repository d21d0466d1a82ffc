package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/snapcal-backend/internal/data/db"
	httpapi "github.com/yungbote/snapcal-backend/internal/http"
	httpH "github.com/yungbote/snapcal-backend/internal/http/handlers"
	"github.com/yungbote/snapcal-backend/internal/observability"
	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

const serviceName = "snapcal-backend"

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Clients  Clients
	Services Services

	server       *httpapi.Server
	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.OtelEnabled,
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.OtelEndpoint,
		Headers:     cfg.OtelHeaders,
		Insecure:    cfg.OtelInsecure,
		SampleRatio: cfg.OtelSampleRatio,
	})

	theDB, err := db.Open(log, db.Config{DatabaseURL: cfg.DatabaseURL, SQLitePath: cfg.SQLitePath})
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}

	clientset, err := wireClients(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	serviceset, err := wireServices(theDB, log, cfg, clientset)
	if err != nil {
		clientset.Close(log)
		log.Sync()
		return nil, err
	}

	server := httpapi.NewServer(httpapi.RouterConfig{
		Log:           log,
		ServiceName:   serviceName,
		CORSOrigins:   cfg.CORSOrigins,
		EventHandler:  httpH.NewEventHandler(serviceset.Pipeline, serviceset.Saver),
		HealthHandler: httpH.NewHealthHandler(clientset.Capabilities()),
	})

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       server.Engine,
		Cfg:          cfg,
		Clients:      clientset,
		Services:     serviceset,
		server:       server,
		otelShutdown: shutdown,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("Listening", "addr", addr)
	return a.server.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.Log.Warn("HTTP shutdown failed", "error", err)
		}
	}
	a.Clients.Close(a.Log)
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(ctx)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
