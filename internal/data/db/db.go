package db

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

type Config struct {
	// DatabaseURL selects Postgres when set.
	DatabaseURL string
	// SQLitePath is used otherwise. ":memory:" keeps history in process.
	SQLitePath string
	LogLevel   gormLogger.LogLevel
}

// Open connects to Postgres or SQLite and migrates the history table.
func Open(logg *logger.Logger, cfg Config) (*gorm.DB, error) {
	if cfg.LogLevel == 0 {
		cfg.LogLevel = gormLogger.Warn
	}
	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  cfg.LogLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	gcfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}

	var (
		dialector gorm.Dialector
		driver    string
	)
	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		dialector = postgres.Open(dsn)
		driver = "postgres"
	} else {
		path := strings.TrimSpace(cfg.SQLitePath)
		if path == "" {
			path = filepath.Join("data", "snapcal.db")
		}
		if path != ":memory:" && !strings.HasPrefix(path, "file:") {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		dialector = sqlite.Open(path)
		driver = "sqlite"
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	if err := AutoMigrateAll(db); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if logg != nil {
		logg.Info("Database ready", "driver", driver)
	}
	return db, nil
}
