package db

import (
	"path/filepath"
	"testing"

	"github.com/yungbote/snapcal-backend/internal/domain"
	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

func TestOpenSQLiteMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	conn, err := Open(logger.NewNop(), Config{SQLitePath: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !conn.Migrator().HasTable(&domain.EventRecord{}) {
		t.Fatalf("event_record table missing after migrate")
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("DB: %v", err)
	}
	_ = sqlDB.Close()
}
