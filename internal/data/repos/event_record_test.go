package repos

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/snapcal-backend/internal/data/db"
	"github.com/yungbote/snapcal-backend/internal/domain"
	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrateAll(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestEventRecordRepo(t *testing.T) {
	conn := testDB(t)
	repo := NewEventRecordRepo(conn, logger.NewNop())
	ctx := context.Background()

	base := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i, title := range []string{"Older", "Newer"} {
		rec, err := repo.Create(ctx, nil, &domain.EventRecord{
			CalendarID:      "primary",
			CalendarEventID: "evt-" + title,
			Title:           title,
			StartTime:       "2024-03-20",
			Timezone:        "UTC",
			Source:          domain.SourceText,
			Payload:         datatypes.JSON([]byte(`{"title":"` + title + `"}`)),
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if rec.ID == "" {
			t.Fatalf("Create: expected generated id")
		}
		ids = append(ids, rec.ID)
	}

	list, err := repo.List(ctx, nil, 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Title != "Newer" || list[1].Title != "Older" {
		t.Fatalf("List order: got=%+v", list)
	}

	got, err := repo.GetByID(ctx, nil, ids[0])
	if err != nil || got.CalendarEventID != "evt-Older" {
		t.Fatalf("GetByID: got=%+v err=%v", got, err)
	}

	if err := repo.SoftDeleteByID(ctx, nil, ids[0]); err != nil {
		t.Fatalf("SoftDeleteByID: %v", err)
	}
	if _, err := repo.GetByID(ctx, nil, ids[0]); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByID after delete: want ErrNotFound got=%v", err)
	}
	if err := repo.SoftDeleteByID(ctx, nil, ids[0]); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound got=%v", err)
	}
	list, _ = repo.List(ctx, nil, 0, 0)
	if len(list) != 1 {
		t.Fatalf("List after delete: want=1 got=%d", len(list))
	}
}
