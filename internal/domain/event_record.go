package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventRecord is a saved event kept for the history screen. Payload holds the
// CanonicalEvent exactly as it was sent to the calendar.
type EventRecord struct {
	ID              string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	CalendarID      string         `gorm:"column:calendar_id;not null" json:"calendarId"`
	CalendarEventID string         `gorm:"column:calendar_event_id;not null;index" json:"calendarEventId"`
	HTMLLink        string         `gorm:"column:html_link" json:"htmlLink,omitempty"`
	Title           string         `gorm:"column:title;not null" json:"title"`
	StartTime       string         `gorm:"column:start_time;not null;index" json:"startTime"`
	EndTime         string         `gorm:"column:end_time" json:"endTime,omitempty"`
	Timezone        string         `gorm:"column:timezone;not null" json:"timezone"`
	Source          string         `gorm:"column:source;not null;index" json:"source"`
	LocationName    string         `gorm:"column:location_name" json:"locationName,omitempty"`
	Payload         datatypes.JSON `gorm:"column:payload" json:"payload"`
	CreatedAt       time.Time      `gorm:"not null;index" json:"createdAt"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (EventRecord) TableName() string { return "event_record" }

func (r *EventRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
