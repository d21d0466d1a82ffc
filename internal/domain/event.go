package domain

// Source tags where an event came from. Derived 1:1 from the extract input type.
const (
	SourceFlyer = "flyer"
	SourceURL   = "url"
	SourceText  = "text"
	SourceEmail = "email"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Location struct {
	Name        string       `json:"name"`
	Address     string       `json:"address,omitempty"`
	PlaceID     string       `json:"placeId,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type Conflict struct {
	EventID   string `json:"eventId"`
	Title     string `json:"title"`
	StartTime string `json:"startTime"`
}

// CanonicalEvent is the pipeline output. StartTime is either YYYY-MM-DD (all-day)
// or YYYY-MM-DDTHH:MM:SS (timed); that shape is the only all-day discriminator.
type CanonicalEvent struct {
	Title          string                 `json:"title"`
	Description    string                 `json:"description,omitempty"`
	StartTime      string                 `json:"startTime"`
	EndTime        string                 `json:"endTime,omitempty"`
	Location       *Location              `json:"location"`
	Timezone       string                 `json:"timezone"`
	Source         string                 `json:"source"`
	SourceMetadata map[string]interface{} `json:"sourceMetadata,omitempty"`
	Conflicts      []Conflict             `json:"conflicts"`

	TravelBufferMinutes *int `json:"travelBufferMinutes,omitempty"`
}

// IsAllDay reports whether StartTime carries no time-of-day component.
func (e CanonicalEvent) IsAllDay() bool {
	for i := 0; i < len(e.StartTime); i++ {
		if e.StartTime[i] == 'T' {
			return false
		}
	}
	return true
}

// ExtractedEvent is the normalized, pre-canonical extraction result.
// Date is always YYYY-MM-DD; Time and EndTime, when set, are HH:MM:SS.
type ExtractedEvent struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
	Location    string `json:"location,omitempty"`
}

type PlaceResult struct {
	PlaceID          string      `json:"placeId"`
	FormattedAddress string      `json:"formattedAddress"`
	Location         Coordinates `json:"location"`
	Name             string      `json:"name,omitempty"`
}

type TimezoneResult struct {
	TimeZoneID    string `json:"timeZoneId"`
	OffsetSeconds int    `json:"offsetSeconds"`
}

// FrameAnalysis is the per-frame model answer. Pointer fields distinguish
// "not seen" from an empty value during the merge.
type FrameAnalysis struct {
	Title        *string `json:"title,omitempty"`
	Date         *string `json:"date,omitempty"`
	Time         *string `json:"time,omitempty"`
	EndTime      *string `json:"endTime,omitempty"`
	Location     *string `json:"location,omitempty"`
	Description  *string `json:"description,omitempty"`
	Text         string  `json:"text"`
	HasEventInfo *bool   `json:"hasEventInfo,omitempty"`
}

type ExtractResponse struct {
	Event      CanonicalEvent `json:"event"`
	Confidence float64        `json:"confidence"`
}

type SaveResult struct {
	Success  bool   `json:"success"`
	EventID  string `json:"eventId"`
	HTMLLink string `json:"htmlLink"`
	Message  string `json:"message"`
}
