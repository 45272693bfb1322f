package model

import "time"

// MaxUpcoming is the size of the upcoming-events window.
const MaxUpcoming = 5

// NoTitle is shown for events without a summary.
const NoTitle = "No title"

// StatusCancelled is the feed status of a deleted or cancelled event.
// It is a feed-level marker, not part of the event's time data.
const StatusCancelled = "cancelled"

// EventTime is one side (start or end) of a raw calendar event.
// Exactly one of DateTime or Date is expected to be set.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// RawEvent is a calendar record as delivered by the calendar API.
type RawEvent struct {
	ID          string    `json:"id,omitempty"`
	Status      string    `json:"status,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
}

// NormalizedEvent is a calendar event with both ends resolved to instants.
type NormalizedEvent struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"all_day"`
}

// UpcomingView is the ordered list of the next events shown to the user.
type UpcomingView struct {
	Events   []NormalizedEvent `json:"events"`
	SyncedAt time.Time         `json:"synced_at"`
}

// Empty reports whether there are no upcoming events.
func (v UpcomingView) Empty() bool { return len(v.Events) == 0 }
