package entity

import (
	"time"

	"calsync/core/entity"

	"github.com/google/uuid"
)

// Calendar is a local calendar owned by a user. Remote calendars pulled from
// a provider are parked into local calendars created on first sight.
type Calendar struct {
	entity.BaseEntity
	UserID uuid.UUID `db:"user_id" json:"user_id"`
	Name   string    `db:"name" json:"name"`
	Color  string    `db:"color" json:"color"`
}

func (Calendar) TableName() string {
	return "calendars"
}

// Event is the local calendar event. The sync engine reads it for outbound
// pushes and upserts it during inbound pulls; recurrence text is carried
// opaquely in the provider's native format.
type Event struct {
	entity.BaseEntity
	CalendarID     uuid.UUID  `db:"calendar_id" json:"calendar_id"`
	UserID         uuid.UUID  `db:"user_id" json:"user_id"`
	Title          string     `db:"title" json:"title"`
	Description    *string    `db:"description" json:"description,omitempty"`
	Location       *string    `db:"location" json:"location,omitempty"`
	StartTime      time.Time  `db:"start_time" json:"start_time"`
	EndTime        time.Time  `db:"end_time" json:"end_time"`
	AllDay         bool       `db:"all_day" json:"all_day"`
	RecurrenceRule *string    `db:"recurrence_rule" json:"recurrence_rule,omitempty"`
}

func (Event) TableName() string {
	return "events"
}
