package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateCalendarRequest struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color"`
}

type CalendarResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color"`
}

type CreateEventRequest struct {
	CalendarID     uuid.UUID `json:"calendar_id" validate:"required"`
	Title          string    `json:"title" validate:"required"`
	Description    *string   `json:"description"`
	Location       *string   `json:"location"`
	StartTime      time.Time `json:"start_time" validate:"required"`
	EndTime        time.Time `json:"end_time" validate:"required"`
	AllDay         bool      `json:"all_day"`
	RecurrenceRule *string   `json:"recurrence_rule"`
}

type UpdateEventRequest struct {
	CalendarID     uuid.UUID `json:"calendar_id" validate:"required"`
	Title          string    `json:"title" validate:"required"`
	Description    *string   `json:"description"`
	Location       *string   `json:"location"`
	StartTime      time.Time `json:"start_time" validate:"required"`
	EndTime        time.Time `json:"end_time" validate:"required"`
	AllDay         bool      `json:"all_day"`
	RecurrenceRule *string   `json:"recurrence_rule"`
}

type EventResponse struct {
	ID             uuid.UUID `json:"id"`
	CalendarID     uuid.UUID `json:"calendar_id"`
	Title          string    `json:"title"`
	Description    *string   `json:"description,omitempty"`
	Location       *string   `json:"location,omitempty"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	AllDay         bool      `json:"all_day"`
	RecurrenceRule *string   `json:"recurrence_rule,omitempty"`
}

type EventListResponse struct {
	Events []EventResponse `json:"events"`
}
