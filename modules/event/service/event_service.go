package service

import (
	"context"
	"time"

	"calsync/core/errors"
	"calsync/core/logger"
	"calsync/modules/event/dto"
	"calsync/modules/event/entity"
	"calsync/modules/event/repository"
	"calsync/modules/sync/provider"
	syncService "calsync/modules/sync/service"

	"github.com/google/uuid"
)

// EventService owns local calendar and event CRUD. Every mutation commits
// locally first and then propagates to connected providers best-effort;
// provider failures are logged, never surfaced to the caller.
type EventService interface {
	CreateCalendar(ctx context.Context, userID uuid.UUID, req *dto.CreateCalendarRequest) (*dto.CalendarResponse, *errors.AppError)
	ListCalendars(ctx context.Context, userID uuid.UUID) ([]dto.CalendarResponse, *errors.AppError)

	CreateEvent(ctx context.Context, userID uuid.UUID, req *dto.CreateEventRequest) (*dto.EventResponse, *errors.AppError)
	UpdateEvent(ctx context.Context, userID uuid.UUID, eventID uuid.UUID, req *dto.UpdateEventRequest) (*dto.EventResponse, *errors.AppError)
	DeleteEvent(ctx context.Context, userID uuid.UUID, eventID uuid.UUID) *errors.AppError
	GetEvent(ctx context.Context, userID uuid.UUID, eventID uuid.UUID) (*dto.EventResponse, *errors.AppError)
	ListEvents(ctx context.Context, userID uuid.UUID) ([]dto.EventResponse, *errors.AppError)
}

type eventService struct {
	events    repository.EventRepository
	calendars repository.CalendarRepository
	outbound  syncService.OutboundService
}

func NewEventService(events repository.EventRepository, calendars repository.CalendarRepository, outbound syncService.OutboundService) EventService {
	return &eventService{events: events, calendars: calendars, outbound: outbound}
}

func (s *eventService) CreateCalendar(ctx context.Context, userID uuid.UUID, req *dto.CreateCalendarRequest) (*dto.CalendarResponse, *errors.AppError) {
	if req.Name == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Calendar name is required", nil)
	}

	cal := &entity.Calendar{UserID: userID, Name: req.Name, Color: req.Color}
	if _, err := s.calendars.Create(ctx, cal); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to create calendar", err)
	}

	return &dto.CalendarResponse{ID: cal.ID, Name: cal.Name, Color: cal.Color}, nil
}

func (s *eventService) ListCalendars(ctx context.Context, userID uuid.UUID) ([]dto.CalendarResponse, *errors.AppError) {
	cals, err := s.calendars.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list calendars", err)
	}

	resp := make([]dto.CalendarResponse, 0, len(cals))
	for _, cal := range cals {
		resp = append(resp, dto.CalendarResponse{ID: cal.ID, Name: cal.Name, Color: cal.Color})
	}
	return resp, nil
}

func (s *eventService) CreateEvent(ctx context.Context, userID uuid.UUID, req *dto.CreateEventRequest) (*dto.EventResponse, *errors.AppError) {
	if appErr := validateTimes(req.StartTime, req.EndTime); appErr != nil {
		return nil, appErr
	}
	if appErr := s.checkCalendar(ctx, userID, req.CalendarID); appErr != nil {
		return nil, appErr
	}

	ev := &entity.Event{
		CalendarID:     req.CalendarID,
		UserID:         userID,
		Title:          req.Title,
		Description:    req.Description,
		Location:       req.Location,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		AllDay:         req.AllDay,
		RecurrenceRule: req.RecurrenceRule,
	}
	if _, err := s.events.Create(ctx, ev); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to create event", err)
	}

	s.propagate(ctx, userID, ev, provider.ActionCreate)
	return eventResponse(ev), nil
}

func (s *eventService) UpdateEvent(ctx context.Context, userID uuid.UUID, eventID uuid.UUID, req *dto.UpdateEventRequest) (*dto.EventResponse, *errors.AppError) {
	if appErr := validateTimes(req.StartTime, req.EndTime); appErr != nil {
		return nil, appErr
	}

	ev, appErr := s.ownedEvent(ctx, userID, eventID)
	if appErr != nil {
		return nil, appErr
	}
	if req.CalendarID != ev.CalendarID {
		if appErr := s.checkCalendar(ctx, userID, req.CalendarID); appErr != nil {
			return nil, appErr
		}
	}

	ev.CalendarID = req.CalendarID
	ev.Title = req.Title
	ev.Description = req.Description
	ev.Location = req.Location
	ev.StartTime = req.StartTime
	ev.EndTime = req.EndTime
	ev.AllDay = req.AllDay
	ev.RecurrenceRule = req.RecurrenceRule

	if err := s.events.Update(ctx, ev); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to update event", err)
	}

	s.propagate(ctx, userID, ev, provider.ActionUpdate)
	return eventResponse(ev), nil
}

func (s *eventService) DeleteEvent(ctx context.Context, userID uuid.UUID, eventID uuid.UUID) *errors.AppError {
	ev, appErr := s.ownedEvent(ctx, userID, eventID)
	if appErr != nil {
		return appErr
	}

	if err := s.events.Delete(ctx, ev.ID); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to delete event", err)
	}

	// The entity is gone locally but the adapters only need its id and the
	// surviving identity mappings to remove the remote copies.
	s.propagate(ctx, userID, ev, provider.ActionDelete)
	return nil
}

func (s *eventService) GetEvent(ctx context.Context, userID uuid.UUID, eventID uuid.UUID) (*dto.EventResponse, *errors.AppError) {
	ev, appErr := s.ownedEvent(ctx, userID, eventID)
	if appErr != nil {
		return nil, appErr
	}
	return eventResponse(ev), nil
}

func (s *eventService) ListEvents(ctx context.Context, userID uuid.UUID) ([]dto.EventResponse, *errors.AppError) {
	events, err := s.events.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list events", err)
	}

	resp := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		resp = append(resp, *eventResponse(&events[i]))
	}
	return resp, nil
}

// propagate pushes a committed change to every connected provider. The local
// write already succeeded; remote failures only get logged.
func (s *eventService) propagate(ctx context.Context, userID uuid.UUID, ev *entity.Event, action provider.Action) {
	if s.outbound == nil {
		return
	}
	if _, err := s.outbound.SyncOut(ctx, userID, ev, action); err != nil {
		logger.Error("EventService:Propagate:Error", "error", err, "user_id", userID, "event_id", ev.ID, "action", action)
	}
}

func (s *eventService) ownedEvent(ctx context.Context, userID uuid.UUID, eventID uuid.UUID) (*entity.Event, *errors.AppError) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load event", err)
	}
	if ev == nil || ev.UserID != userID {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}
	return ev, nil
}

func (s *eventService) checkCalendar(ctx context.Context, userID uuid.UUID, calendarID uuid.UUID) *errors.AppError {
	cal, err := s.calendars.GetByID(ctx, calendarID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to load calendar", err)
	}
	if cal == nil || cal.UserID != userID {
		return errors.NewAppError(errors.ErrNotFound, "Calendar not found", nil)
	}
	return nil
}

func validateTimes(start, end time.Time) *errors.AppError {
	if start.IsZero() || end.IsZero() {
		return errors.NewAppError(errors.ErrInvalidInput, "start_time and end_time are required", nil)
	}
	if end.Before(start) {
		return errors.NewAppError(errors.ErrInvalidInput, "end_time must not precede start_time", nil)
	}
	return nil
}

func eventResponse(ev *entity.Event) *dto.EventResponse {
	return &dto.EventResponse{
		ID:             ev.ID,
		CalendarID:     ev.CalendarID,
		Title:          ev.Title,
		Description:    ev.Description,
		Location:       ev.Location,
		StartTime:      ev.StartTime,
		EndTime:        ev.EndTime,
		AllDay:         ev.AllDay,
		RecurrenceRule: ev.RecurrenceRule,
	}
}
