package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	coreErrors "calsync/core/errors"
	"calsync/modules/event/dto"
	"calsync/modules/event/entity"
	syncDto "calsync/modules/sync/dto"
	"calsync/modules/sync/provider"

	"github.com/google/uuid"
)

type fakeEventRepo struct {
	events map[uuid.UUID]*entity.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[uuid.UUID]*entity.Event)}
}

func (r *fakeEventRepo) Create(_ context.Context, ev *entity.Event) (*entity.Event, error) {
	ev.ID = uuid.New()
	copied := *ev
	r.events[ev.ID] = &copied
	return ev, nil
}

func (r *fakeEventRepo) Update(_ context.Context, ev *entity.Event) error {
	if _, ok := r.events[ev.ID]; !ok {
		return errors.New("not found")
	}
	copied := *ev
	r.events[ev.ID] = &copied
	return nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.events, id)
	return nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Event, error) {
	ev, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	copied := *ev
	return &copied, nil
}

func (r *fakeEventRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]entity.Event, error) {
	var out []entity.Event
	for _, ev := range r.events {
		if ev.UserID == userID {
			out = append(out, *ev)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) InsertIfAbsent(_ context.Context, ev *entity.Event) (bool, error) {
	key := fmt.Sprintf("%s/%s/%d/%d", ev.CalendarID, ev.Title, ev.StartTime.Unix(), ev.EndTime.Unix())
	for _, existing := range r.events {
		if key == fmt.Sprintf("%s/%s/%d/%d", existing.CalendarID, existing.Title, existing.StartTime.Unix(), existing.EndTime.Unix()) {
			return false, nil
		}
	}
	ev.ID = uuid.New()
	copied := *ev
	r.events[ev.ID] = &copied
	return true, nil
}

type fakeCalendarRepo struct {
	calendars map[uuid.UUID]*entity.Calendar
}

func newFakeCalendarRepo() *fakeCalendarRepo {
	return &fakeCalendarRepo{calendars: make(map[uuid.UUID]*entity.Calendar)}
}

func (r *fakeCalendarRepo) Create(_ context.Context, cal *entity.Calendar) (*entity.Calendar, error) {
	cal.ID = uuid.New()
	r.calendars[cal.ID] = cal
	return cal, nil
}

func (r *fakeCalendarRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Calendar, error) {
	return r.calendars[id], nil
}

func (r *fakeCalendarRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]entity.Calendar, error) {
	var out []entity.Calendar
	for _, cal := range r.calendars {
		if cal.UserID == userID {
			out = append(out, *cal)
		}
	}
	return out, nil
}

type outboundCall struct {
	eventID uuid.UUID
	action  provider.Action
}

type fakeOutbound struct {
	calls []outboundCall
	err   error
}

func (o *fakeOutbound) SyncOut(_ context.Context, _ uuid.UUID, ev *entity.Event, action provider.Action) (*syncDto.OutboundReport, error) {
	o.calls = append(o.calls, outboundCall{eventID: ev.ID, action: action})
	if o.err != nil {
		return nil, o.err
	}
	return &syncDto.OutboundReport{}, nil
}

func seedCalendar(t *testing.T, calendars *fakeCalendarRepo, userID uuid.UUID) uuid.UUID {
	t.Helper()
	cal := &entity.Calendar{UserID: userID, Name: "Personal"}
	if _, err := calendars.Create(context.Background(), cal); err != nil {
		t.Fatalf("seed calendar: %v", err)
	}
	return cal.ID
}

func createRequest(calendarID uuid.UUID) *dto.CreateEventRequest {
	return &dto.CreateEventRequest{
		CalendarID: calendarID,
		Title:      "Standup",
		StartTime:  time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestCreateEventPropagatesToProviders(t *testing.T) {
	events := newFakeEventRepo()
	calendars := newFakeCalendarRepo()
	outbound := &fakeOutbound{}
	svc := NewEventService(events, calendars, outbound)

	userID := uuid.New()
	calendarID := seedCalendar(t, calendars, userID)

	resp, appErr := svc.CreateEvent(context.Background(), userID, createRequest(calendarID))
	if appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}

	if len(outbound.calls) != 1 || outbound.calls[0].action != provider.ActionCreate {
		t.Fatalf("expected one create propagation, got %+v", outbound.calls)
	}
	if outbound.calls[0].eventID != resp.ID {
		t.Fatal("propagation must carry the committed event")
	}
}

func TestCreateEventRejectsForeignCalendar(t *testing.T) {
	events := newFakeEventRepo()
	calendars := newFakeCalendarRepo()
	outbound := &fakeOutbound{}
	svc := NewEventService(events, calendars, outbound)

	otherUsersCalendar := seedCalendar(t, calendars, uuid.New())

	_, appErr := svc.CreateEvent(context.Background(), uuid.New(), createRequest(otherUsersCalendar))
	if appErr == nil || appErr.Code != coreErrors.ErrNotFound {
		t.Fatalf("expected not-found for a foreign calendar, got %v", appErr)
	}
	if len(outbound.calls) != 0 {
		t.Fatal("nothing must propagate for a rejected create")
	}
}

func TestCreateEventSurvivesOutboundFailure(t *testing.T) {
	events := newFakeEventRepo()
	calendars := newFakeCalendarRepo()
	outbound := &fakeOutbound{err: errors.New("all providers down")}
	svc := NewEventService(events, calendars, outbound)

	userID := uuid.New()
	calendarID := seedCalendar(t, calendars, userID)

	resp, appErr := svc.CreateEvent(context.Background(), userID, createRequest(calendarID))
	if appErr != nil {
		t.Fatalf("local commit must succeed even when propagation fails: %v", appErr)
	}
	if _, ok := events.events[resp.ID]; !ok {
		t.Fatal("event must be committed locally")
	}
}

func TestCreateEventRejectsInvertedTimes(t *testing.T) {
	svc := NewEventService(newFakeEventRepo(), newFakeCalendarRepo(), &fakeOutbound{})

	req := createRequest(uuid.New())
	req.StartTime, req.EndTime = req.EndTime, req.StartTime

	_, appErr := svc.CreateEvent(context.Background(), uuid.New(), req)
	if appErr == nil || appErr.Code != coreErrors.ErrInvalidInput {
		t.Fatalf("expected invalid-input, got %v", appErr)
	}
}

func TestUpdateEventChecksOwnership(t *testing.T) {
	events := newFakeEventRepo()
	calendars := newFakeCalendarRepo()
	outbound := &fakeOutbound{}
	svc := NewEventService(events, calendars, outbound)

	owner := uuid.New()
	calendarID := seedCalendar(t, calendars, owner)
	resp, appErr := svc.CreateEvent(context.Background(), owner, createRequest(calendarID))
	if appErr != nil {
		t.Fatalf("create: %v", appErr)
	}

	update := &dto.UpdateEventRequest{
		CalendarID: calendarID,
		Title:      "Hijacked",
		StartTime:  time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC),
	}
	if _, appErr := svc.UpdateEvent(context.Background(), uuid.New(), resp.ID, update); appErr == nil {
		t.Fatal("another user must not be able to update the event")
	}

	if _, appErr := svc.UpdateEvent(context.Background(), owner, resp.ID, update); appErr != nil {
		t.Fatalf("owner update failed: %v", appErr)
	}

	last := outbound.calls[len(outbound.calls)-1]
	if last.action != provider.ActionUpdate {
		t.Fatalf("expected update propagation, got %s", last.action)
	}
}

func TestDeleteEventPropagatesAfterLocalDelete(t *testing.T) {
	events := newFakeEventRepo()
	calendars := newFakeCalendarRepo()
	outbound := &fakeOutbound{}
	svc := NewEventService(events, calendars, outbound)

	userID := uuid.New()
	calendarID := seedCalendar(t, calendars, userID)
	resp, appErr := svc.CreateEvent(context.Background(), userID, createRequest(calendarID))
	if appErr != nil {
		t.Fatalf("create: %v", appErr)
	}

	if appErr := svc.DeleteEvent(context.Background(), userID, resp.ID); appErr != nil {
		t.Fatalf("delete: %v", appErr)
	}

	if _, ok := events.events[resp.ID]; ok {
		t.Fatal("event must be gone locally")
	}
	last := outbound.calls[len(outbound.calls)-1]
	if last.action != provider.ActionDelete || last.eventID != resp.ID {
		t.Fatalf("expected delete propagation for the event, got %+v", last)
	}
}

func TestGetEventNotFound(t *testing.T) {
	svc := NewEventService(newFakeEventRepo(), newFakeCalendarRepo(), &fakeOutbound{})

	_, appErr := svc.GetEvent(context.Background(), uuid.New(), uuid.New())
	if appErr == nil || appErr.Code != coreErrors.ErrNotFound {
		t.Fatalf("expected not-found, got %v", appErr)
	}
}
