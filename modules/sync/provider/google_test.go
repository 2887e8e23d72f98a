package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"calsync/core/config"
	eventEntity "calsync/modules/event/entity"
	integrationDto "calsync/modules/integration/dto"

	"github.com/google/uuid"
)

type memMappings struct {
	byLocal map[string]string
}

func newMemMappings() *memMappings {
	return &memMappings{byLocal: make(map[string]string)}
}

func (m *memMappings) GetExternalID(_ context.Context, localID uuid.UUID, p Provider) (string, error) {
	return m.byLocal[localID.String()+"/"+string(p)], nil
}

func (m *memMappings) Save(_ context.Context, localID uuid.UUID, p Provider, externalID string) error {
	m.byLocal[localID.String()+"/"+string(p)] = externalID
	return nil
}

func (m *memMappings) UpsertByExternal(_ context.Context, p Provider, externalID string, localID uuid.UUID) error {
	m.byLocal[localID.String()+"/"+string(p)] = externalID
	return nil
}

func (m *memMappings) Remove(_ context.Context, localID uuid.UUID, p Provider) error {
	delete(m.byLocal, localID.String()+"/"+string(p))
	return nil
}

type staticResolver struct {
	calendarID uuid.UUID
}

func (r *staticResolver) Resolve(context.Context, uuid.UUID, Provider, string, string) (uuid.UUID, error) {
	return r.calendarID, nil
}

func googleTestEvent() *eventEntity.Event {
	ev := &eventEntity.Event{
		CalendarID: uuid.New(),
		UserID:     uuid.New(),
		Title:      "Standup",
		StartTime:  time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC),
	}
	ev.ID = uuid.New()
	return ev
}

func googleTokens() *integrationDto.TokenData {
	return &integrationDto.TokenData{AccessToken: "test-token"}
}

func TestGooglePushCreateSavesMapping(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/calendars/primary/events" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"g-123"}`))
	}))
	defer server.Close()

	mappings := newMemMappings()
	adapter := NewGoogleAdapter(config.OAuthProvider{APIBaseURL: server.URL}, mappings, &staticResolver{})

	ev := googleTestEvent()
	if err := adapter.Push(context.Background(), ev.UserID, googleTokens(), ev, ActionCreate); err != nil {
		t.Fatalf("push: %v", err)
	}

	if gotAuth != "Bearer test-token" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotBody["summary"] != "Standup" {
		t.Fatalf("unexpected body: %+v", gotBody)
	}
	if got, _ := mappings.GetExternalID(context.Background(), ev.ID, Google); got != "g-123" {
		t.Fatalf("expected mapping to the created event, got %q", got)
	}

	// A repeated create overwrites the mapping instead of duplicating it.
	if err := adapter.Push(context.Background(), ev.UserID, googleTokens(), ev, ActionCreate); err != nil {
		t.Fatalf("second push: %v", err)
	}
	if len(mappings.byLocal) != 1 {
		t.Fatalf("expected a single mapping row, got %d", len(mappings.byLocal))
	}
}

func TestGooglePushUpdateWithoutMappingIsNoop(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	adapter := NewGoogleAdapter(config.OAuthProvider{APIBaseURL: server.URL}, newMemMappings(), &staticResolver{})

	ev := googleTestEvent()
	if err := adapter.Push(context.Background(), ev.UserID, googleTokens(), ev, ActionUpdate); err != nil {
		t.Fatalf("an unmapped update must be a no-op, got %v", err)
	}
	if hits != 0 {
		t.Fatalf("no HTTP call expected without a mapping, got %d", hits)
	}
}

func TestGooglePushDeleteRemovesMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	mappings := newMemMappings()
	adapter := NewGoogleAdapter(config.OAuthProvider{APIBaseURL: server.URL}, mappings, &staticResolver{})

	ev := googleTestEvent()
	mappings.Save(context.Background(), ev.ID, Google, "g-123")

	if err := adapter.Push(context.Background(), ev.UserID, googleTokens(), ev, ActionDelete); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := mappings.GetExternalID(context.Background(), ev.ID, Google); got != "" {
		t.Fatalf("mapping must be removed after delete, got %q", got)
	}
}

func TestGooglePushDeleteToleratesAlreadyGone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	mappings := newMemMappings()
	adapter := NewGoogleAdapter(config.OAuthProvider{APIBaseURL: server.URL}, mappings, &staticResolver{})

	ev := googleTestEvent()
	mappings.Save(context.Background(), ev.ID, Google, "g-123")

	if err := adapter.Push(context.Background(), ev.UserID, googleTokens(), ev, ActionDelete); err != nil {
		t.Fatalf("a remotely deleted event must not fail the delete: %v", err)
	}
	if got, _ := mappings.GetExternalID(context.Background(), ev.ID, Google); got != "" {
		t.Fatalf("mapping must still be removed, got %q", got)
	}
}

func TestGooglePullMapsFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"summary": "Primary",
			"items": [
				{
					"id": "timed-1",
					"status": "confirmed",
					"summary": "Design review",
					"description": "Q3 roadmap",
					"location": "Room 4",
					"start": {"dateTime": "2026-09-01T09:00:00Z"},
					"end": {"dateTime": "2026-09-01T10:00:00Z"}
				},
				{
					"id": "allday-1",
					"status": "confirmed",
					"summary": "Offsite",
					"start": {"date": "2026-09-03"},
					"end": {"date": "2026-09-04"}
				},
				{
					"id": "gone-1",
					"status": "cancelled",
					"summary": "Cancelled thing",
					"start": {"dateTime": "2026-09-01T09:00:00Z"},
					"end": {"dateTime": "2026-09-01T10:00:00Z"}
				}
			]
		}`))
	}))
	defer server.Close()

	calendarID := uuid.New()
	adapter := NewGoogleAdapter(config.OAuthProvider{APIBaseURL: server.URL}, newMemMappings(), &staticResolver{calendarID: calendarID})

	events, err := adapter.Pull(context.Background(), uuid.New(), googleTokens())
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("cancelled events must be skipped, got %d events", len(events))
	}

	timed := events[0]
	if timed.ExternalID != "timed-1" || timed.Title != "Design review" {
		t.Fatalf("unexpected event: %+v", timed)
	}
	if timed.CalendarID != calendarID {
		t.Fatalf("event must land in the resolved calendar")
	}
	if timed.Description == nil || *timed.Description != "Q3 roadmap" {
		t.Fatalf("unexpected description: %v", timed.Description)
	}
	if timed.AllDay {
		t.Fatal("timed event flagged all-day")
	}
	if !timed.StartTime.Equal(time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start: %v", timed.StartTime)
	}

	allDay := events[1]
	if !allDay.AllDay {
		t.Fatal("date-only event must be all-day")
	}
	if allDay.Description != nil || allDay.Location != nil {
		t.Fatalf("empty fields must stay nil: %+v", allDay)
	}
}
