package service

import (
	"context"
	"testing"

	eventEntity "calsync/modules/event/entity"
	"calsync/modules/sync/provider"

	"github.com/google/uuid"
)

type fakeCalendarRepo struct {
	calendars map[uuid.UUID]*eventEntity.Calendar
}

func newFakeCalendarRepo() *fakeCalendarRepo {
	return &fakeCalendarRepo{calendars: make(map[uuid.UUID]*eventEntity.Calendar)}
}

func (r *fakeCalendarRepo) Create(_ context.Context, cal *eventEntity.Calendar) (*eventEntity.Calendar, error) {
	cal.ID = uuid.New()
	r.calendars[cal.ID] = cal
	return cal, nil
}

func (r *fakeCalendarRepo) GetByID(_ context.Context, id uuid.UUID) (*eventEntity.Calendar, error) {
	return r.calendars[id], nil
}

func (r *fakeCalendarRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]eventEntity.Calendar, error) {
	var out []eventEntity.Calendar
	for _, cal := range r.calendars {
		if cal.UserID == userID {
			out = append(out, *cal)
		}
	}
	return out, nil
}

type fakeCalendarMappings struct {
	links map[string]uuid.UUID
}

func newFakeCalendarMappings() *fakeCalendarMappings {
	return &fakeCalendarMappings{links: make(map[string]uuid.UUID)}
}

func calMapKey(userID uuid.UUID, p provider.Provider, externalID string) string {
	return userID.String() + "/" + string(p) + "/" + externalID
}

func (m *fakeCalendarMappings) GetLocalCalendarID(_ context.Context, userID uuid.UUID, p provider.Provider, externalID string) (uuid.UUID, bool, error) {
	id, ok := m.links[calMapKey(userID, p, externalID)]
	return id, ok, nil
}

func (m *fakeCalendarMappings) Save(_ context.Context, userID uuid.UUID, p provider.Provider, externalID string, localCalendarID uuid.UUID) error {
	m.links[calMapKey(userID, p, externalID)] = localCalendarID
	return nil
}

func TestResolveCreatesCalendarOnFirstSight(t *testing.T) {
	calendars := newFakeCalendarRepo()
	resolver := NewCalendarResolver(newFakeCalendarMappings(), calendars)

	userID := uuid.New()
	id, err := resolver.Resolve(context.Background(), userID, provider.Google, "primary", "Work")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cal := calendars.calendars[id]
	if cal == nil {
		t.Fatal("expected a local calendar to be created")
	}
	if cal.Name != "Work" || cal.UserID != userID {
		t.Fatalf("unexpected calendar: %+v", cal)
	}
}

func TestResolveIsStableAcrossCalls(t *testing.T) {
	calendars := newFakeCalendarRepo()
	resolver := NewCalendarResolver(newFakeCalendarMappings(), calendars)

	userID := uuid.New()
	first, err := resolver.Resolve(context.Background(), userID, provider.CalDAV, "/cal/home/1/", "Family")
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := resolver.Resolve(context.Background(), userID, provider.CalDAV, "/cal/home/1/", "Family")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	if first != second {
		t.Fatalf("repeated resolves must return the same calendar: %s vs %s", first, second)
	}
	if len(calendars.calendars) != 1 {
		t.Fatalf("expected one calendar, got %d", len(calendars.calendars))
	}
}

func TestResolveFallsBackToSluggedName(t *testing.T) {
	resolver := NewCalendarResolver(newFakeCalendarMappings(), newFakeCalendarRepo())

	userID := uuid.New()
	first, err := resolver.Resolve(context.Background(), userID, provider.Outlook, "", "My Meetings")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Same name with no remote id must land in the same calendar.
	second, err := resolver.Resolve(context.Background(), userID, provider.Outlook, "", "My Meetings")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("name-keyed resolves must be stable: %s vs %s", first, second)
	}
}

func TestResolveDefaultsEmptyName(t *testing.T) {
	calendars := newFakeCalendarRepo()
	resolver := NewCalendarResolver(newFakeCalendarMappings(), calendars)

	id, err := resolver.Resolve(context.Background(), uuid.New(), provider.Google, "primary", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calendars.calendars[id].Name == "" {
		t.Fatal("resolved calendar must get a provider default name")
	}
}
