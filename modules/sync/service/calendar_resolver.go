package service

import (
	"context"

	"calsync/core/logger"
	eventEntity "calsync/modules/event/entity"
	eventRepository "calsync/modules/event/repository"
	"calsync/modules/sync/provider"
	"calsync/modules/sync/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

var providerCalendarDefaults = map[provider.Provider]struct {
	name  string
	color string
}{
	provider.Google:  {name: "Google Calendar", color: "#4285F4"},
	provider.Outlook: {name: "Outlook Calendar", color: "#0078D4"},
	provider.CalDAV:  {name: "iCloud Calendar", color: "#999999"},
}

// calendarResolver maps a remote calendar to a local one, creating the local
// calendar on first sight and remembering the link so repeated pulls land
// events in the same place.
type calendarResolver struct {
	mappings  repository.CalendarMappingRepository
	calendars eventRepository.CalendarRepository
}

func NewCalendarResolver(mappings repository.CalendarMappingRepository, calendars eventRepository.CalendarRepository) provider.CalendarResolver {
	return &calendarResolver{mappings: mappings, calendars: calendars}
}

func (r *calendarResolver) Resolve(ctx context.Context, userID uuid.UUID, p provider.Provider, remoteID, remoteName string) (uuid.UUID, error) {
	defaults := providerCalendarDefaults[p]
	if remoteName == "" {
		remoteName = defaults.name
	}
	// Some servers report calendars by display name only.
	if remoteID == "" {
		remoteID = slug.Make(remoteName)
	}

	localID, found, err := r.mappings.GetLocalCalendarID(ctx, userID, p, remoteID)
	if err != nil {
		return uuid.Nil, err
	}
	if found {
		return localID, nil
	}

	cal := &eventEntity.Calendar{
		UserID: userID,
		Name:   remoteName,
		Color:  defaults.color,
	}
	if _, err := r.calendars.Create(ctx, cal); err != nil {
		return uuid.Nil, err
	}
	if err := r.mappings.Save(ctx, userID, p, remoteID, cal.ID); err != nil {
		return uuid.Nil, err
	}

	logger.Info("CalendarResolver:Resolve:Created", "user_id", userID, "provider", p, "external_id", remoteID, "calendar_id", cal.ID)
	return cal.ID, nil
}
