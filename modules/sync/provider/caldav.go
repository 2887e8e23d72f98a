package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"calsync/core/config"
	"calsync/core/constants"
	"calsync/core/logger"
	"calsync/core/utils"
	eventEntity "calsync/modules/event/entity"
	integrationDto "calsync/modules/integration/dto"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"
)

// CalDAVAdapter speaks the CalDAV protocol with HTTP basic auth, the way
// Apple iCloud expects an app-specific password to be presented. Clients are
// built per call because every user carries their own credentials.
type CalDAVAdapter struct {
	cfg       config.CalDAVConfig
	mappings  MappingStore
	calendars CalendarResolver
}

func NewCalDAVAdapter(cfg config.CalDAVConfig, mappings MappingStore, calendars CalendarResolver) *CalDAVAdapter {
	return &CalDAVAdapter{cfg: cfg, mappings: mappings, calendars: calendars}
}

func (a *CalDAVAdapter) Provider() Provider {
	return CalDAV
}

type basicAuthTransport struct {
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return http.DefaultTransport.RoundTrip(req)
}

func (a *CalDAVAdapter) connect(creds *integrationDto.TokenData) (*caldav.Client, error) {
	httpClient := &http.Client{
		Transport: &basicAuthTransport{username: creds.Email, password: creds.AppPassword},
		Timeout:   constants.DefaultTimeout,
	}
	client, err := caldav.NewClient(httpClient, a.cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("connect to CalDAV: %w", err)
	}
	return client, nil
}

// defaultCalendar discovers the user's calendar home and returns the first
// calendar in it.
func (a *CalDAVAdapter) defaultCalendar(ctx context.Context, client *caldav.Client) (*caldav.Calendar, error) {
	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}
	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("find calendar home set: %w", err)
	}
	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("find calendars: %w", err)
	}
	if len(cals) == 0 {
		return nil, fmt.Errorf("no calendars found under %s", homeSet)
	}
	return &cals[0], nil
}

func (a *CalDAVAdapter) Push(ctx context.Context, userID uuid.UUID, creds *integrationDto.TokenData, ev *eventEntity.Event, action Action) error {
	client, err := a.connect(creds)
	if err != nil {
		return err
	}
	cal, err := a.defaultCalendar(ctx, client)
	if err != nil {
		return err
	}

	switch action {
	case ActionCreate:
		uid := utils.GenerateEventUID()
		if _, err := client.PutCalendarObject(ctx, objectPath(cal.Path, uid), eventToICS(ev, uid)); err != nil {
			return fmt.Errorf("put calendar object: %w", err)
		}
		return a.mappings.Save(ctx, ev.ID, CalDAV, uid)

	case ActionUpdate:
		uid, err := a.mappings.GetExternalID(ctx, ev.ID, CalDAV)
		if err != nil {
			return err
		}
		if uid == "" {
			logger.Warn("CalDAVAdapter:PushUpdate:NoMapping", "user_id", userID, "event_id", ev.ID)
			return nil
		}
		// PUT to the same path replaces the object.
		if _, err := client.PutCalendarObject(ctx, objectPath(cal.Path, uid), eventToICS(ev, uid)); err != nil {
			return fmt.Errorf("put calendar object: %w", err)
		}
		return nil

	case ActionDelete:
		uid, err := a.mappings.GetExternalID(ctx, ev.ID, CalDAV)
		if err != nil {
			return err
		}
		if uid == "" {
			logger.Warn("CalDAVAdapter:PushDelete:NoMapping", "user_id", userID, "event_id", ev.ID)
			return nil
		}
		if err := client.RemoveAll(ctx, objectPath(cal.Path, uid)); err != nil {
			return fmt.Errorf("remove calendar object: %w", err)
		}
		return a.mappings.Remove(ctx, ev.ID, CalDAV)

	default:
		return fmt.Errorf("action %q: %w", action, ErrUnsupportedOperation)
	}
}

func (a *CalDAVAdapter) Pull(ctx context.Context, userID uuid.UUID, creds *integrationDto.TokenData) ([]RemoteEvent, error) {
	client, err := a.connect(creds)
	if err != nil {
		return nil, err
	}
	cal, err := a.defaultCalendar(ctx, client)
	if err != nil {
		return nil, err
	}

	calendarID, err := a.calendars.Resolve(ctx, userID, CalDAV, cal.Path, cal.Name)
	if err != nil {
		return nil, err
	}

	objects, err := client.QueryCalendar(ctx, cal.Path, veventQuery())

	if err != nil {
		return nil, fmt.Errorf("query calendar: %w", err)
	}

	var events []RemoteEvent
	for i := range objects {
		ev, err := parseCalendarObject(&objects[i])
		if err != nil {
			logger.Warn("CalDAVAdapter:Pull:SkipObject", "user_id", userID, "path", objects[i].Path, "error", err)
			continue
		}
		ev.CalendarID = calendarID
		events = append(events, ev)
	}
	return events, nil
}

// veventQuery asks for every VEVENT in the collection. Unlike the OAuth
// providers there is no lower time bound here: the whole calendar is pulled.
func veventQuery() *caldav.CalendarQuery {
	return &caldav.CalendarQuery{
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{
				{Name: ical.CompEvent},
			},
		},
	}
}

func objectPath(calendarPath, uid string) string {
	if !strings.HasSuffix(calendarPath, "/") {
		calendarPath += "/"
	}
	return calendarPath + uid + ".ics"
}

// eventToICS builds a single-VEVENT VCALENDAR for PUT.
func eventToICS(ev *eventEntity.Event, uid string) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//calsync//CalDAV//EN")

	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, uid)
	vevent.Props.SetText(ical.PropSummary, ev.Title)
	if ev.Description != nil {
		vevent.Props.SetText(ical.PropDescription, *ev.Description)
	}
	if ev.Location != nil {
		vevent.Props.SetText(ical.PropLocation, *ev.Location)
	}

	if ev.AllDay {
		vevent.Props.SetDate(ical.PropDateTimeStart, ev.StartTime)
		vevent.Props.SetDate(ical.PropDateTimeEnd, ev.EndTime)
	} else {
		vevent.Props.SetDateTime(ical.PropDateTimeStart, ev.StartTime.UTC())
		vevent.Props.SetDateTime(ical.PropDateTimeEnd, ev.EndTime.UTC())
	}

	if ev.RecurrenceRule != nil {
		vevent.Props.SetText(ical.PropRecurrenceRule, *ev.RecurrenceRule)
	}
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())

	cal.Children = append(cal.Children, vevent.Component)
	return cal
}

// parseCalendarObject reads the first VEVENT out of a fetched object.
func parseCalendarObject(obj *caldav.CalendarObject) (RemoteEvent, error) {
	ev := RemoteEvent{Provider: CalDAV}
	if obj.Data == nil {
		return ev, fmt.Errorf("no data in calendar object")
	}

	for _, comp := range obj.Data.Children {
		if comp.Name != ical.CompEvent {
			continue
		}

		if prop := comp.Props.Get(ical.PropUID); prop != nil {
			ev.ExternalID = prop.Value
		}
		if ev.ExternalID == "" {
			return ev, fmt.Errorf("event without UID")
		}

		if prop := comp.Props.Get(ical.PropSummary); prop != nil {
			ev.Title = prop.Value
		}
		if prop := comp.Props.Get(ical.PropDescription); prop != nil {
			ev.Description = optional(prop.Value)
		}
		if prop := comp.Props.Get(ical.PropLocation); prop != nil {
			ev.Location = optional(prop.Value)
		}

		if prop := comp.Props.Get(ical.PropDateTimeStart); prop != nil {
			t, err := prop.DateTime(time.UTC)
			if err != nil {
				return ev, fmt.Errorf("parse DTSTART: %w", err)
			}
			ev.StartTime = t
			// VALUE=DATE marks an all-day event.
			if prop.Params.Get(ical.ParamValue) == string(ical.ValueDate) {
				ev.AllDay = true
			}
		}
		if prop := comp.Props.Get(ical.PropDateTimeEnd); prop != nil {
			t, err := prop.DateTime(time.UTC)
			if err != nil {
				return ev, fmt.Errorf("parse DTEND: %w", err)
			}
			ev.EndTime = t
		}

		if prop := comp.Props.Get(ical.PropRecurrenceRule); prop != nil {
			ev.Recurrence = optional(prop.Value)
		}

		return ev, nil
	}

	return ev, fmt.Errorf("no VEVENT in calendar object")
}
