package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"calsync/core/config"
	"calsync/core/constants"
	"calsync/core/logger"
	eventEntity "calsync/modules/event/entity"
	integrationDto "calsync/modules/integration/dto"

	"github.com/google/uuid"
)

const googlePrimaryCalendar = "primary"

// GoogleAdapter talks to the Google Calendar v3 REST API with a bearer
// token; the token service guarantees a live token before dispatch.
type GoogleAdapter struct {
	cfg       config.OAuthProvider
	mappings  MappingStore
	calendars CalendarResolver
	client    *http.Client
}

func NewGoogleAdapter(cfg config.OAuthProvider, mappings MappingStore, calendars CalendarResolver) *GoogleAdapter {
	return &GoogleAdapter{
		cfg:       cfg,
		mappings:  mappings,
		calendars: calendars,
		client:    &http.Client{Timeout: constants.DefaultTimeout},
	}
}

func (a *GoogleAdapter) Provider() Provider {
	return Google
}

func (a *GoogleAdapter) Push(ctx context.Context, userID uuid.UUID, creds *integrationDto.TokenData, ev *eventEntity.Event, action Action) error {
	switch action {
	case ActionCreate:
		return a.pushCreate(ctx, creds, ev)
	case ActionUpdate:
		return a.pushUpdate(ctx, userID, creds, ev)
	case ActionDelete:
		return a.pushDelete(ctx, userID, creds, ev)
	default:
		return fmt.Errorf("action %q: %w", action, ErrUnsupportedOperation)
	}
}

func (a *GoogleAdapter) pushCreate(ctx context.Context, creds *integrationDto.TokenData, ev *eventEntity.Event) error {
	body, err := json.Marshal(googleEventBody(ev))
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events", a.cfg.APIBaseURL, googlePrimaryCalendar)
	resp, err := a.do(ctx, http.MethodPost, endpoint, creds.AccessToken, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return apiError("google", resp)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return fmt.Errorf("google create event: decode response: %w", err)
	}
	if created.ID == "" {
		return fmt.Errorf("google create event: response carried no id")
	}

	// The mapping write is the commit point; a failed push must not leave one.
	return a.mappings.Save(ctx, ev.ID, Google, created.ID)
}

func (a *GoogleAdapter) pushUpdate(ctx context.Context, userID uuid.UUID, creds *integrationDto.TokenData, ev *eventEntity.Event) error {
	externalID, err := a.mappings.GetExternalID(ctx, ev.ID, Google)
	if err != nil {
		return err
	}
	if externalID == "" {
		logger.Warn("GoogleAdapter:PushUpdate:NoMapping", "user_id", userID, "event_id", ev.ID)
		return nil
	}

	body, err := json.Marshal(googleEventBody(ev))
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s", a.cfg.APIBaseURL, googlePrimaryCalendar, url.PathEscape(externalID))
	resp, err := a.do(ctx, http.MethodPut, endpoint, creds.AccessToken, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError("google", resp)
	}
	return nil
}

func (a *GoogleAdapter) pushDelete(ctx context.Context, userID uuid.UUID, creds *integrationDto.TokenData, ev *eventEntity.Event) error {
	externalID, err := a.mappings.GetExternalID(ctx, ev.ID, Google)
	if err != nil {
		return err
	}
	if externalID == "" {
		logger.Warn("GoogleAdapter:PushDelete:NoMapping", "user_id", userID, "event_id", ev.ID)
		return nil
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s", a.cfg.APIBaseURL, googlePrimaryCalendar, url.PathEscape(externalID))
	resp, err := a.do(ctx, http.MethodDelete, endpoint, creds.AccessToken, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
	case http.StatusNotFound, http.StatusGone:
		// Already gone remotely; still drop the mapping.
		logger.Warn("GoogleAdapter:PushDelete:AlreadyGone", "user_id", userID, "event_id", ev.ID)
	default:
		return apiError("google", resp)
	}

	return a.mappings.Remove(ctx, ev.ID, Google)
}

func (a *GoogleAdapter) Pull(ctx context.Context, userID uuid.UUID, creds *integrationDto.TokenData) ([]RemoteEvent, error) {
	params := url.Values{}
	params.Set("timeMin", time.Now().UTC().Format(time.RFC3339))
	params.Set("singleEvents", "false")
	params.Set("maxResults", "250")

	endpoint := fmt.Sprintf("%s/calendars/%s/events?%s", a.cfg.APIBaseURL, googlePrimaryCalendar, params.Encode())
	resp, err := a.do(ctx, http.MethodGet, endpoint, creds.AccessToken, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("google", resp)
	}

	var result struct {
		Summary string `json:"summary"`
		Items   []struct {
			ID          string   `json:"id"`
			Status      string   `json:"status"`
			Summary     string   `json:"summary"`
			Description string   `json:"description"`
			Location    string   `json:"location"`
			Recurrence  []string `json:"recurrence"`
			Start       struct {
				DateTime string `json:"dateTime"`
				Date     string `json:"date"`
			} `json:"start"`
			End struct {
				DateTime string `json:"dateTime"`
				Date     string `json:"date"`
			} `json:"end"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("google pull events: decode response: %w", err)
	}

	calendarID, err := a.calendars.Resolve(ctx, userID, Google, googlePrimaryCalendar, result.Summary)
	if err != nil {
		return nil, err
	}

	var events []RemoteEvent
	for _, item := range result.Items {
		if item.Status == "cancelled" || item.ID == "" {
			continue
		}

		// A date-only start means an all-day event.
		allDay := item.Start.Date != ""

		start, err := parseGoogleTime(item.Start.DateTime, item.Start.Date)
		if err != nil {
			logger.Warn("GoogleAdapter:Pull:BadStartTime", "user_id", userID, "external_id", item.ID, "error", err)
			continue
		}
		end, err := parseGoogleTime(item.End.DateTime, item.End.Date)
		if err != nil {
			logger.Warn("GoogleAdapter:Pull:BadEndTime", "user_id", userID, "external_id", item.ID, "error", err)
			continue
		}

		ev := RemoteEvent{
			Provider:    Google,
			ExternalID:  item.ID,
			CalendarID:  calendarID,
			Title:       item.Summary,
			StartTime:   start,
			EndTime:     end,
			AllDay:      allDay,
			Description: optional(item.Description),
			Location:    optional(item.Location),
		}
		if len(item.Recurrence) > 0 {
			ev.Recurrence = optional(strings.Join(item.Recurrence, "\n"))
		}
		events = append(events, ev)
	}

	return events, nil
}

func (a *GoogleAdapter) do(ctx context.Context, method, endpoint, accessToken string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.client.Do(req)
}

func googleEventBody(ev *eventEntity.Event) map[string]any {
	body := map[string]any{
		"summary": ev.Title,
	}
	if ev.Description != nil {
		body["description"] = *ev.Description
	}
	if ev.Location != nil {
		body["location"] = *ev.Location
	}
	if ev.AllDay {
		body["start"] = map[string]string{"date": ev.StartTime.Format("2006-01-02")}
		body["end"] = map[string]string{"date": ev.EndTime.Format("2006-01-02")}
	} else {
		body["start"] = map[string]string{"dateTime": ev.StartTime.Format(time.RFC3339), "timeZone": "UTC"}
		body["end"] = map[string]string{"dateTime": ev.EndTime.Format(time.RFC3339), "timeZone": "UTC"}
	}
	if ev.RecurrenceRule != nil {
		body["recurrence"] = strings.Split(*ev.RecurrenceRule, "\n")
	}
	return body
}

func parseGoogleTime(dateTime, date string) (time.Time, error) {
	if dateTime != "" {
		return time.Parse(time.RFC3339, dateTime)
	}
	return time.Parse("2006-01-02", date)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func apiError(name string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return fmt.Errorf("%s API error: status %d: %s", name, resp.StatusCode, string(body))
}
