package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"calsync/core/config"
	"calsync/core/constants"
	"calsync/core/logger"
	eventEntity "calsync/modules/event/entity"
	integrationDto "calsync/modules/integration/dto"

	"github.com/google/uuid"
)

// Graph returns fractional seconds without an offset; times are forced to
// UTC through the Prefer header so both layouts parse as UTC.
const (
	graphTimeLayout           = "2006-01-02T15:04:05"
	graphTimeLayoutFractional = "2006-01-02T15:04:05.9999999"
)

// OutlookAdapter drives the Microsoft Graph calendar endpoints for the
// signed-in mailbox.
type OutlookAdapter struct {
	cfg       config.OAuthProvider
	mappings  MappingStore
	calendars CalendarResolver
	client    *http.Client
}

func NewOutlookAdapter(cfg config.OAuthProvider, mappings MappingStore, calendars CalendarResolver) *OutlookAdapter {
	return &OutlookAdapter{
		cfg:       cfg,
		mappings:  mappings,
		calendars: calendars,
		client:    &http.Client{Timeout: constants.DefaultTimeout},
	}
}

func (a *OutlookAdapter) Provider() Provider {
	return Outlook
}

func (a *OutlookAdapter) Push(ctx context.Context, userID uuid.UUID, creds *integrationDto.TokenData, ev *eventEntity.Event, action Action) error {
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

func (a *OutlookAdapter) pushCreate(ctx context.Context, creds *integrationDto.TokenData, ev *eventEntity.Event) error {
	body, err := json.Marshal(graphEventBody(ev))
	if err != nil {
		return err
	}

	resp, err := a.do(ctx, http.MethodPost, a.cfg.APIBaseURL+"/me/events", creds.AccessToken, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return apiError("outlook", resp)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return fmt.Errorf("outlook create event: decode response: %w", err)
	}
	if created.ID == "" {
		return fmt.Errorf("outlook create event: response carried no id")
	}

	return a.mappings.Save(ctx, ev.ID, Outlook, created.ID)
}

func (a *OutlookAdapter) pushUpdate(ctx context.Context, userID uuid.UUID, creds *integrationDto.TokenData, ev *eventEntity.Event) error {
	externalID, err := a.mappings.GetExternalID(ctx, ev.ID, Outlook)
	if err != nil {
		return err
	}
	if externalID == "" {
		logger.Warn("OutlookAdapter:PushUpdate:NoMapping", "user_id", userID, "event_id", ev.ID)
		return nil
	}

	body, err := json.Marshal(graphEventBody(ev))
	if err != nil {
		return err
	}

	endpoint := a.cfg.APIBaseURL + "/me/events/" + url.PathEscape(externalID)
	resp, err := a.do(ctx, http.MethodPatch, endpoint, creds.AccessToken, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError("outlook", resp)
	}
	return nil
}

func (a *OutlookAdapter) pushDelete(ctx context.Context, userID uuid.UUID, creds *integrationDto.TokenData, ev *eventEntity.Event) error {
	externalID, err := a.mappings.GetExternalID(ctx, ev.ID, Outlook)
	if err != nil {
		return err
	}
	if externalID == "" {
		logger.Warn("OutlookAdapter:PushDelete:NoMapping", "user_id", userID, "event_id", ev.ID)
		return nil
	}

	endpoint := a.cfg.APIBaseURL + "/me/events/" + url.PathEscape(externalID)
	resp, err := a.do(ctx, http.MethodDelete, endpoint, creds.AccessToken, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK:
	case http.StatusNotFound, http.StatusGone:
		logger.Warn("OutlookAdapter:PushDelete:AlreadyGone", "user_id", userID, "event_id", ev.ID)
	default:
		return apiError("outlook", resp)
	}

	return a.mappings.Remove(ctx, ev.ID, Outlook)
}

func (a *OutlookAdapter) Pull(ctx context.Context, userID uuid.UUID, creds *integrationDto.TokenData) ([]RemoteEvent, error) {
	params := url.Values{}
	params.Set("$filter", fmt.Sprintf("start/dateTime ge '%s'", time.Now().UTC().Format(graphTimeLayout)))
	params.Set("$top", "250")
	params.Set("$orderby", "start/dateTime")

	resp, err := a.do(ctx, http.MethodGet, a.cfg.APIBaseURL+"/me/events?"+params.Encode(), creds.AccessToken, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("outlook", resp)
	}

	var result struct {
		Value []struct {
			ID      string `json:"id"`
			Subject string `json:"subject"`
			Body    struct {
				Content string `json:"content"`
			} `json:"body"`
			BodyPreview string `json:"bodyPreview"`
			Location    struct {
				DisplayName string `json:"displayName"`
			} `json:"location"`
			IsAllDay    bool            `json:"isAllDay"`
			IsCancelled bool            `json:"isCancelled"`
			Recurrence  json.RawMessage `json:"recurrence"`
			Start       struct {
				DateTime string `json:"dateTime"`
			} `json:"start"`
			End struct {
				DateTime string `json:"dateTime"`
			} `json:"end"`
		} `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("outlook pull events: decode response: %w", err)
	}

	calendarID, err := a.calendars.Resolve(ctx, userID, Outlook, "me", "Outlook Calendar")
	if err != nil {
		return nil, err
	}

	var events []RemoteEvent
	for _, item := range result.Value {
		if item.IsCancelled || item.ID == "" {
			continue
		}

		start, err := parseGraphTime(item.Start.DateTime)
		if err != nil {
			logger.Warn("OutlookAdapter:Pull:BadStartTime", "user_id", userID, "external_id", item.ID, "error", err)
			continue
		}
		end, err := parseGraphTime(item.End.DateTime)
		if err != nil {
			logger.Warn("OutlookAdapter:Pull:BadEndTime", "user_id", userID, "external_id", item.ID, "error", err)
			continue
		}

		ev := RemoteEvent{
			Provider:    Outlook,
			ExternalID:  item.ID,
			CalendarID:  calendarID,
			Title:       item.Subject,
			StartTime:   start,
			EndTime:     end,
			AllDay:      item.IsAllDay,
			Description: optional(item.BodyPreview),
			Location:    optional(item.Location.DisplayName),
		}
		// Graph recurrence is a structured object; carry it opaquely.
		if len(item.Recurrence) > 0 && string(item.Recurrence) != "null" {
			ev.Recurrence = optional(string(item.Recurrence))
		}
		events = append(events, ev)
	}

	return events, nil
}

func (a *OutlookAdapter) do(ctx context.Context, method, endpoint, accessToken string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Prefer", `outlook.timezone="UTC"`)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.client.Do(req)
}

func graphEventBody(ev *eventEntity.Event) map[string]any {
	body := map[string]any{
		"subject":  ev.Title,
		"isAllDay": ev.AllDay,
		"start": map[string]string{
			"dateTime": ev.StartTime.UTC().Format(graphTimeLayout),
			"timeZone": "UTC",
		},
		"end": map[string]string{
			"dateTime": ev.EndTime.UTC().Format(graphTimeLayout),
			"timeZone": "UTC",
		},
	}
	if ev.Description != nil {
		body["body"] = map[string]string{
			"contentType": "text",
			"content":     *ev.Description,
		}
	}
	if ev.Location != nil {
		body["location"] = map[string]string{"displayName": *ev.Location}
	}
	return body
}

func parseGraphTime(value string) (time.Time, error) {
	t, err := time.ParseInLocation(graphTimeLayout, value, time.UTC)
	if err == nil {
		return t, nil
	}
	return time.ParseInLocation(graphTimeLayoutFractional, value, time.UTC)
}
