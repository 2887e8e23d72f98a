package provider

import (
	"context"
	"errors"
	"time"

	eventEntity "calsync/modules/event/entity"
	integrationDto "calsync/modules/integration/dto"

	"github.com/google/uuid"
)

// Provider is the closed set of supported calendar providers.
type Provider string

const (
	Google  Provider = "google"
	Outlook Provider = "outlook"
	CalDAV  Provider = "caldav"
)

func Parse(s string) (Provider, bool) {
	switch Provider(s) {
	case Google, Outlook, CalDAV:
		return Provider(s), true
	}
	return "", false
}

func All() []Provider {
	return []Provider{Google, Outlook, CalDAV}
}

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ErrUnsupportedOperation signals that a provider cannot perform the
// requested operation at all, as opposed to a transient remote failure.
var ErrUnsupportedOperation = errors.New("operation not supported by provider")

// RemoteEvent is an event fetched from a provider, carrying its external
// identity but no local id yet; id assignment happens during inbound
// reconciliation.
type RemoteEvent struct {
	Provider    Provider
	ExternalID  string
	CalendarID  uuid.UUID // local calendar resolved during the pull
	Title       string
	Description *string
	Location    *string
	StartTime   time.Time
	EndTime     time.Time
	AllDay      bool
	Recurrence  *string
}

// MappingStore links local event ids to provider-side ids. Outbound routing
// looks up by (local id, provider); inbound reconciliation upserts by
// (provider, external id).
type MappingStore interface {
	// GetExternalID returns "" when no mapping exists.
	GetExternalID(ctx context.Context, localID uuid.UUID, p Provider) (string, error)
	// Save upserts the mapping keyed by (localID, provider).
	Save(ctx context.Context, localID uuid.UUID, p Provider, externalID string) error
	// UpsertByExternal repoints the local id when the same remote object is seen again.
	UpsertByExternal(ctx context.Context, p Provider, externalID string, localID uuid.UUID) error
	// Remove is idempotent.
	Remove(ctx context.Context, localID uuid.UUID, p Provider) error
}

// CalendarResolver resolves the local calendar a remote calendar maps to,
// creating one on first sight. Repeated calls for the same remote calendar
// must return the same local calendar.
type CalendarResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID, p Provider, remoteID, remoteName string) (uuid.UUID, error)
}

// Adapter is the per-provider capability set. Implementations own their wire
// protocol and the mapping writes tied to push results.
type Adapter interface {
	Provider() Provider
	Push(ctx context.Context, userID uuid.UUID, creds *integrationDto.TokenData, ev *eventEntity.Event, action Action) error
	Pull(ctx context.Context, userID uuid.UUID, creds *integrationDto.TokenData) ([]RemoteEvent, error)
}

// Registry holds one adapter per provider; dispatch is checked against the
// closed enum instead of switching on strings at call sites.
type Registry struct {
	adapters map[Provider]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[Provider]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Provider()] = a
	}
	return r
}

func (r *Registry) Get(p Provider) (Adapter, bool) {
	a, ok := r.adapters[p]
	return a, ok
}
