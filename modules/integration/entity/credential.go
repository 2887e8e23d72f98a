package entity

import (
	"time"

	"calsync/core/entity"

	"github.com/google/uuid"
)

// Credential stores one provider connection per (user, provider). OAuth
// providers carry tokens; the CalDAV provider carries an app-specific
// password instead.
type Credential struct {
	entity.BaseEntity
	UserID        uuid.UUID  `db:"user_id" json:"user_id"`
	Provider      string     `db:"provider" json:"provider"`
	AccessToken   *string    `db:"access_token" json:"-"`
	RefreshToken  *string    `db:"refresh_token" json:"-"`
	AppPassword   *string    `db:"app_password" json:"-"`
	ProviderEmail *string    `db:"provider_email" json:"provider_email,omitempty"`
	ExpiresAt     *time.Time `db:"expires_at" json:"expires_at,omitempty"`
}

func (Credential) TableName() string {
	return "calendar_credentials"
}
