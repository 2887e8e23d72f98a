package dto

import "time"

// TokenData is the transient token shape exchanged between the token
// lifecycle service and its callers. For the CalDAV provider AppPassword is
// set instead of the OAuth fields.
type TokenData struct {
	AccessToken  string     `json:"access_token,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	AppPassword  string     `json:"-"`
	Email        string     `json:"email,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

type IntegrationResponse struct {
	Provider    string     `json:"provider"`
	Email       string     `json:"email,omitempty"`
	ConnectedAt string     `json:"connected_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type IntegrationListResponse struct {
	Integrations []IntegrationResponse `json:"integrations"`
}

type AuthURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

type ConnectCalDAVRequest struct {
	Email       string `json:"email" validate:"required"`
	AppPassword string `json:"app_password" validate:"required"`
}
