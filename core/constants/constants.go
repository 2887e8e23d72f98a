package constants

import "time"

const (
	// DefaultTimeout bounds every outbound HTTP call so one unreachable
	// provider cannot stall a whole sync fan-out.
	DefaultTimeout = 30 * time.Second

	// TokenExpirySkew refreshes tokens slightly before their reported expiry.
	TokenExpirySkew = 5 * time.Minute

	// OAuthStateTTL is how long a consent-screen state parameter stays valid.
	OAuthStateTTL = 10 * time.Minute

	RedisKeyOAuthState = "oauth_state:"
)

const (
	DatabaseSSLMode         = "disable"
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
)
