package service

import (
	"context"
	"time"

	"calsync/core/config"
	"calsync/core/constants"
	"calsync/core/logger"
	"calsync/modules/integration/dto"
	"calsync/modules/integration/entity"
	"calsync/modules/integration/repository"
	"calsync/modules/sync/provider"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// TokenService owns the credential lifecycle: store on connect, refresh on
// read, remove on disconnect. Callers never see a "stale credential" state;
// an expired credential that cannot be refreshed reads as disconnected.
type TokenService interface {
	Store(ctx context.Context, userID uuid.UUID, p provider.Provider, tokens *dto.TokenData) error
	// Get returns nil, nil when the provider is not connected or the
	// credential is expired and could not be refreshed.
	Get(ctx context.Context, userID uuid.UUID, p provider.Provider) (*dto.TokenData, error)
	// Refresh returns nil, nil for providers without refresh capability and
	// on token-endpoint failure; the stored credential is kept either way.
	Refresh(ctx context.Context, userID uuid.UUID, p provider.Provider) (*dto.TokenData, error)
	Remove(ctx context.Context, userID uuid.UUID, p provider.Provider) error
	ListConnected(ctx context.Context, userID uuid.UUID) ([]entity.Credential, error)
}

type tokenService struct {
	repo  repository.CredentialRepository
	oauth config.OAuthProviders
}

func NewTokenService(repo repository.CredentialRepository, oauth config.OAuthProviders) TokenService {
	return &tokenService{repo: repo, oauth: oauth}
}

func (s *tokenService) Store(ctx context.Context, userID uuid.UUID, p provider.Provider, tokens *dto.TokenData) error {
	cred := &entity.Credential{
		UserID:   userID,
		Provider: string(p),
	}
	if tokens.AccessToken != "" {
		cred.AccessToken = &tokens.AccessToken
	}
	if tokens.RefreshToken != "" {
		cred.RefreshToken = &tokens.RefreshToken
	}
	if tokens.AppPassword != "" {
		cred.AppPassword = &tokens.AppPassword
	}
	if tokens.Email != "" {
		cred.ProviderEmail = &tokens.Email
	}
	cred.ExpiresAt = tokens.ExpiresAt

	return s.repo.Upsert(ctx, cred)
}

func (s *tokenService) Get(ctx context.Context, userID uuid.UUID, p provider.Provider) (*dto.TokenData, error) {
	cred, err := s.repo.GetByUserAndProvider(ctx, userID, string(p))
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, nil
	}

	tokens := credentialTokens(cred)

	// No expiry tracked means the credential never goes stale on its own.
	if cred.ExpiresAt == nil {
		return tokens, nil
	}

	if time.Now().Before(cred.ExpiresAt.Add(-constants.TokenExpirySkew)) {
		return tokens, nil
	}

	refreshed, err := s.Refresh(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	if refreshed == nil {
		logger.Warn("TokenService:Get:ExpiredAndUnrefreshable", "user_id", userID, "provider", p)
		return nil, nil
	}
	return refreshed, nil
}

func (s *tokenService) Refresh(ctx context.Context, userID uuid.UUID, p provider.Provider) (*dto.TokenData, error) {
	if p == provider.CalDAV {
		// App passwords have no refresh flow; this is terminal, not retryable.
		logger.Info("TokenService:Refresh:NoRefreshCapability", "user_id", userID, "provider", p)
		return nil, nil
	}

	cred, err := s.repo.GetByUserAndProvider(ctx, userID, string(p))
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, nil
	}
	if cred.RefreshToken == nil || *cred.RefreshToken == "" {
		logger.Warn("TokenService:Refresh:NoRefreshToken", "user_id", userID, "provider", p)
		return nil, nil
	}

	oauthCfg, ok := s.oauthConfig(p)
	if !ok {
		logger.Warn("TokenService:Refresh:ProviderNotConfigured", "provider", p)
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DefaultTimeout)
	defer cancel()

	tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: *cred.RefreshToken})
	newToken, err := tokenSource.Token()
	if err != nil {
		// Transient outages must not force re-authentication, so the stored
		// credential is left in place.
		logger.Warn("TokenService:Refresh:TokenEndpointError", "error", err, "user_id", userID, "provider", p)
		return nil, nil
	}

	tokens := &dto.TokenData{
		AccessToken:  newToken.AccessToken,
		RefreshToken: newToken.RefreshToken,
	}
	if tokens.RefreshToken == "" {
		// Providers often omit the refresh token on refresh; keep the old one.
		tokens.RefreshToken = *cred.RefreshToken
	}
	if !newToken.Expiry.IsZero() {
		expiry := newToken.Expiry
		tokens.ExpiresAt = &expiry
	}
	if cred.ProviderEmail != nil {
		tokens.Email = *cred.ProviderEmail
	}

	if err := s.Store(ctx, userID, p, tokens); err != nil {
		return nil, err
	}

	logger.Info("TokenService:Refresh:Success", "user_id", userID, "provider", p)
	return tokens, nil
}

func (s *tokenService) Remove(ctx context.Context, userID uuid.UUID, p provider.Provider) error {
	return s.repo.Delete(ctx, userID, string(p))
}

func (s *tokenService) ListConnected(ctx context.Context, userID uuid.UUID) ([]entity.Credential, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *tokenService) oauthConfig(p provider.Provider) (*oauth2.Config, bool) {
	var pc config.OAuthProvider
	switch p {
	case provider.Google:
		pc = s.oauth.Google
	case provider.Outlook:
		pc = s.oauth.Outlook
	default:
		return nil, false
	}

	return &oauth2.Config{
		ClientID:     pc.ClientID,
		ClientSecret: pc.ClientSecret,
		RedirectURL:  pc.RedirectURI,
		Scopes:       pc.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  pc.AuthURL,
			TokenURL: pc.TokenURL,
		},
	}, true
}

func credentialTokens(cred *entity.Credential) *dto.TokenData {
	tokens := &dto.TokenData{ExpiresAt: cred.ExpiresAt}
	if cred.AccessToken != nil {
		tokens.AccessToken = *cred.AccessToken
	}
	if cred.RefreshToken != nil {
		tokens.RefreshToken = *cred.RefreshToken
	}
	if cred.AppPassword != nil {
		tokens.AppPassword = *cred.AppPassword
	}
	if cred.ProviderEmail != nil {
		tokens.Email = *cred.ProviderEmail
	}
	return tokens
}
