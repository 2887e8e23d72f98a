package service

import (
	"context"
	"time"

	"calsync/core/cache"
	"calsync/core/config"
	"calsync/core/constants"
	"calsync/core/errors"
	"calsync/core/logger"
	"calsync/core/utils"
	"calsync/modules/integration/dto"
	"calsync/modules/sync/provider"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// OAuthService drives the connect/disconnect flow: consent URLs with an
// opaque state parameter that round-trips the initiating user, the callback
// code exchange, and the app-password path for CalDAV.
type OAuthService interface {
	AuthURL(ctx context.Context, p provider.Provider, userID uuid.UUID) (*dto.AuthURLResponse, *errors.AppError)
	HandleCallback(ctx context.Context, p provider.Provider, state, code string) *errors.AppError
	ConnectCalDAV(ctx context.Context, userID uuid.UUID, req *dto.ConnectCalDAVRequest) *errors.AppError
	List(ctx context.Context, userID uuid.UUID) ([]dto.IntegrationResponse, error)
	Disconnect(ctx context.Context, userID uuid.UUID, p provider.Provider) error
}

type oauthService struct {
	tokens TokenService
	cache  cache.Cache
	oauth  config.OAuthProviders
}

func NewOAuthService(tokens TokenService, c cache.Cache, oauth config.OAuthProviders) OAuthService {
	return &oauthService{tokens: tokens, cache: c, oauth: oauth}
}

func (s *oauthService) AuthURL(ctx context.Context, p provider.Provider, userID uuid.UUID) (*dto.AuthURLResponse, *errors.AppError) {
	oauthCfg, ok := s.oauthConfig(p)
	if !ok {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "provider does not support OAuth connect", nil)
	}

	state := utils.GenerateRandomString(32)
	if err := s.cache.Set(ctx, constants.RedisKeyOAuthState+state, userID.String(), constants.OAuthStateTTL); err != nil {
		logger.Error("OAuthService:AuthURL:SaveState:Error", "error", err, "user_id", userID, "provider", p)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to save OAuth state", err)
	}

	url := oauthCfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)

	return &dto.AuthURLResponse{URL: url, State: state}, nil
}

func (s *oauthService) HandleCallback(ctx context.Context, p provider.Provider, state, code string) *errors.AppError {
	oauthCfg, ok := s.oauthConfig(p)
	if !ok {
		return errors.NewAppError(errors.ErrInvalidInput, "provider does not support OAuth connect", nil)
	}

	key := constants.RedisKeyOAuthState + state
	userIDStr, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.Error("OAuthService:HandleCallback:GetState:Error", "error", err, "provider", p)
		return errors.NewAppError(errors.ErrInternalServer, "failed to load OAuth state", err)
	}
	if userIDStr == "" {
		return errors.NewAppError(errors.ErrInvalidInput, "invalid or expired OAuth state", nil)
	}
	_ = s.cache.Del(ctx, key)

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return errors.NewAppError(errors.ErrInvalidInput, "invalid OAuth state payload", err)
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, constants.DefaultTimeout)
	defer cancel()

	token, err := oauthCfg.Exchange(exchangeCtx, code)
	if err != nil {
		logger.Error("OAuthService:HandleCallback:Exchange:Error", "error", err, "user_id", userID, "provider", p)
		return errors.NewAppError(errors.ErrUnauthorized, "failed to exchange authorization code", err)
	}

	tokens := &dto.TokenData{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		tokens.ExpiresAt = &expiry
	}

	if err := s.tokens.Store(ctx, userID, p, tokens); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to store tokens", err)
	}

	logger.Info("OAuthService:HandleCallback:Connected", "user_id", userID, "provider", p)
	return nil
}

func (s *oauthService) ConnectCalDAV(ctx context.Context, userID uuid.UUID, req *dto.ConnectCalDAVRequest) *errors.AppError {
	if req.Email == "" || req.AppPassword == "" {
		return errors.NewAppError(errors.ErrInvalidRequestData, "email and app_password are required", nil)
	}

	tokens := &dto.TokenData{
		AppPassword: req.AppPassword,
		Email:       req.Email,
	}
	if err := s.tokens.Store(ctx, userID, provider.CalDAV, tokens); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to store credentials", err)
	}

	logger.Info("OAuthService:ConnectCalDAV:Connected", "user_id", userID)
	return nil
}

func (s *oauthService) List(ctx context.Context, userID uuid.UUID) ([]dto.IntegrationResponse, error) {
	creds, err := s.tokens.ListConnected(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.IntegrationResponse, 0, len(creds))
	for _, cred := range creds {
		resp := dto.IntegrationResponse{
			Provider:    cred.Provider,
			ConnectedAt: cred.CreatedAt.Format(time.RFC3339),
			ExpiresAt:   cred.ExpiresAt,
		}
		if cred.ProviderEmail != nil {
			resp.Email = *cred.ProviderEmail
		}
		result = append(result, resp)
	}
	return result, nil
}

func (s *oauthService) Disconnect(ctx context.Context, userID uuid.UUID, p provider.Provider) error {
	return s.tokens.Remove(ctx, userID, p)
}

func (s *oauthService) oauthConfig(p provider.Provider) (*oauth2.Config, bool) {
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
