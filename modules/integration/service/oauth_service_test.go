package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"calsync/core/constants"
	"calsync/modules/integration/dto"
	"calsync/modules/sync/provider"

	"github.com/google/uuid"
)

type fakeCache struct {
	values map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (c *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.values[key] = value
	return nil
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	return c.values[key], nil
}

func (c *fakeCache) Del(_ context.Context, key string) error {
	delete(c.values, key)
	return nil
}

func TestAuthURLStoresStateAndBuildsConsentURL(t *testing.T) {
	cache := newFakeCache()
	svc := NewOAuthService(
		NewTokenService(newFakeCredentialRepo(), oauthProvidersWithTokenURL("http://localhost/token")),
		cache,
		oauthProvidersWithTokenURL("http://localhost/token"),
	)

	userID := uuid.New()
	resp, appErr := svc.AuthURL(context.Background(), provider.Google, userID)
	if appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}
	if resp.State == "" {
		t.Fatal("expected a state parameter")
	}
	if !strings.Contains(resp.URL, "state="+resp.State) {
		t.Fatalf("consent URL must carry the state, got %s", resp.URL)
	}
	if !strings.Contains(resp.URL, "access_type=offline") {
		t.Fatalf("consent URL must request offline access, got %s", resp.URL)
	}
	if got := cache.values[constants.RedisKeyOAuthState+resp.State]; got != userID.String() {
		t.Fatalf("state must round-trip the user id, got %q", got)
	}
}

func TestAuthURLRejectsCalDAV(t *testing.T) {
	svc := NewOAuthService(
		NewTokenService(newFakeCredentialRepo(), oauthProvidersWithTokenURL("http://localhost/token")),
		newFakeCache(),
		oauthProvidersWithTokenURL("http://localhost/token"),
	)

	if _, appErr := svc.AuthURL(context.Background(), provider.CalDAV, uuid.New()); appErr == nil {
		t.Fatal("CalDAV connects with an app password, not OAuth")
	}
}

func TestHandleCallbackExchangesCodeAndStoresTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"exchanged","refresh_token":"refresh","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	repo := newFakeCredentialRepo()
	tokens := NewTokenService(repo, oauthProvidersWithTokenURL(server.URL))
	cache := newFakeCache()
	svc := NewOAuthService(tokens, cache, oauthProvidersWithTokenURL(server.URL))

	userID := uuid.New()
	state := "test-state"
	cache.Set(context.Background(), constants.RedisKeyOAuthState+state, userID.String(), constants.OAuthStateTTL)

	if appErr := svc.HandleCallback(context.Background(), provider.Google, state, "auth-code"); appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}

	stored, _ := repo.GetByUserAndProvider(context.Background(), userID, string(provider.Google))
	if stored == nil || stored.AccessToken == nil || *stored.AccessToken != "exchanged" {
		t.Fatalf("exchanged tokens not stored: %+v", stored)
	}
	if _, ok := cache.values[constants.RedisKeyOAuthState+state]; ok {
		t.Fatal("state must be single-use")
	}
}

func TestHandleCallbackRejectsUnknownState(t *testing.T) {
	svc := NewOAuthService(
		NewTokenService(newFakeCredentialRepo(), oauthProvidersWithTokenURL("http://localhost/token")),
		newFakeCache(),
		oauthProvidersWithTokenURL("http://localhost/token"),
	)

	if appErr := svc.HandleCallback(context.Background(), provider.Google, "unknown", "code"); appErr == nil {
		t.Fatal("expected an error for an unknown state")
	}
}

func TestConnectCalDAVStoresAppPassword(t *testing.T) {
	repo := newFakeCredentialRepo()
	tokens := NewTokenService(repo, oauthProvidersWithTokenURL("http://localhost/token"))
	svc := NewOAuthService(tokens, newFakeCache(), oauthProvidersWithTokenURL("http://localhost/token"))

	userID := uuid.New()
	appErr := svc.ConnectCalDAV(context.Background(), userID, &dto.ConnectCalDAVRequest{
		Email:       "user@icloud.com",
		AppPassword: "abcd-efgh-ijkl-mnop",
	})
	if appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}

	stored, _ := repo.GetByUserAndProvider(context.Background(), userID, string(provider.CalDAV))
	if stored == nil || stored.AppPassword == nil || *stored.AppPassword != "abcd-efgh-ijkl-mnop" {
		t.Fatalf("app password not stored: %+v", stored)
	}
}

func TestConnectCalDAVRequiresBothFields(t *testing.T) {
	svc := NewOAuthService(
		NewTokenService(newFakeCredentialRepo(), oauthProvidersWithTokenURL("http://localhost/token")),
		newFakeCache(),
		oauthProvidersWithTokenURL("http://localhost/token"),
	)

	if appErr := svc.ConnectCalDAV(context.Background(), uuid.New(), &dto.ConnectCalDAVRequest{Email: "user@icloud.com"}); appErr == nil {
		t.Fatal("expected an error when the app password is missing")
	}
}

func TestDisconnectThenListIsEmpty(t *testing.T) {
	repo := newFakeCredentialRepo()
	tokens := NewTokenService(repo, oauthProvidersWithTokenURL("http://localhost/token"))
	svc := NewOAuthService(tokens, newFakeCache(), oauthProvidersWithTokenURL("http://localhost/token"))

	userID := uuid.New()
	svc.ConnectCalDAV(context.Background(), userID, &dto.ConnectCalDAVRequest{
		Email:       "user@icloud.com",
		AppPassword: "pass",
	})

	if err := svc.Disconnect(context.Background(), userID, provider.CalDAV); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	// Disconnecting again stays quiet.
	if err := svc.Disconnect(context.Background(), userID, provider.CalDAV); err != nil {
		t.Fatalf("disconnect must be idempotent: %v", err)
	}

	list, err := svc.List(context.Background(), userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no integrations, got %+v", list)
	}
}
