package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port      int
	LogLevel  string
	JWTSecret string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// OAuthProvider holds everything an OAuth2 calendar provider needs: the app
// registration, the endpoints, and the REST base URL. Endpoints are
// configurable so tests can point them at local fakes.
type OAuthProvider struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	AuthURL      string
	TokenURL     string
	APIBaseURL   string
}

type OAuthProviders struct {
	Google  OAuthProvider
	Outlook OAuthProvider
}

type CalDAVConfig struct {
	ServerURL string
}

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	OAuth    OAuthProviders
	CalDAV   CalDAVConfig
}

var (
	mu       sync.RWMutex
	instance *Config
)

// Load reads .env (if present) and the environment, builds the config and
// stores it as the process-wide instance.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("SERVER_PORT", 7070)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "calsync")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("GOOGLE_AUTH_URL", "https://accounts.google.com/o/oauth2/auth")
	v.SetDefault("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token")
	v.SetDefault("GOOGLE_API_BASE_URL", "https://www.googleapis.com/calendar/v3")
	v.SetDefault("OUTLOOK_AUTH_URL", "https://login.microsoftonline.com/common/oauth2/v2.0/authorize")
	v.SetDefault("OUTLOOK_TOKEN_URL", "https://login.microsoftonline.com/common/oauth2/v2.0/token")
	v.SetDefault("OUTLOOK_API_BASE_URL", "https://graph.microsoft.com/v1.0")
	v.SetDefault("CALDAV_SERVER_URL", "https://caldav.icloud.com")

	cfg := &Config{
		Server: ServerConfig{
			Port:      v.GetInt("SERVER_PORT"),
			LogLevel:  v.GetString("LOG_LEVEL"),
			JWTSecret: v.GetString("JWT_SECRET"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		OAuth: OAuthProviders{
			Google: OAuthProvider{
				ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
				ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
				RedirectURI:  v.GetString("GOOGLE_REDIRECT_URI"),
				Scopes: []string{
					"https://www.googleapis.com/auth/calendar",
					"https://www.googleapis.com/auth/userinfo.email",
				},
				AuthURL:    v.GetString("GOOGLE_AUTH_URL"),
				TokenURL:   v.GetString("GOOGLE_TOKEN_URL"),
				APIBaseURL: v.GetString("GOOGLE_API_BASE_URL"),
			},
			Outlook: OAuthProvider{
				ClientID:     v.GetString("OUTLOOK_CLIENT_ID"),
				ClientSecret: v.GetString("OUTLOOK_CLIENT_SECRET"),
				RedirectURI:  v.GetString("OUTLOOK_REDIRECT_URI"),
				Scopes: []string{
					"offline_access",
					"https://graph.microsoft.com/Calendars.ReadWrite",
				},
				AuthURL:    v.GetString("OUTLOOK_AUTH_URL"),
				TokenURL:   v.GetString("OUTLOOK_TOKEN_URL"),
				APIBaseURL: v.GetString("OUTLOOK_API_BASE_URL"),
			},
		},
		CalDAV: CalDAVConfig{
			ServerURL: v.GetString("CALDAV_SERVER_URL"),
		},
	}

	if cfg.Server.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	mu.Lock()
	instance = cfg
	mu.Unlock()

	return cfg, nil
}

// Get returns the loaded config; panics if Load was never called.
func Get() *Config {
	cfg, ok := GetSafe()
	if !ok {
		panic("config: Get called before Load")
	}
	return cfg
}

// GetSafe returns the loaded config and whether it was initialized.
func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return instance, instance != nil
}
