package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

// Enabled reports whether every value needed to upload and link an object is set.
func (r R2) Enabled() bool {
	return r.AccountID != "" && r.AccessKey != "" && r.SecretKey != "" && r.BucketName != "" && r.PublicURL != ""
}

type Instagram struct {
	UserID      string
	AccessToken string
	APIVersion  string
	GraphURL    string
	RefreshURL  string
	SettleWait  time.Duration
}

type Freeimage struct {
	APIKey    string
	UploadURL string
}

type Scheduler struct {
	Enabled             bool
	Interval            time.Duration
	Backoff             time.Duration
	TokenRefreshEnabled bool
}

type Config struct {
	PostgresURI     string
	RedisURI        string
	Port            string
	SecretKey       string
	CookieName      string
	OperatorAPIKey  string
	PublicBaseURL   string
	MediaRoot       string
	DefaultTimezone string
	LogLevel        string
	Instagram       Instagram
	Freeimage       Freeimage
	R2              R2
	Scheduler       Scheduler
}

const DefaultPublicBaseURL = "http://localhost:8000"

func LoadConfig() *Config {
	return &Config{
		PostgresURI:     getEnv("POSTGRES_URI", ""),
		RedisURI:        getEnv("REDIS_URI", ""),
		Port:            getEnv("PORT", "3000"),
		SecretKey:       getEnv("SECRET_KEY", ""),
		CookieName:      getEnv("COOKIE_NAME", "velvetqueue_session"),
		OperatorAPIKey:  getEnv("OPERATOR_API_KEY", ""),
		PublicBaseURL:   strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		MediaRoot:       getEnv("MEDIA_ROOT", "."),
		DefaultTimezone: getEnv("DEFAULT_TIMEZONE", "UTC"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Instagram: Instagram{
			UserID:      sanitizeSecret(getEnv("INSTAGRAM_USER_ID", "")),
			AccessToken: sanitizeSecret(getEnv("INSTAGRAM_ACCESS_TOKEN", "")),
			APIVersion:  getEnv("INSTAGRAM_API_VERSION", "v21.0"),
			GraphURL:    strings.TrimRight(getEnv("INSTAGRAM_GRAPH_URL", "https://graph.facebook.com"), "/"),
			RefreshURL:  strings.TrimRight(getEnv("INSTAGRAM_REFRESH_URL", "https://graph.instagram.com"), "/"),
			SettleWait:  getEnvDuration("INSTAGRAM_SETTLE_WAIT", 60*time.Second),
		},
		Freeimage: Freeimage{
			APIKey:    getEnv("FREEIMAGE_HOST_API_KEY", ""),
			UploadURL: getEnv("FREEIMAGE_HOST_URL", "https://freeimage.host/api/1/upload"),
		},
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  strings.TrimRight(getEnv("R2_PUBLIC_URL", ""), "/"),
		},
		Scheduler: Scheduler{
			Enabled:             getEnvBool("SCHEDULER_ENABLED", true),
			Interval:            time.Duration(getEnvInt("SCHEDULER_INTERVAL_SECONDS", 30)) * time.Second,
			Backoff:             5 * time.Second,
			TokenRefreshEnabled: getEnvBool("TOKEN_REFRESH_ENABLED", false),
		},
	}
}

// EnvCredentials returns the account id and token supplied through the
// environment for a platform. ok is false unless both are present.
func (c Config) EnvCredentials(platform string) (userID, token string, ok bool) {
	switch platform {
	case "instagram":
		userID, token = c.Instagram.UserID, c.Instagram.AccessToken
	}
	return userID, token, userID != "" && token != ""
}

// Location resolves DefaultTimezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "":
		return defaultValue
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(raw); err == nil && d >= 0 {
		return d
	}
	return defaultValue
}

// sanitizeSecret strips whitespace and wrapping quotes that often sneak in from .env files.
func sanitizeSecret(value string) string {
	return strings.Trim(strings.TrimSpace(value), `"'`)
}
