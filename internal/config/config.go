package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Client
	APIBaseURL      string
	SessionFile     string
	HTTPTimeout     time.Duration
	NotificationTTL time.Duration

	// Preview
	PreviewTimeout time.Duration
	PreviewMaxSize int64

	// Server
	ServerPort       string
	DatabaseURL      string
	TokenTTL         time.Duration
	BcryptCost       int
	EnableTestingAPI bool

	// Rate Limit
	RateLimitGeneral int
	RateLimitLogin   int

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogLevel string
}

// Load は環境変数からConfigを読み込む。
// DATABASE_URLは任意で、未設定の場合サーバーはインメモリストアで動作する。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.APIBaseURL = getEnvString("BLOG_API_BASE_URL", "http://localhost:3003/api")
	if _, err := url.ParseRequestURI(cfg.APIBaseURL); err != nil {
		return nil, fmt.Errorf("invalid BLOG_API_BASE_URL %q: %w", cfg.APIBaseURL, err)
	}

	sessionFile := os.Getenv("BLOG_SESSION_FILE")
	if sessionFile == "" {
		var err error
		sessionFile, err = DefaultSessionFile()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve session file path: %w", err)
		}
	}
	cfg.SessionFile = sessionFile

	cfg.HTTPTimeout = getEnvDuration("HTTP_TIMEOUT", 10*time.Second)
	cfg.NotificationTTL = getEnvDuration("NOTIFICATION_TTL", 5*time.Second)

	cfg.PreviewTimeout = getEnvDuration("PREVIEW_TIMEOUT", 10*time.Second)
	cfg.PreviewMaxSize = getEnvInt64("PREVIEW_MAX_SIZE", 1048576)

	cfg.ServerPort = getEnvString("SERVER_PORT", "3003")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 24*time.Hour)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	cfg.EnableTestingAPI = getEnvBool("ENABLE_TESTING_API", false)

	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 10)

	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")

	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

// DefaultSessionFile はセッションファイルのデフォルトパスを返す。
// OSごとのユーザー設定ディレクトリ配下のblogman/session.jsonを使用する。
func DefaultSessionFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "blogman", "session.json"), nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
