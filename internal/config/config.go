package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// JWT
	JWTAccessSecret  string
	JWTRefreshSecret string
	AccessTokenAge   time.Duration
	RefreshTokenAge  time.Duration

	// Feed
	PopularWindow time.Duration // popularランキングの対象期間（リクエスト時点から遡る）
	MaxPageSize   int

	// Signup
	VerificationTokenTTL time.Duration
	CleanupInterval      time.Duration

	// Rate Limit
	RateLimitGeneral int
	RateLimitWrite   int

	// Mail
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	NoreplyEmail string
	SiteName     string

	// Indexing / Reporting
	IndexNowKey      string
	TelegramBotToken string
	TelegramChatID   string

	// Server
	ServerPort   string
	ClientDomain string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTAccessSecret = os.Getenv("JWT_ACCESS_SECRET")
	if cfg.JWTAccessSecret == "" {
		missing = append(missing, "JWT_ACCESS_SECRET")
	}

	cfg.JWTRefreshSecret = os.Getenv("JWT_REFRESH_SECRET")
	if cfg.JWTRefreshSecret == "" {
		missing = append(missing, "JWT_REFRESH_SECRET")
	}

	cfg.ClientDomain = os.Getenv("CLIENT_DOMAIN")
	if cfg.ClientDomain == "" {
		missing = append(missing, "CLIENT_DOMAIN")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.AccessTokenAge = getEnvDuration("ACCESS_TOKEN_AGE", 15*time.Minute)
	cfg.RefreshTokenAge = getEnvDuration("REFRESH_TOKEN_AGE", 30*24*time.Hour)
	cfg.PopularWindow = getEnvDuration("POPULAR_WINDOW", 72*time.Hour)
	cfg.MaxPageSize = getEnvInt("MAX_PAGE_SIZE", 100)
	cfg.VerificationTokenTTL = getEnvDuration("VERIFICATION_TOKEN_TTL", time.Hour)
	cfg.CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitWrite = getEnvInt("RATE_LIMIT_WRITE", 20)
	cfg.SMTPHost = getEnvString("SMTP_HOST", "")
	cfg.SMTPPort = getEnvString("SMTP_PORT", "587")
	cfg.SMTPUser = getEnvString("SMTP_USER", "")
	cfg.SMTPPassword = getEnvString("SMTP_PASSWORD", "")
	cfg.NoreplyEmail = getEnvString("NOREPLY_EMAIL", "")
	cfg.SiteName = getEnvString("SITENAME", "Epyson")
	cfg.IndexNowKey = getEnvString("INDEXNOW_KEY", "")
	cfg.TelegramBotToken = getEnvString("TELEGRAM_BOT_TOKEN", "")
	cfg.TelegramChatID = getEnvString("TELEGRAM_CHAT_ID", "")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.ClientDomain, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
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
