package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL    string
	DBMaxOpenConns int
	DBMaxIdleConns int
	DBConnMaxLife  time.Duration

	// Redis（空の場合はプロフィールキャッシュを使わない）
	RedisURL        string
	ProfileCacheTTL time.Duration

	// Entitlement
	AnonymousVideoLimit int
	FreeVideoLimit      int
	PaidVideoLimit      int

	// Freshness
	StaleAfter time.Duration

	// Request
	RequestTimeout time.Duration

	// Rate Limit
	RateLimitPerMinute int

	// Logging
	LogLevel string

	// Server
	ServerPort      string
	ShutdownTimeout time.Duration

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合、または件数上限・期間が正でない場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 20)
	cfg.DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 10)
	cfg.DBConnMaxLife = getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	cfg.RedisURL = getEnvString("REDIS_URL", "")
	cfg.ProfileCacheTTL = getEnvDuration("PROFILE_CACHE_TTL", time.Minute)
	cfg.AnonymousVideoLimit = getEnvInt("ANONYMOUS_VIDEO_LIMIT", 20)
	cfg.FreeVideoLimit = getEnvInt("FREE_VIDEO_LIMIT", 20)
	cfg.PaidVideoLimit = getEnvInt("PAID_VIDEO_LIMIT", 200)
	cfg.StaleAfter = getEnvDuration("STALE_AFTER", 48*time.Hour)
	cfg.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", 10*time.Second)
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", 120)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MaxProfileCacheTTL はプロフィールキャッシュのTTLに許す上限。
const MaxProfileCacheTTL = 5 * time.Minute

// validate は値の範囲を検証する。
func (c *Config) validate() error {
	positiveInts := []struct {
		name string
		v    int
	}{
		{"ANONYMOUS_VIDEO_LIMIT", c.AnonymousVideoLimit},
		{"FREE_VIDEO_LIMIT", c.FreeVideoLimit},
		{"PAID_VIDEO_LIMIT", c.PaidVideoLimit},
		{"RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute},
	}
	for _, p := range positiveInts {
		if p.v <= 0 {
			return fmt.Errorf("%s must be positive: %d", p.name, p.v)
		}
	}

	positiveDurations := []struct {
		name string
		v    time.Duration
	}{
		{"STALE_AFTER", c.StaleAfter},
		{"REQUEST_TIMEOUT", c.RequestTimeout},
		{"PROFILE_CACHE_TTL", c.ProfileCacheTTL},
	}
	for _, p := range positiveDurations {
		if p.v <= 0 {
			return fmt.Errorf("%s must be positive: %s", p.name, p.v)
		}
	}

	// キャッシュ中のプロフィールはlast_scraped_atを含むため、TTLの分だけ鮮度表示が遅れる
	if c.ProfileCacheTTL > MaxProfileCacheTTL {
		return fmt.Errorf("PROFILE_CACHE_TTL must not exceed %s: %s", MaxProfileCacheTTL, c.ProfileCacheTTL)
	}
	return nil
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
