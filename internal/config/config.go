package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Helpdesk     HelpdeskConfig
	Sync         SyncConfig
	Cache        CacheConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string
	Development bool
}

// HelpdeskConfig points at the upstream ticketing API.
type HelpdeskConfig struct {
	BaseURL            string
	APIToken           string
	PageDelayMS        int
	RetryDelaysMS      []int
	HTTPTimeoutSeconds int
}

// SyncConfig drives the sync engine and its scheduler.
type SyncConfig struct {
	DefaultWatermark time.Time
	WindowDays       int
	Cron             string
	LockTTLSeconds   int
	CronSecret       string
}

// CacheConfig controls the read query cache.
type CacheConfig struct {
	QueryTTLSeconds int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	EmailTo    string
	WebhookURL string
}

var defaultWatermark = time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	retryDelays, err := parseIntList(getEnv("HELPDESK_RETRY_DELAYS_MS", "1000,2000,4000"))
	if err != nil {
		return nil, fmt.Errorf("invalid HELPDESK_RETRY_DELAYS_MS: %w", err)
	}

	watermark := defaultWatermark
	if raw := os.Getenv("SYNC_DEFAULT_WATERMARK"); raw != "" {
		watermark, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SYNC_DEFAULT_WATERMARK: %w", err)
		}
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-insights"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnv("APP_ENV", "development") == "development",
		},
		Helpdesk: HelpdeskConfig{
			BaseURL:            getEnv("HELPDESK_BASE_URL", "https://api.usepylon.com"),
			APIToken:           os.Getenv("HELPDESK_API_TOKEN"),
			PageDelayMS:        getEnvAsInt("HELPDESK_PAGE_DELAY_MS", 500),
			RetryDelaysMS:      retryDelays,
			HTTPTimeoutSeconds: getEnvAsInt("HELPDESK_HTTP_TIMEOUT_SECONDS", 30),
		},
		Sync: SyncConfig{
			DefaultWatermark: watermark,
			WindowDays:       getEnvAsInt("SYNC_WINDOW_DAYS", 30),
			Cron:             os.Getenv("SYNC_CRON"),
			LockTTLSeconds:   getEnvAsInt("SYNC_LOCK_TTL_SECONDS", 1800),
			CronSecret:       os.Getenv("CRON_SECRET"),
		},
		Cache: CacheConfig{
			QueryTTLSeconds: getEnvAsInt("QUERY_CACHE_TTL_SECONDS", 300),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			EmailTo:    os.Getenv("NOTIFY_EMAIL_TO"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// PageDelay returns the pause between issue listing pages.
func (h HelpdeskConfig) PageDelay() time.Duration {
	if h.PageDelayMS < 0 {
		return 0
	}
	return time.Duration(h.PageDelayMS) * time.Millisecond
}

// RetryDelays returns the backoff schedule.
func (h HelpdeskConfig) RetryDelays() []time.Duration {
	delays := make([]time.Duration, 0, len(h.RetryDelaysMS))
	for _, ms := range h.RetryDelaysMS {
		delays = append(delays, time.Duration(ms)*time.Millisecond)
	}
	return delays
}

// HTTPTimeout returns the per-request timeout of the helpdesk client.
func (h HelpdeskConfig) HTTPTimeout() time.Duration {
	if h.HTTPTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(h.HTTPTimeoutSeconds) * time.Second
}

// Window returns the span of one issue listing request.
func (s SyncConfig) Window() time.Duration {
	if s.WindowDays <= 0 {
		return 0
	}
	return time.Duration(s.WindowDays) * 24 * time.Hour
}

// LockTTL returns how long a held sync lock survives a crashed holder.
func (s SyncConfig) LockTTL() time.Duration {
	if s.LockTTLSeconds <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(s.LockTTLSeconds) * time.Second
}

// QueryTTL returns the lifetime of cached read views.
func (c CacheConfig) QueryTTL() time.Duration {
	if c.QueryTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.QueryTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

// parseIntList reads "1000, 2000,4000". Empty items are skipped.
func parseIntList(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("negative delay %d", n)
		}
		out = append(out, n)
	}
	return out, nil
}
