package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	Yahoo       YahooConfig
	FantasyFuel FantasyFuelConfig

	// Notifications
	Notify NotifyConfig

	// Scheduler policy
	Scheduler SchedulerConfig

	// Submission timing
	Fill FillConfig

	// Lineup generation
	Lineups LineupConfig

	// Sports tracked by the scheduler (e.g., "NFL,NBA")
	Sports []string

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// YahooConfig holds Yahoo Daily Fantasy API configuration
type YahooConfig struct {
	BaseURL     string
	AuthURL     string
	Username    string
	Password    string
	RateLimit   int           // requests per window
	RateWindow  time.Duration // rate limit window
	CallTimeout time.Duration // per-request timeout
}

// FantasyFuelConfig holds projection source configuration
type FantasyFuelConfig struct {
	BaseURL     string
	CallTimeout time.Duration
}

// NotifyConfig holds notifier sink configuration
type NotifyConfig struct {
	WebhookURL string
	Enabled    bool
}

// SchedulerConfig holds orchestrator policy knobs
// 정책 상수는 하드코딩하지 않고 전부 여기로
type SchedulerConfig struct {
	MaxRetries         int           // transient failure retry limit
	RetryInitialDelay  time.Duration // first backoff step
	RetryMaxDelay      time.Duration // backoff ceiling
	DisableAfterFails  int           // consecutive failures before a job is disabled
	FreshnessThreshold time.Duration // max age of pool/projection data before generation
	ContestSyncCron    string        // cron expression for contest discovery
	PoolInterval       time.Duration
	ProjectionInterval time.Duration
	SubmissionInterval time.Duration
	InjuryInterval     time.Duration
	GenerateOffset     time.Duration // lineup generation fires at lock_time - offset
	HistoryLimit       int           // in-memory JobRun ring size per job
}

// FillConfig holds submission timing thresholds
type FillConfig struct {
	FillRateThreshold float64       // submit when contest is this full
	TimeBeforeLock    time.Duration // or when lock is this close
	StopEditWindow    time.Duration // never touch entries this close to lock
}

// LineupConfig holds lineup generation constraints
type LineupConfig struct {
	CountPerContest int
	SalaryCap       int
	MaxOverlap      int     // max shared players between generated lineups
	MaxEntryFee     float64 // contest eligibility: fee strictly below this
	MultiEntryOnly  bool
	GuaranteedOnly  bool
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		Yahoo: YahooConfig{
			BaseURL:     getEnv("YAHOO_BASE_URL", "https://dfyql-ro.sports.yahoo.com/v2"),
			AuthURL:     getEnv("YAHOO_AUTH_URL", "https://login.yahoo.com"),
			Username:    getEnv("YAHOO_USERNAME", ""),
			Password:    getEnv("YAHOO_PASSWORD", ""),
			RateLimit:   getEnvAsInt("YAHOO_RATE_LIMIT", 20),
			RateWindow:  getEnvAsDuration("YAHOO_RATE_WINDOW", "1m"),
			CallTimeout: getEnvAsDuration("YAHOO_CALL_TIMEOUT", "30s"),
		},

		FantasyFuel: FantasyFuelConfig{
			BaseURL:     getEnv("DFF_BASE_URL", "https://www.dailyfantasyfuel.com"),
			CallTimeout: getEnvAsDuration("DFF_CALL_TIMEOUT", "30s"),
		},

		Notify: NotifyConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
			Enabled:    getEnvAsBool("NOTIFY_ENABLED", false),
		},

		Scheduler: SchedulerConfig{
			MaxRetries:         getEnvAsInt("SCHED_MAX_RETRIES", 3),
			RetryInitialDelay:  getEnvAsDuration("SCHED_RETRY_INITIAL_DELAY", "30s"),
			RetryMaxDelay:      getEnvAsDuration("SCHED_RETRY_MAX_DELAY", "5m"),
			DisableAfterFails:  getEnvAsInt("SCHED_DISABLE_AFTER_FAILS", 5),
			FreshnessThreshold: getEnvAsDuration("SCHED_FRESHNESS_THRESHOLD", "30m"),
			ContestSyncCron:    getEnv("SCHED_CONTEST_SYNC_CRON", "0 10 * * *"),
			PoolInterval:       getEnvAsDuration("SCHED_POOL_INTERVAL", "15m"),
			ProjectionInterval: getEnvAsDuration("SCHED_PROJECTION_INTERVAL", "5m"),
			SubmissionInterval: getEnvAsDuration("SCHED_SUBMISSION_INTERVAL", "10m"),
			InjuryInterval:     getEnvAsDuration("SCHED_INJURY_INTERVAL", "10m"),
			GenerateOffset:     getEnvAsDuration("SCHED_GENERATE_OFFSET", "3h"),
			HistoryLimit:       getEnvAsInt("SCHED_HISTORY_LIMIT", 100),
		},

		Fill: FillConfig{
			FillRateThreshold: getEnvAsFloat("FILL_RATE_THRESHOLD", 0.70),
			TimeBeforeLock:    getEnvAsDuration("FILL_TIME_BEFORE_LOCK", "2h"),
			StopEditWindow:    getEnvAsDuration("FILL_STOP_EDIT_WINDOW", "5m"),
		},

		Lineups: LineupConfig{
			CountPerContest: getEnvAsInt("LINEUP_COUNT_PER_CONTEST", 3),
			SalaryCap:       getEnvAsInt("LINEUP_SALARY_CAP", 200),
			MaxOverlap:      getEnvAsInt("LINEUP_MAX_OVERLAP", 6),
			MaxEntryFee:     getEnvAsFloat("CONTEST_MAX_ENTRY_FEE", 1.0),
			MultiEntryOnly:  getEnvAsBool("CONTEST_MULTI_ENTRY_ONLY", true),
			GuaranteedOnly:  getEnvAsBool("CONTEST_GUARANTEED_ONLY", true),
		},

		Sports: getEnvAsList("SPORTS", "NFL"),

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Fill.FillRateThreshold <= 0 || c.Fill.FillRateThreshold > 1 {
		return fmt.Errorf("FILL_RATE_THRESHOLD must be in (0, 1]")
	}

	if c.Scheduler.MaxRetries < 0 {
		return fmt.Errorf("SCHED_MAX_RETRIES must be >= 0")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsList(key string, defaultValue string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}
