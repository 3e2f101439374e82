package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Security     SecurityConfig
	RateLimit    RateLimitConfig
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
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// SecurityConfig tunes the confirmation-token and session subsystems.
type SecurityConfig struct {
	ConfirmationTTLMinutes      int
	ConfirmationBaseURL         string
	SessionTTLMinutes           int
	SessionInactivityMinutes    int
	ExpiredSweepIntervalMinutes int
	OrphanSweepIntervalMinutes  int
	FailedLoginWindowMinutes    int
	VerificationCodeTTLMinutes  int
}

// RateLimitConfig holds per-class ceilings and the counting window.
type RateLimitConfig struct {
	WindowSeconds  int
	AuthIPLimit    int
	AuthUserLimit  int
	ReadIPLimit    int
	ReadUserLimit  int
	WriteIPLimit   int
	WriteUserLimit int
}

// NotificationConfig holds outbound email settings.
type NotificationConfig struct {
	SMTPHost  string
	SMTPPort  string
	SMTPUser  string
	SMTPPass  string
	EmailFrom string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "blog-security-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Security: SecurityConfig{
			ConfirmationTTLMinutes:      getEnvAsInt("SECURITY_CONFIRMATION_TTL_MINUTES", 10),
			ConfirmationBaseURL:         getEnv("SECURITY_CONFIRMATION_BASE_URL", "http://localhost:8080"),
			SessionTTLMinutes:           getEnvAsInt("SECURITY_SESSION_TTL_MINUTES", 720),
			SessionInactivityMinutes:    getEnvAsInt("SECURITY_SESSION_INACTIVITY_MINUTES", 60),
			ExpiredSweepIntervalMinutes: getEnvAsInt("SECURITY_EXPIRED_SWEEP_INTERVAL_MINUTES", 15),
			OrphanSweepIntervalMinutes:  getEnvAsInt("SECURITY_ORPHAN_SWEEP_INTERVAL_MINUTES", 60),
			FailedLoginWindowMinutes:    getEnvAsInt("SECURITY_FAILED_LOGIN_WINDOW_MINUTES", 15),
			VerificationCodeTTLMinutes:  getEnvAsInt("SECURITY_VERIFICATION_CODE_TTL_MINUTES", 5),
		},
		RateLimit: RateLimitConfig{
			WindowSeconds:  getEnvAsInt("RATELIMIT_WINDOW_SECONDS", 60),
			AuthIPLimit:    getEnvAsInt("RATELIMIT_AUTH_IP_LIMIT", 20),
			AuthUserLimit:  getEnvAsInt("RATELIMIT_AUTH_USER_LIMIT", 10),
			ReadIPLimit:    getEnvAsInt("RATELIMIT_READ_IP_LIMIT", 300),
			ReadUserLimit:  getEnvAsInt("RATELIMIT_READ_USER_LIMIT", 200),
			WriteIPLimit:   getEnvAsInt("RATELIMIT_WRITE_IP_LIMIT", 100),
			WriteUserLimit: getEnvAsInt("RATELIMIT_WRITE_USER_LIMIT", 50),
		},
		Notification: NotificationConfig{
			SMTPHost:  getEnv("SMTP_HOST", ""),
			SMTPPort:  getEnv("SMTP_PORT", "587"),
			SMTPUser:  os.Getenv("SMTP_USER"),
			SMTPPass:  os.Getenv("SMTP_PASS"),
			EmailFrom: getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
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

// ConfirmationTTL returns the confirmation-token lifetime.
func (s SecurityConfig) ConfirmationTTL() time.Duration {
	return time.Duration(s.ConfirmationTTLMinutes) * time.Minute
}

// SessionTTL returns the absolute session lifetime.
func (s SecurityConfig) SessionTTL() time.Duration {
	return time.Duration(s.SessionTTLMinutes) * time.Minute
}

// SessionInactivity returns the inactivity ceiling.
func (s SecurityConfig) SessionInactivity() time.Duration {
	return time.Duration(s.SessionInactivityMinutes) * time.Minute
}

// Window returns the counting window for rate-limit counters.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
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
