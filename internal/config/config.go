package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction    bool
	ProdOrigins     string
	HTTPAddr        string
	ShutdownTimeout time.Duration
	DBDSN           string
	DBMaxConns      int
	DBMinConns      int
	JWTSecret       string

	// JWTAudience, when set, must appear in every token's aud claim.
	JWTAudience string

	// JWTAccessTokenTTL bounds tokens minted by this service (tests and tooling).
	JWTAccessTokenTTL time.Duration

	LogLevel  string
	PrettyLog bool

	// Redis is optional; an empty address disables the availability cache
	// and the notification dead-letter list.
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	RedisConnectTimeout time.Duration

	StoragePath    string
	PublicBaseURL  string
	MaxUploadBytes int64

	// SMTP is optional; without a host, notifications are only logged.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	NotifyQueueSize      int
	NotifyMaxAttempts    int
	NotifyInitialBackoff time.Duration
	NotifyMaxBackoff     time.Duration

	AvailabilityCacheTTL time.Duration

	Policy Policy
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg := &Config{}
	var err error

	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")
	cfg.IsProduction = getEnv("APP_ENV", "dev") == PROD_STRING
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	if cfg.ShutdownTimeout, err = getEnvAsDuration("SHUTDOWN_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}
	if cfg.DBMaxConns, err = getEnvAsInt("DB_MAX_CONNS", 0); err != nil {
		return nil, err
	}
	if cfg.DBMinConns, err = getEnvAsInt("DB_MIN_CONNS", 0); err != nil {
		return nil, err
	}

	// The auth provider signs access tokens with this secret
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	cfg.JWTAudience = getEnv("JWT_AUDIENCE", "")
	if cfg.JWTAccessTokenTTL, err = getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	if cfg.PrettyLog, err = getEnvAsBool("LOG_PRETTY", !cfg.IsProduction); err != nil {
		return nil, err
	}

	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	if cfg.RedisDB, err = getEnvAsInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RedisConnectTimeout, err = getEnvAsDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	cfg.StoragePath = getEnv("STORAGE_PATH", "./data")
	cfg.PublicBaseURL = getEnv("PUBLIC_BASE_URL", "http://localhost:8080")
	maxUpload, err := getEnvAsInt("MAX_UPLOAD_BYTES", 5<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	cfg.SMTPHost = getEnv("SMTP_HOST", "")
	if cfg.SMTPPort, err = getEnvAsInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	cfg.SMTPUsername = getEnv("SMTP_USERNAME", "")
	cfg.SMTPPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SMTPFrom = getEnv("SMTP_FROM", "Mentozy Team <no-reply@mentozy.local>")
	if cfg.SMTPHost != "" && cfg.SMTPPassword == "" {
		return nil, fmt.Errorf("SMTP_PASSWORD is required when SMTP_HOST is set")
	}

	if cfg.NotifyQueueSize, err = getEnvAsInt("NOTIFY_QUEUE_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.NotifyMaxAttempts, err = getEnvAsInt("NOTIFY_MAX_ATTEMPTS", 4); err != nil {
		return nil, err
	}
	if cfg.NotifyInitialBackoff, err = getEnvAsDuration("NOTIFY_INITIAL_BACKOFF", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.NotifyMaxBackoff, err = getEnvAsDuration("NOTIFY_MAX_BACKOFF", 30*time.Second); err != nil {
		return nil, err
	}

	if cfg.AvailabilityCacheTTL, err = getEnvAsDuration("AVAILABILITY_CACHE_TTL", time.Minute); err != nil {
		return nil, err
	}

	if cfg.Policy, err = loadPolicy(getEnv("POLICY_FILE", "")); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid number: %w", key, valStr, err)
	}

	return val, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("env %s value %q is not a valid boolean: %w", key, valStr, err)
	}

	return val, nil
}

// getEnvAsDuration parses values like "15m" or "2s".
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}

	return val, nil
}
