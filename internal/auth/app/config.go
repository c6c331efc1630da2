package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/fricon/coreapi/internal/auth/service"
	"github.com/fricon/coreapi/pkg/httpx"
	"github.com/fricon/coreapi/pkg/jwtx"
)

type Config struct {
	Issuer       string // issuer claim for tokens (default: fricon-core-api)
	DatabaseFile string // path to SQLite database file (default: ./core.db)
	PepperFile   string // path to file containing pepper for password hashing (default: ./pepper)
	Env          string // Environment (dev, staging, prod) (default: dev)
	LogLevel     string // Log level (debug, info, warn, error) (default: info)
	LogFormat    string // Log format (json, text) (default: json)
	Port         int    // HTTP server port (default: 8080)

	Algorithm      string        // JWT signing algorithm (HS256, EdDSA) (default: HS256)
	Secret         string        // HS256 secret, at least 32 bytes
	PrivateKeyFile string        // EdDSA PKCS8 PEM key; empty generates an ephemeral key
	AccessTTL      time.Duration // JWT_ACCESS_TOKEN_EXPIRATION (default: 15m)
	RefreshTTL     time.Duration // JWT_REFRESH_TOKEN_EXPIRATION (default: 1d)
	RememberMeTTL  time.Duration // JWT_REMEMBER_ME_EXPIRATION (default: 30d)

	MaxLoginAttempts int           // failures inside LockoutWindow before locking (default: 5)
	LockoutWindow    time.Duration // LOCKOUT_DURATION in milliseconds (default: 900000)

	RedisHost     string // shared rate limiting is enabled when set
	RedisPort     int
	RedisPassword string
	RedisDB       int

	CORSOrigins  []string
	CookieSecure bool // Secure flag on token cookies (default: true outside dev)

	HousekeepingSchedule string        // cron spec (default: @every 1h)
	AuditRetention       time.Duration // AUDIT_RETENTION_DAYS (default: 90)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
}

// LoadConfig reads the environment, after loading an optional .env file.
func LoadConfig() Config {
	_ = godotenv.Load()

	env := getEnvOrDefault("ENV", "dev")
	cfg := Config{
		Issuer:       getEnvOrDefault("AUTH_ISSUER", service.DefaultConfig().Issuer),
		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "core.db"),
		PepperFile:   getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		Env:          env,
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:    getEnvOrDefault("LOG_FORMAT", "json"),
		Port:         getEnvIntOrDefault("PORT", 8080),

		Algorithm:      getEnvOrDefault("JWT_ALGORITHM", "HS256"),
		Secret:         os.Getenv("JWT_SECRET"),
		PrivateKeyFile: os.Getenv("JWT_PRIVATE_KEY_FILE"),
		AccessTTL:      service.ParseExpirationDuration(getEnvOrDefault("JWT_ACCESS_TOKEN_EXPIRATION", "15m")),
		RefreshTTL:     service.ParseExpirationDuration(getEnvOrDefault("JWT_REFRESH_TOKEN_EXPIRATION", "1d")),
		RememberMeTTL:  service.ParseExpirationDuration(getEnvOrDefault("JWT_REMEMBER_ME_EXPIRATION", "30d")),

		MaxLoginAttempts: getEnvIntOrDefault("MAX_LOGIN_ATTEMPTS", 5),
		LockoutWindow:    getEnvDurationOrDefault("LOCKOUT_DURATION", 15*time.Minute, time.Millisecond),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnvIntOrDefault("REDIS_PORT", 6379),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("REDIS_DB", 0),

		CORSOrigins:  httpx.ParseOrigins(os.Getenv("CORS_ORIGINS")),
		CookieSecure: getEnvBoolOrDefault("COOKIE_SECURE", env != "dev"),

		HousekeepingSchedule: getEnvOrDefault("HOUSEKEEPING_SCHEDULE", service.DefaultHousekeepingSchedule),
		AuditRetention:       time.Duration(getEnvIntOrDefault("AUDIT_RETENTION_DAYS", 90)) * 24 * time.Hour,
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second, time.Second),
	}

	return cfg
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error

	switch strings.ToUpper(c.Algorithm) {
	case "HS256":
		if len(c.Secret) < jwtx.MinHMACSecretLength {
			errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes for HS256", jwtx.MinHMACSecretLength))
		}
	case "EDDSA":
	default:
		errs = append(errs, fmt.Errorf("unsupported JWT_ALGORITHM %q", c.Algorithm))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}
	if c.MaxLoginAttempts <= 0 {
		errs = append(errs, errors.New("MAX_LOGIN_ATTEMPTS must be positive"))
	}
	if c.LockoutWindow <= 0 {
		errs = append(errs, errors.New("LOCKOUT_DURATION must be positive"))
	}
	if c.AuditRetention <= 0 {
		errs = append(errs, errors.New("AUDIT_RETENTION_DAYS must be positive"))
	}
	if c.RefreshTTL > c.RememberMeTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TOKEN_EXPIRATION must not exceed JWT_REMEMBER_ME_EXPIRATION"))
	}

	return errors.Join(errs...)
}

// ServiceConfig is the part of the configuration the auth flows use.
func (c Config) ServiceConfig() service.Config {
	cfg := service.DefaultConfig()
	cfg.Issuer = c.Issuer
	cfg.AccessTTL = c.AccessTTL
	cfg.RefreshTTL = c.RefreshTTL
	cfg.RememberMeTTL = c.RememberMeTTL
	cfg.MaxLoginAttempts = c.MaxLoginAttempts
	cfg.LockoutWindow = c.LockoutWindow
	return cfg
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts a duration string ("1h", "30m") or a bare
// integer counted in unit.
func getEnvDurationOrDefault(key string, defaultValue, unit time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * unit
	}

	return defaultValue
}
