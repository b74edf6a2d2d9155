package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// JWTConfig holds token signing configuration. Mode selects the signer
// implementation at startup: "hmac" signs with each tenant's own
// secret, "rs256" signs everything with the service-wide keypair and
// relies on the tenant-id claim check for isolation.
type JWTConfig struct {
	Mode              string
	RSAPrivateKeyPath string
	KeyID             string
	ExpirationHours   int
}

// AuthConfig holds the process-wide secrets and the OAuth admin
// allow-list. AdminEmails is injected into the login flow explicitly
// rather than re-read from the environment per call.
type AuthConfig struct {
	SuperAdminKey string
	AdminEmails   []string
}

// EngagementConfig selects the view-dedup temporal policy. Policy is
// either "daily" (stale after the most recent local midnight in
// Timezone) or "rolling" (stale after RollingWindow).
type EngagementConfig struct {
	Policy        string
	Timezone      string
	RollingWindow time.Duration
}

// RedisConfig holds the author-profile cache configuration. Addr empty
// disables the cache and author lookups always go to the auth service.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// ServicesConfig holds base URLs for sibling services
type ServicesConfig struct {
	StorageURL      string
	AuthURL         string
	OutboundTimeout time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// Config holds all configuration
type Config struct {
	DB         DBConfig
	Server     ServerConfig
	JWT        JWTConfig
	Auth       AuthConfig
	Engagement EngagementConfig
	Redis      RedisConfig
	Services   ServicesConfig
	Log        LogConfig
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Not returning error as .env file is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := &Config{
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", "blog_platform"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		JWT: JWTConfig{
			Mode:              getEnv("JWT_MODE", "hmac"),
			RSAPrivateKeyPath: getEnv("JWT_RSA_PRIVATE_KEY_PATH", ""),
			KeyID:             getEnv("JWT_KEY_ID", "blog-platform-1"),
			ExpirationHours:   getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Auth: AuthConfig{
			SuperAdminKey: getEnv("SUPER_ADMIN_KEY", ""),
			AdminEmails:   getEnvAsSlice("OAUTH_ADMIN_EMAILS", nil),
		},
		Engagement: EngagementConfig{
			Policy:        getEnv("ENGAGEMENT_DEDUP_POLICY", "daily"),
			Timezone:      getEnv("ENGAGEMENT_TIMEZONE", "UTC"),
			RollingWindow: getEnvAsDuration("ENGAGEMENT_ROLLING_WINDOW", 24*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			CacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", 5*time.Minute),
		},
		Services: ServicesConfig{
			StorageURL:      getEnv("STORAGE_SERVICE_URL", "http://localhost:8082"),
			AuthURL:         getEnv("AUTH_SERVICE_URL", "http://localhost:8081"),
			OutboundTimeout: getEnvAsDuration("OUTBOUND_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return config, nil
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("environment", c.Server.Env),
		zap.String("db_host", c.DB.Host),
		zap.String("db_port", c.DB.Port),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.String("jwt_mode", c.JWT.Mode),
		zap.String("engagement_policy", c.Engagement.Policy),
	}
}

// IsProduction reports whether the service runs with the production
// environment profile.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get comma-separated environment variables
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
