package infrastructure

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var defaultAllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// writeTimeoutSlack covers request decoding, storage and response encoding around an evaluation
const writeTimeoutSlack = 30 * time.Second

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Judge     JudgeConfig
	Languages LanguagesConfig
	Telemetry TelemetryConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	Environment    string
	SeedDemoData   bool
	AllowedOrigins []string
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds the Redis connection used for award locks.
// When disabled, locks are held in-process.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
	LockWait time.Duration
}

// JWTConfig holds access token validation settings.
// Tokens are issued by the auth service with the same secret.
type JWTConfig struct {
	SecretKey string
	Issuer    string
}

// JudgeConfig holds the external code sandbox settings.
// MaxTestCases only sizes the HTTP write timeout; larger challenges may outlive it.
type JudgeConfig struct {
	BaseURL        string
	APIKey         string
	APIHost        string
	Timeout        time.Duration
	MaxConcurrency int
	MaxTestCases   int
}

// EvaluationBound is the longest a single evaluation can take for a challenge
// with MaxTestCases test cases, every call running into the per-call timeout
func (j JudgeConfig) EvaluationBound() time.Duration {
	workers := max(j.MaxConcurrency, 1)
	waves := (max(j.MaxTestCases, 1) + workers - 1) / workers
	return j.Timeout * time.Duration(waves)
}

// LanguagesConfig points to the language-id catalogue
type LanguagesConfig struct {
	File           string
	ReloadInterval time.Duration
}

// TelemetryConfig holds observability configuration
type TelemetryConfig struct {
	Enabled         bool
	ServiceName     string
	ServiceVersion  string
	OTLPEndpoint    string
	MetricsEndpoint string
}

// LoadConfig loads configuration from a .env file (if present) and environment
// variables with sensible defaults
func LoadConfig() *Config {
	// A missing .env file is normal outside local development
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:    time.Duration(getEnvInt("SERVER_READ_TIMEOUT", 10)) * time.Second,
			WriteTimeout:   time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT", 120)) * time.Second,
			Environment:    getEnv("ENVIRONMENT", "development"),
			SeedDemoData:   getEnvBool("SEED_DEMO_DATA", false),
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", defaultAllowedOrigins),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "treasure_hunt"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			LockTTL:  time.Duration(getEnvInt("AWARD_LOCK_TTL_SECONDS", 10)) * time.Second,
			LockWait: time.Duration(getEnvInt("AWARD_LOCK_WAIT_MS", 3000)) * time.Millisecond,
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", "your-super-secret-key-change-in-production"),
			Issuer:    getEnv("JWT_ISSUER", "treasure-hunt"),
		},
		Judge: JudgeConfig{
			BaseURL:        getEnv("JUDGE0_API_URL", "https://judge0-ce.p.rapidapi.com"),
			APIKey:         getEnv("JUDGE0_API_KEY", ""),
			APIHost:        getEnv("JUDGE0_API_HOST", "judge0-ce.p.rapidapi.com"),
			Timeout:        time.Duration(getEnvInt("JUDGE0_TIMEOUT_SECONDS", 15)) * time.Second,
			MaxConcurrency: getEnvInt("JUDGE0_MAX_CONCURRENCY", 1),
			MaxTestCases:   getEnvInt("JUDGE0_MAX_TEST_CASES", 20),
		},
		Languages: LanguagesConfig{
			File:           getEnv("LANGUAGES_FILE", ""),
			ReloadInterval: time.Duration(getEnvInt("LANGUAGES_RELOAD_SECONDS", 30)) * time.Second,
		},
		Telemetry: TelemetryConfig{
			Enabled:         getEnvBool("TELEMETRY_ENABLED", true),
			ServiceName:     getEnv("SERVICE_NAME", "treasure-hunt-judge"),
			ServiceVersion:  getEnv("SERVICE_VERSION", "1.0.0"),
			OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4318"),
			MetricsEndpoint: getEnv("METRICS_ENDPOINT", "/metrics"),
		},
	}

	// The write timeout must outlast a full evaluation
	if minimum := config.Judge.EvaluationBound() + writeTimeoutSlack; config.Server.WriteTimeout < minimum {
		config.Server.WriteTimeout = minimum
	}
	return config
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool retrieves an environment variable as a boolean or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvList retrieves a comma-separated environment variable or returns a default value
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}
