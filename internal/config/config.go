package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage and draft backend names.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendDynamoDB = "dynamodb"
)

// DefaultClinicPhone is shown in generic submission failure messages.
const DefaultClinicPhone = "(716) 526-4041"

// ErrDatabaseURLRequired is returned when a durable store is selected without a connection target.
var ErrDatabaseURLRequired = errors.New("DATABASE_URL environment variable is required")

// Config holds application configuration
type Config struct {
	Port              string
	Env               string
	LogLevel          string
	ServiceName       string
	APIBasePath       string
	LambdaStripPrefix string

	StorageBackend string
	DatabaseURL    string

	DraftBackend  string
	DraftTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	DraftsTable   string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
	// TrustProxyHeaders lets X-Real-Ip and X-Forwarded-For replace the
	// connection address. Enable only behind a proxy that sets them.
	TrustProxyHeaders bool

	ClinicPhone  string
	OTLPEndpoint string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ServiceName:       getEnv("SERVICE_NAME", "psychwebmd-intake"),
		APIBasePath:       normalizeBasePath(getEnv("API_BASE_PATH", "/api")),
		LambdaStripPrefix: getEnv("LAMBDA_STRIP_PREFIX", "/.netlify/functions/api"),

		StorageBackend: strings.ToLower(strings.TrimSpace(getEnv("STORAGE_BACKEND", BackendMemory))),
		DatabaseURL:    getEnv("DATABASE_URL", ""),

		DraftBackend:  strings.ToLower(strings.TrimSpace(getEnv("DRAFT_BACKEND", BackendMemory))),
		DraftTTL:      getEnvAsDuration("DRAFT_TTL", 30*24*time.Hour),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		DraftsTable:   getEnv("DRAFTS_TABLE", "intake-drafts"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
		TrustProxyHeaders:  getEnvAsBool("TRUST_PROXY_HEADERS", false),

		ClinicPhone:  getEnv("CLINIC_PHONE", DefaultClinicPhone),
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

// RequireDatabaseURL returns the configured DATABASE_URL or ErrDatabaseURLRequired.
func (c *Config) RequireDatabaseURL() (string, error) {
	url := strings.TrimSpace(c.DatabaseURL)
	if url == "" {
		return "", ErrDatabaseURLRequired
	}
	return url, nil
}

// DraftRetentionEnabled reports whether drafts expire on their own.
func (c *Config) DraftRetentionEnabled() bool {
	return c.DraftTTL > 0
}

func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimRight(p, "/")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
