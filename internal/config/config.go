package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrConfiguration marks a missing or invalid external-service setting.
// It is only ever returned at startup.
var ErrConfiguration = errors.New("configuration error")

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	PingAttempts       int
}

// StorageConfig selects and configures the object store backend.
// Driver is one of "minio", "s3" or "memory".
type StorageConfig struct {
	Driver        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	UseSSL        bool
	PresignExpiry time.Duration
}

// LLMConfig configures the language-model completion service.
type LLMConfig struct {
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// OCRConfig configures the tesseract invocation used for raster images.
type OCRConfig struct {
	Binary   string
	Language string
	Timeout  time.Duration
}

// AuthConfig holds the settings used to verify bearer tokens issued by the identity provider.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	Audience  string
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level      string
	FilePath   string
	Production bool
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost        string
	Port           string
	UploadMaxBytes int64
	TextCacheTTL   time.Duration
	Database       DatabaseConfig
	Storage        StorageConfig
	LLM            LLMConfig
	OCR            OCRConfig
	Auth           AuthConfig
	Log            LogConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:        getEnv("APP_HOST", "localhost:8080"),
		Port:           getEnv("PORT", "8080"),
		UploadMaxBytes: int64(getEnvInt("UPLOAD_MAX_BYTES", 10<<20)),
		TextCacheTTL:   getEnvDuration("TEXT_CACHE_TTL", 30*time.Minute),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			PingAttempts:       getEnvInt("DB_PING_ATTEMPTS", 5),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(getEnv("STORAGE_DRIVER", "minio")),
			Endpoint:      getEnv("STORAGE_ENDPOINT", ""),
			AccessKey:     getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey:     getEnv("STORAGE_SECRET_KEY", ""),
			Bucket:        getEnv("STORAGE_BUCKET", ""),
			Region:        getEnv("STORAGE_REGION", "us-east-1"),
			UseSSL:        getEnvBool("STORAGE_USE_SSL", false),
			PresignExpiry: getEnvDuration("STORAGE_PRESIGN_EXPIRY", 5*time.Minute),
		},
		LLM: LLMConfig{
			Provider:  strings.ToLower(getEnv("LLM_PROVIDER", "anthropic")),
			APIKey:    getEnv("LLM_API_KEY", ""),
			Model:     getEnv("LLM_MODEL", ""),
			BaseURL:   getEnv("LLM_BASE_URL", ""),
			MaxTokens: getEnvInt("LLM_MAX_TOKENS", 1024),
			Timeout:   getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		},
		OCR: OCRConfig{
			Binary:   getEnv("OCR_TESSERACT_BIN", "tesseract"),
			Language: getEnv("OCR_LANGUAGE", "eng"),
			Timeout:  getEnvDuration("OCR_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			Issuer:    getEnv("AUTH_JWT_ISSUER", ""),
			Audience:  getEnv("AUTH_JWT_AUDIENCE", ""),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			FilePath:   getEnv("LOG_FILE", ""),
			Production: getEnvBool("LOG_PRODUCTION", true),
		},
	}
}

// Validate reports missing credentials for the external services the process depends on.
func (c *AppConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		missing = append(missing, "LLM_API_KEY")
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		missing = append(missing, "AUTH_JWT_SECRET")
	}
	switch c.Storage.Driver {
	case "memory":
	case "minio":
		if c.Storage.Endpoint == "" {
			missing = append(missing, "STORAGE_ENDPOINT")
		}
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			missing = append(missing, "STORAGE_ACCESS_KEY/STORAGE_SECRET_KEY")
		}
		if c.Storage.Bucket == "" {
			missing = append(missing, "STORAGE_BUCKET")
		}
	case "s3":
		if c.Storage.Bucket == "" {
			missing = append(missing, "STORAGE_BUCKET")
		}
	default:
		return fmt.Errorf("%w: unknown STORAGE_DRIVER %q", ErrConfiguration, c.Storage.Driver)
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("%w: UPLOAD_MAX_BYTES must be positive", ErrConfiguration)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

// getEnvDuration accepts Go duration strings ("90s") or a bare number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return def
}
