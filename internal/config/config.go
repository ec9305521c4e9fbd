package config

import (
	"os"
	"strconv"
)

// Media storage backends.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

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
}

// MinIOConfig holds object storage settings for the S3 media backend.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MediaConfig holds the media store settings: which backend serves assets and,
// for the local backend, the directory the external uploader writes into.
type MediaConfig struct {
	Backend string
	Root    string
}

// AuthConfig holds session token verification settings.
type AuthConfig struct {
	// JWTSecret is the HMAC key the session tokens are signed with.
	JWTSecret string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables and injected at construction;
// nothing reads ambient globals after startup. Sensitive values are not
// hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Database DatabaseConfig
	MinIO    MinIOConfig
	Media    MediaConfig
	Auth     AuthConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
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
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Media: MediaConfig{
			Backend: getEnv("MEDIA_BACKEND", BackendLocal),
			Root:    getEnv("MEDIA_ROOT", "./data"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		},
	}
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
