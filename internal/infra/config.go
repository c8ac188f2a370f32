package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Storage backends selectable via STORAGE_BACKEND.
const (
	StorageBackendS3   = "s3"
	StorageBackendFile = "file"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv          string
	Port            string
	StorageBackend  string
	AWSRegion       string
	AWSS3Bucket     string
	ImagePrefix     string
	CompositePrefix string
	StoragePath     string
	StorageBaseURL  string
	RemBGURL        string
	AllowedOrigins  []string

	FetchTimeout     time.Duration
	BatchMaxItems    int
	RateLimitPerMin  int
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		StorageBackend:   getEnv("STORAGE_BACKEND", StorageBackendS3),
		AWSRegion:        getEnv("AWS_REGION", "ap-northeast-2"),
		AWSS3Bucket:      os.Getenv("AWS_S3_BUCKET"),
		ImagePrefix:      getEnv("S3_IMAGE_PREFIX", "background-removed"),
		CompositePrefix:  getEnv("S3_COMPOSITE_PREFIX", "composites"),
		StoragePath:      getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:   getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),
		RemBGURL:         os.Getenv("REMBG_URL"),
		AllowedOrigins:   []string{getEnv("ALLOWED_ORIGIN", "*")},
		FetchTimeout:     time.Second * time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 10)),
		BatchMaxItems:    getEnvInt("BATCH_MAX_ITEMS", 15),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	switch cfg.StorageBackend {
	case StorageBackendS3:
		if cfg.AWSS3Bucket == "" {
			return nil, fmt.Errorf("AWS_S3_BUCKET is required when STORAGE_BACKEND=s3")
		}
	case StorageBackendFile:
		// local filesystem needs no credentials
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	if cfg.BatchMaxItems <= 0 {
		return nil, fmt.Errorf("BATCH_MAX_ITEMS must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
