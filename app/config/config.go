package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	BlobBackendBadger = "badger"
	BlobBackendMinio  = "minio"
	BlobBackendMemory = "memory"
)

// Config holds everything the process reads from its environment.
type Config struct {
	Addr    string
	DBPath  string
	LogMode string

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	BlobBackend   string
	MaxImageBytes int64

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	cfg := Config{
		Addr:           getEnv("INKPRESS_ADDR", ":8080"),
		DBPath:         getEnv("INKPRESS_DB_PATH", "data/badger"),
		LogMode:        getEnv("LOG_MODE", "dev"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		BlobBackend:    getEnv("BLOB_BACKEND", BlobBackendBadger),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "inkpress"),
	}

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "168h"))
	if err != nil {
		return cfg, fmt.Errorf("invalid JWT_TTL: %v", err)
	}
	cfg.TokenTTL = ttl

	cfg.BcryptCost, err = strconv.Atoi(getEnv("BCRYPT_COST", "10"))
	if err != nil {
		return cfg, fmt.Errorf("invalid BCRYPT_COST: %v", err)
	}

	cfg.MaxImageBytes, err = strconv.ParseInt(getEnv("MAX_IMAGE_BYTES", "5242880"), 10, 64)
	if err != nil {
		return cfg, fmt.Errorf("invalid MAX_IMAGE_BYTES: %v", err)
	}

	cfg.MinioUseSSL, err = strconv.ParseBool(getEnv("MINIO_USE_SSL", "false"))
	if err != nil {
		return cfg, fmt.Errorf("invalid MINIO_USE_SSL: %v", err)
	}

	return cfg, nil
}

// Validate checks the settings required to serve requests.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("MAX_IMAGE_BYTES must be positive")
	}
	switch c.BlobBackend {
	case BlobBackendBadger, BlobBackendMemory:
	case BlobBackendMinio:
		if c.MinioEndpoint == "" || c.MinioBucket == "" {
			return fmt.Errorf("MINIO_ENDPOINT and MINIO_BUCKET are required for the minio backend")
		}
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend)
	}
	return nil
}
