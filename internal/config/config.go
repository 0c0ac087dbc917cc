package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DB       DBConfig
	MinIO    MinIOConfig
	Server   ServerConfig
	Page     PageConfig
	Cookie   CookieConfig
	Sweep    SweepConfig
	Download DownloadConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type ServerConfig struct {
	Port        string
	FrontendURL string
}

// PageConfig controls page lifetime and edit-access policy.
//
// PublicView keeps read access to a non-expired page open without any token.
// This is a deliberate product decision for low-stakes celebratory content,
// not a fallback: edit access always requires the secret.
type PageConfig struct {
	Lifetime     time.Duration
	SecretLength int
	PhotoQuota   int
	PublicView   bool
}

// CookieConfig controls the browser-side credential cookie. SingleSlot
// restores the original one-page-per-device behavior where a new page
// creation overwrites any previously stored credential.
type CookieConfig struct {
	Name       string
	MaxAge     time.Duration
	Secure     bool
	SingleSlot bool
}

type SweepConfig struct {
	Interval time.Duration
}

type DownloadConfig struct {
	Secret string
	TTL    time.Duration
}

func Load() *Config {
	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "onedaypage"),
			Password: getEnv("DB_PASSWORD", "onedaypage_secret"),
			Name:     getEnv("DB_NAME", "onedaypage"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "onedaypage"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "onedaypage_secret"),
			Bucket:    getEnv("MINIO_BUCKET", "onedaypage"),
			UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3001"),
		},
		Page: PageConfig{
			Lifetime:     getEnvAsDuration("PAGE_LIFETIME", 24*time.Hour),
			SecretLength: getEnvAsInt("PAGE_SECRET_LENGTH", 32),
			PhotoQuota:   getEnvAsInt("PAGE_PHOTO_QUOTA", 20),
			PublicView:   getEnvAsBool("PAGE_PUBLIC_VIEW", true),
		},
		Cookie: CookieConfig{
			Name:       getEnv("COOKIE_NAME", "edit_page_access_token"),
			MaxAge:     getEnvAsDuration("COOKIE_MAX_AGE", 24*time.Hour),
			Secure:     getEnvAsBool("COOKIE_SECURE", false),
			SingleSlot: getEnvAsBool("COOKIE_SINGLE_SLOT", false),
		},
		Sweep: SweepConfig{
			Interval: getEnvAsDuration("SWEEP_INTERVAL", 15*time.Minute),
		},
		Download: DownloadConfig{
			Secret: getEnv("DOWNLOAD_TOKEN_SECRET", "change-me-in-production"),
			TTL:    getEnvAsDuration("DOWNLOAD_TOKEN_TTL", 15*time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
