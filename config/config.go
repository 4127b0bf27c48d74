package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// City describes one configured fetch target: a city/category partition of
// the provider's ad-listing API.
type City struct {
	Name         string
	RegionCode   string
	Category     string
	CategoryCode string
	Limit        int
	Pages        int
}

// Config holds all application configuration loaded from environment
// variables plus the static partition table.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	PostgresEnabled  bool

	APIBaseURL     string
	FetchTimeoutMs int
	RateLimitMs    int
	MaxRetries     int

	OutputDir      string
	ReportsDir     string
	DealThreshold  float64
	MergeSnapshots bool

	Cities map[string]City
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "crawler"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "crawler123"),
		PostgresDB:       getEnv("POSTGRES_DB", "nhatot_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),

		APIBaseURL:     getEnv("API_BASE_URL", "https://gateway.chotot.com/v1/public/ad-listing"),
		FetchTimeoutMs: getEnvInt("FETCH_TIMEOUT_MS", 15000),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 1000),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),

		OutputDir:      getEnv("OUTPUT_DIR", "./output"),
		ReportsDir:     getEnv("REPORTS_DIR", "./output_reports"),
		DealThreshold:  getEnvFloat("DEAL_THRESHOLD", 0.75),
		MergeSnapshots: getEnvBool("MERGE_SNAPSHOTS", false),

		Cities: DefaultCities(),
	}
}

// DefaultCities returns the built-in partition table. Callers receive a fresh
// map so tests can swap in synthetic partitions without touching package state.
func DefaultCities() map[string]City {
	return map[string]City{
		"hanoi": {
			Name:         "Hà Nội",
			RegionCode:   "12000",
			Category:     "Bán nhà",
			CategoryCode: "1020",
			Limit:        100,
			Pages:        5,
		},
		"hcm": {
			Name:         "TP Hồ Chí Minh",
			RegionCode:   "13000",
			Category:     "Bán nhà",
			CategoryCode: "1020",
			Limit:        100,
			Pages:        5,
		},
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
