package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost      string
	PostgresPort      string
	PostgresUser      string
	PostgresPassword  string
	PostgresDB        string
	PostgresSSLMode   string
	PostgresPingTries int

	AirbnbBaseURL string
	HostID        string
	SourceURL     string

	FetchMode       string
	RateLimitMs     int
	FetchTimeoutSec int
	MaxRetries      int
	UserAgent       string
	ChromeBin       string
	BrowserSettleMs int

	TitlePrefixLen int

	JSONOutputPath         string
	InstructionsOutputPath string
	CSVOutputPath          string
	XLSXOutputPath         string

	AdminAddr         string
	APISecret         string
	TokenHourLifespan int

	LogLevel string
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() *Config {
	return &Config{
		PostgresHost:      getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:      getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:      getEnv("POSTGRES_USER", "rental"),
		PostgresPassword:  getEnv("POSTGRES_PASSWORD", "rental123"),
		PostgresDB:        getEnv("POSTGRES_DB", "rental_db"),
		PostgresSSLMode:   getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresPingTries: getEnvInt("POSTGRES_PING_TRIES", 5),

		AirbnbBaseURL: getEnv("AIRBNB_BASE_URL", "https://www.airbnb.com"),
		HostID:        getEnv("AIRBNB_HOST_ID", "126012540"),
		SourceURL:     getEnv("SOURCE_URL", ""),

		FetchMode:       getEnv("FETCH_MODE", "http"),
		RateLimitMs:     getEnvInt("RATE_LIMIT_MS", 1000),
		FetchTimeoutSec: getEnvInt("FETCH_TIMEOUT_SEC", 30),
		MaxRetries:      getEnvInt("MAX_RETRIES", 3),
		UserAgent:       getEnv("USER_AGENT", defaultUserAgent),
		ChromeBin:       getEnv("CHROME_BIN", ""),
		BrowserSettleMs: getEnvInt("BROWSER_SETTLE_MS", 3000),

		TitlePrefixLen: getEnvInt("TITLE_PREFIX_LEN", 20),

		JSONOutputPath:         getEnv("JSON_OUTPUT_PATH", "./output/airbnb-listings.json"),
		InstructionsOutputPath: getEnv("INSTRUCTIONS_OUTPUT_PATH", "./output/instructions.json"),
		CSVOutputPath:          getEnv("CSV_OUTPUT_PATH", "./output/airbnb-listings.csv"),
		XLSXOutputPath:         getEnv("XLSX_OUTPUT_PATH", ""),

		AdminAddr:         getEnv("ADMIN_ADDR", ":8080"),
		APISecret:         getEnv("API_SECRET", ""),
		TokenHourLifespan: getEnvInt("TOKEN_HOUR_LIFESPAN", 24),

		LogLevel: getEnv("LOG_LEVEL", "info"),
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

// RateLimit is the minimum gap between two detail fetches.
func (c *Config) RateLimit() time.Duration {
	if c.RateLimitMs < 0 {
		return 0
	}
	return time.Duration(c.RateLimitMs) * time.Millisecond
}

// FetchTimeout bounds a single page or detail fetch.
func (c *Config) FetchTimeout() time.Duration {
	if c.FetchTimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

// ProfileURL returns SOURCE_URL when set, otherwise the host profile page.
func (c *Config) ProfileURL() string {
	if c.SourceURL != "" {
		return c.SourceURL
	}
	return c.AirbnbBaseURL + "/users/show/" + c.HostID
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
