package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/maheshrc27/slotcast/internal/slots"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
}

type Twitter struct {
	AppKey            string
	AppSecret         string
	UploadURL         string
	APIURL            string
	RequestsPerSecond float64
}

type Config struct {
	Port                 string
	GoogleClientID       string
	GoogleClientSecret   string
	GoogleRedirectURI    string
	PostgresURI          string
	RedisURI             string
	FrontendURL          string
	R2                   R2
	Twitter              Twitter
	SecretKey            string
	CookieName           string
	LogLevel             string
	Timezone             string
	SlotHours            string
	SweepInterval        time.Duration
	SweepPageSize        int
	StaleProcessingAfter time.Duration
	PublishTimeout       time.Duration
}

// staleMargin keeps the stale-processing threshold clear of the longest
// publish attempt.
const staleMargin = 10 * time.Minute

func LoadConfig() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "3000"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:3000/login/callback"),
		PostgresURI:        getEnv("POSTGRES_URI", ""),
		RedisURI:           getEnv("REDIS_URI", "localhost:6379"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
		},
		Twitter: Twitter{
			AppKey:            getEnv("TWITTER_APP_KEY", ""),
			AppSecret:         getEnv("TWITTER_APP_SECRET", ""),
			UploadURL:         getEnv("TWITTER_UPLOAD_URL", ""),
			APIURL:            getEnv("TWITTER_API_URL", ""),
			RequestsPerSecond: getEnvFloat("TWITTER_REQUESTS_PER_SECOND", 5),
		},
		SecretKey:            getEnv("SECRET_KEY", ""),
		CookieName:           getEnv("COOKIE_NAME", "slotcast_session"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		Timezone:             getEnv("TIMEZONE", "America/New_York"),
		SlotHours:            getEnv("SLOT_HOURS", "4-19"),
		SweepInterval:        getEnvDuration("SWEEP_INTERVAL", 5*time.Minute),
		SweepPageSize:        getEnvInt("SWEEP_PAGE_SIZE", 25),
		StaleProcessingAfter: getEnvDuration("STALE_PROCESSING_AFTER", 30*time.Minute),
		PublishTimeout:       getEnvDuration("PUBLISH_TIMEOUT", 20*time.Minute),
	}
	if cfg.StaleProcessingAfter < cfg.PublishTimeout+staleMargin {
		cfg.StaleProcessingAfter = cfg.PublishTimeout + staleMargin
	}
	return cfg
}

// Grid builds the publication slot grid from TIMEZONE and SLOT_HOURS.
func (c *Config) Grid() (slots.Grid, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return slots.Grid{}, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	hours, err := slots.ParseHours(c.SlotHours)
	if err != nil {
		return slots.Grid{}, fmt.Errorf("invalid SLOT_HOURS: %w", err)
	}
	return slots.NewGrid(loc, hours)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
