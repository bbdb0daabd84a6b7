package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port            string        `json:"port"`
	Env             string        `json:"env"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	HTTPTimeout     time.Duration `json:"http_timeout"`
	JobTimeout      time.Duration `json:"job_timeout"`

	// Redis configuration
	RedisURL    string        `json:"redis_url"`
	RedisPrefix string        `json:"redis_prefix"`
	CacheTTL    time.Duration `json:"cache_ttl"`

	// CloudFlare R2 Configuration
	R2Endpoint  string `json:"r2_endpoint"`
	R2AccessKey string `json:"r2_access_key" env:"R2_ACCESS_KEY"`
	R2SecretKey string `json:"r2_secret_key" env:"R2_SECRET_ACCESS_KEY"`
	R2Bucket    string `json:"r2_bucket" env:"R2_BUCKET"`
	R2AccountID string `json:"r2_account_id"`
	R2PublicURL string `json:"r2_public_url"`

	// AI Configuration
	AIApiKey     string        `json:"ai_api_key" env:"GEMINI_API_KEY"`
	AITextModel  string        `json:"ai_text_model"`
	AIImageModel string        `json:"ai_image_model"`
	AITimeout    time.Duration `json:"ai_timeout"`
	// BrandName is used in image watermark instructions
	BrandName string `json:"brand_name"`

	// Retry policy for text generation
	RetryMaxAttempts int           `json:"retry_max_attempts"`
	RetryBaseDelay   time.Duration `json:"retry_base_delay"`
	RetryMaxDelay    time.Duration `json:"retry_max_delay"`

	// Sanity CMS
	SanityProjectID  string `json:"sanity_project_id" env:"SANITY_PROJECT_ID"`
	SanityDataset    string `json:"sanity_dataset" env:"SANITY_DATASET"`
	SanityToken      string `json:"sanity_token" env:"SANITY_API_TOKEN"`
	SanityAPIVersion string `json:"sanity_api_version"`
	SanityUseCDN     bool   `json:"sanity_use_cdn"`

	// Notion content calendar
	NotionToken      string `json:"notion_token" env:"NOTION_TOKEN"`
	NotionDatabaseID string `json:"notion_database_id" env:"NOTION_DATABASE_ID"`

	// Facebook page
	FacebookPageToken    string `json:"facebook_page_token" env:"FACEBOOK_PAGE_ACCESS_TOKEN"`
	FacebookPageID       string `json:"facebook_page_id" env:"FACEBOOK_PAGE_ID"`
	FacebookGraphVersion string `json:"facebook_graph_version"`

	// WooCommerce catalog
	WooURL            string `json:"woo_url" env:"WOO_COMMERCE_URL"`
	WooConsumerKey    string `json:"woo_consumer_key" env:"WOO_COMMERCE_CONSUMER_KEY"`
	WooConsumerSecret string `json:"woo_consumer_secret" env:"WOO_COMMERCE_CONSUMER_SECRET"`

	// Storage
	StoragePath   string `json:"storage_path"`
	ProcessedPath string `json:"processed_path"`
	ReportsPath   string `json:"reports_path"`

	// Logging
	LogLevel  string `json:"log_level"`
	LogFile   string `json:"log_file"`
	LogPretty bool   `json:"log_pretty"`

	// Security
	AdminAPIKey string `json:"admin_api_key" env:"ADMIN_API_KEY"`
}

// Load loads configuration from environment variables.
// Credentials are checked per command with Validate.
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := &Config{
		// Server configuration
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("APP_ENV", "development"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		HTTPTimeout:     getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),
		JobTimeout:      getEnvAsDuration("JOB_TIMEOUT", 30*time.Minute),

		// Redis configuration
		RedisURL:    getEnv("REDIS_URL", ""),
		RedisPrefix: getEnv("REDIS_PREFIX", "postcraft:"),
		CacheTTL:    getEnvAsDuration("CACHE_TTL", 2160*time.Hour), // 90 days

		// AI Configuration
		AIApiKey:     getEnv("GEMINI_API_KEY", ""),
		AITextModel:  getEnv("GEMINI_TEXT_MODEL", "gemini-2.0-flash"),
		AIImageModel: getEnv("GEMINI_IMAGE_MODEL", "gemini-2.0-flash-preview-image-generation"),
		AITimeout:    getEnvAsDuration("AI_TIMEOUT", 90*time.Second),
		BrandName:    getEnv("BRAND_NAME", "Rental Village"),

		RetryMaxAttempts: getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
		RetryBaseDelay:   getEnvAsDuration("RETRY_BASE_DELAY", 2*time.Second),
		RetryMaxDelay:    getEnvAsDuration("RETRY_MAX_DELAY", 30*time.Second),

		// Sanity CMS
		SanityProjectID:  getEnv("SANITY_PROJECT_ID", ""),
		SanityDataset:    getEnv("SANITY_DATASET", "production"),
		SanityToken:      getEnv("SANITY_API_TOKEN", ""),
		SanityAPIVersion: getEnv("SANITY_API_VERSION", "2021-10-21"),
		SanityUseCDN:     getEnvAsBool("SANITY_USE_CDN", false),

		// Notion (older scripts used NOTION_API_KEY / DATABASE_ID)
		NotionToken:      firstEnv("NOTION_TOKEN", "NOTION_API_KEY"),
		NotionDatabaseID: firstEnv("NOTION_DATABASE_ID", "DATABASE_ID"),

		// Facebook
		FacebookPageToken:    getEnv("FACEBOOK_PAGE_ACCESS_TOKEN", ""),
		FacebookPageID:       getEnv("FACEBOOK_PAGE_ID", ""),
		FacebookGraphVersion: getEnv("FACEBOOK_GRAPH_VERSION", "v18.0"),

		// WooCommerce
		WooURL:            getEnv("WOO_COMMERCE_URL", ""),
		WooConsumerKey:    getEnv("WOO_COMMERCE_CONSUMER_KEY", ""),
		WooConsumerSecret: getEnv("WOO_COMMERCE_CONSUMER_SECRET", ""),

		// Storage
		StoragePath:   getEnv("STORAGE_PATH", "./data"),
		ProcessedPath: getEnv("PROCESSED_PATH", "./data/content/"),
		ReportsPath:   getEnv("REPORTS_PATH", "./data/reports/"),

		// CloudFlare R2 Configuration
		R2Endpoint:  getEnv("R2_ENDPOINT", ""),
		R2AccessKey: getEnv("R2_ACCESS_KEY", ""),
		R2SecretKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:    getEnv("R2_BUCKET", ""),
		R2AccountID: getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
		R2PublicURL: strings.TrimSuffix(getEnv("R2_PUBLIC_URL", ""), "/"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFile:   getEnv("LOG_FILE", ""),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),

		// Security
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
	}

	return cfg
}

// ObjectStoreEnabled reports whether enhanced images should be hosted on R2.
func (c *Config) ObjectStoreEnabled() bool {
	return c.R2Bucket != "" && c.R2AccessKey != "" && c.R2SecretKey != "" &&
		(c.R2Endpoint != "" || c.R2AccountID != "")
}

// Helper functions for environment variable handling
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := getEnv(key, ""); value != "" {
			return value
		}
	}
	return ""
}

func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %t", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}
