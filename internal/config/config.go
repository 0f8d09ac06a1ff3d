package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Dataset modes.
const (
	DatasetModeStream = "stream"
	DatasetModeCached = "cached"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string
	BaseURL    string

	// Optional backing services; empty disables the feature.
	DatabaseURL string
	RedisURL    string

	// TLS
	TLSEnabled  bool
	TLSCertFile string
	TLSKeyFile  string

	// Session
	SessionSecret string // Used for encrypting cookies (min 32 chars)

	// CORS
	CORSOrigins string // Comma-separated allowed origins

	// Rate limiting, requests per minute per IP
	RateLimit int

	// Generated documents
	OutputDir       string
	OutputTTL       time.Duration // env: OUTPUT_TTL, 0 keeps files forever
	JanitorInterval time.Duration
	PDFFontFile     string // TrueType font for PDFs; empty uses Helvetica

	// Dataset
	DatasetFileID      string
	DatasetHostURL     string
	DatasetDownloadURL string
	DatasetMode        string // "stream" or "cached"
	ScanTimeBudget     time.Duration
	ScanMaxRows        int
	ScanMaxMatches     int
	ScanChunkSize      int
	ScanCacheTTL       time.Duration

	// Language models
	GroqAPIKey     string
	GroqBaseURL    string
	TranslateModel string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	PlanModel      string
	LLMRatePerSec  float64
	LLMTimeout     time.Duration

	// Learning resources
	WikipediaURL string
	ArxivURL     string

	// Site Branding
	SiteTitle   string // env: SITE_TITLE, default: "StudyPlan"
	SiteTagline string // env: SITE_TAGLINE
	SiteFooter  string // env: SITE_FOOTER
	SiteLogoURL string // env: SITE_LOGO_URL, default: "" (no logo, text only)
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:         getEnv("ENV", "development"),
		ServerAddr:  getEnv("SERVER_ADDR", ":"+getEnv("PORT", "10000")),
		BaseURL:     getEnv("BASE_URL", ""),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		TLSEnabled:  getEnv("TLS_ENABLED", "") != "",
		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		SessionSecret: getEnv("SESSION_SECRET", "change-me-in-production-min-32-chars"),
		CORSOrigins:   getEnv("CORS_ORIGINS", "*"),
		RateLimit:     getEnvInt("RATE_LIMIT", 60),

		OutputDir:       getEnv("OUTPUT_DIR", "outputs"),
		OutputTTL:       getEnvDuration("OUTPUT_TTL", 24*time.Hour),
		JanitorInterval: getEnvDuration("JANITOR_INTERVAL", 30*time.Minute),
		PDFFontFile:     getEnv("PDF_FONT_FILE", ""),

		DatasetFileID:      getEnv("DATASET_FILE_ID", "1EU6wifU-cdpeSHjKdl2jvxzLD26Lq-bs"),
		DatasetHostURL:     getEnv("DATASET_HOST_URL", "https://drive.google.com/uc?export=download"),
		DatasetDownloadURL: getEnv("DATASET_DOWNLOAD_URL", "https://drive.usercontent.google.com/download"),
		DatasetMode:        strings.ToLower(getEnv("DATASET_MODE", DatasetModeStream)),
		ScanTimeBudget:     getEnvDuration("SCAN_TIME_BUDGET", 8*time.Second),
		ScanMaxRows:        getEnvInt("SCAN_MAX_ROWS", 0),
		ScanMaxMatches:     getEnvInt("SCAN_MAX_MATCHES", 50),
		ScanChunkSize:      getEnvInt("SCAN_CHUNK_SIZE", 5000),
		ScanCacheTTL:       getEnvDuration("SCAN_CACHE_TTL", time.Hour),

		GroqAPIKey:     getEnv("GROQ_API_KEY", ""),
		GroqBaseURL:    getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		TranslateModel: getEnv("TRANSLATE_MODEL", "llama-3.3-70b-versatile"),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		PlanModel:      getEnv("PLAN_MODEL", "gpt-4o-mini"),
		LLMRatePerSec:  getEnvFloat("LLM_RATE_PER_SEC", 2),
		LLMTimeout:     getEnvDuration("LLM_TIMEOUT", 60*time.Second),

		WikipediaURL: getEnv("WIKIPEDIA_URL", "https://en.wikipedia.org/api/rest_v1/page/summary/"),
		ArxivURL:     getEnv("ARXIV_URL", "https://export.arxiv.org/api/query"),

		SiteTitle:   getEnv("SITE_TITLE", "StudyPlan"),
		SiteTagline: getEnv("SITE_TAGLINE", "Kişisel öğrenme planın, dakikalar içinde"),
		SiteFooter:  getEnv("SITE_FOOTER", "StudyPlan - Yapay zeka destekli öğrenme koçu"),
		SiteLogoURL: getEnv("SITE_LOGO_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// HasDatabase reports whether plan history and lookup metrics are persisted.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// HasRedis reports whether shared storage is configured.
func (c *Config) HasRedis() bool {
	return c.RedisURL != ""
}

// IsCachedDataset reports whether the dataset is held in memory.
func (c *Config) IsCachedDataset() bool {
	return c.DatasetMode == DatasetModeCached
}
