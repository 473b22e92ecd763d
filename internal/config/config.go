// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes bot credentials,
// image provider settings, object storage, admission limits, the card
// server, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// TelegramConfig holds the bot credentials and chat wiring.
type TelegramConfig struct {
	BotToken            string        // TELEGRAM_BOT_TOKEN
	RequiredChatID      int64         // REQUIRED_CHAT_ID (0 disables the membership gate)
	RequiredChannelName string        // REQUIRED_CHANNEL_NAME (shown in denial messages)
	OperatorChatID      int64         // OPERATOR_CHAT_ID (0 disables escalation)
	PollTimeout         time.Duration // LONG_POLL_TIMEOUT
}

// GeminiConfig holds the image/caption provider settings.
type GeminiConfig struct {
	APIKey       string // GEMINI_API_KEY
	BaseURL      string // GEMINI_BASE_URL (empty uses the provider default)
	ImageModel   string // GEMINI_IMAGE_MODEL
	CaptionModel string // GEMINI_CAPTION_MODEL
}

// S3Config holds object storage settings for uploaded share images.
type S3Config struct {
	Bucket          string        // S3_BUCKET
	Region          string        // S3_REGION
	Endpoint        string        // S3_ENDPOINT (empty for AWS proper)
	AccessKey       string        // S3_ACCESS_KEY
	SecretKey       string        // S3_SECRET_KEY
	PublicBaseURL   string        // S3_PUBLIC_BASE_URL (CDN or bucket website origin)
	CleanupInterval time.Duration // S3_CLEANUP_INTERVAL
}

// AdmissionConfig holds per-user generation limits.
type AdmissionConfig struct {
	DailyLimit    int           // DAILY_LIMIT
	Cooldown      time.Duration // COOLDOWN
	SweepInterval time.Duration // QUOTA_SWEEP_INTERVAL
}

// SessionConfig holds in-flight session reaping settings.
type SessionConfig struct {
	MaxAge        time.Duration // SESSION_MAX_AGE
	SweepInterval time.Duration // SESSION_SWEEP_INTERVAL
}

// SharingConfig holds share-card and tweet composition settings.
type SharingConfig struct {
	CardBaseURL         string // CARD_BASE_URL (externally visible origin, no trailing slash)
	PlaceholderImageURL string // CARD_PLACEHOLDER_IMAGE_URL
	TweetBudget         int    // TWEET_BUDGET (max runes for composed tweet text)
	Attribution         string // TWEET_ATTRIBUTION
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// HTTP server (card pages and status API)
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// Rate limiting (card server)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	Telegram  TelegramConfig
	Gemini    GeminiConfig
	S3        S3Config
	Admission AdmissionConfig
	Session   SessionConfig
	Sharing   SharingConfig

	Security SecurityConfig
	OTEL     OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// HTTP server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		Telegram: TelegramConfig{
			BotToken:            getenv("TELEGRAM_BOT_TOKEN", ""),
			RequiredChatID:      getint64("REQUIRED_CHAT_ID", 0),
			RequiredChannelName: getenv("REQUIRED_CHANNEL_NAME", "pepemp3"),
			OperatorChatID:      getint64("OPERATOR_CHAT_ID", 0),
			PollTimeout:         getdur("LONG_POLL_TIMEOUT", 10*time.Second),
		},

		Gemini: GeminiConfig{
			APIKey:       getenv("GEMINI_API_KEY", ""),
			BaseURL:      getenv("GEMINI_BASE_URL", ""),
			ImageModel:   getenv("GEMINI_IMAGE_MODEL", ""),
			CaptionModel: getenv("GEMINI_CAPTION_MODEL", ""),
		},

		S3: S3Config{
			Bucket:          getenv("S3_BUCKET", ""),
			Region:          getenv("S3_REGION", "us-east-1"),
			Endpoint:        getenv("S3_ENDPOINT", ""),
			AccessKey:       getenv("S3_ACCESS_KEY", ""),
			SecretKey:       getenv("S3_SECRET_KEY", ""),
			PublicBaseURL:   getenv("S3_PUBLIC_BASE_URL", ""),
			CleanupInterval: getdur("S3_CLEANUP_INTERVAL", time.Hour),
		},

		Admission: AdmissionConfig{
			DailyLimit:    getint("DAILY_LIMIT", 10),
			Cooldown:      getdur("COOLDOWN", 30*time.Second),
			SweepInterval: getdur("QUOTA_SWEEP_INTERVAL", time.Hour),
		},

		Session: SessionConfig{
			MaxAge:        getdur("SESSION_MAX_AGE", 5*time.Minute),
			SweepInterval: getdur("SESSION_SWEEP_INTERVAL", time.Minute),
		},

		Sharing: SharingConfig{
			CardBaseURL:         strings.TrimRight(getenv("CARD_BASE_URL", ""), "/"),
			PlaceholderImageURL: getenv("CARD_PLACEHOLDER_IMAGE_URL", ""),
			TweetBudget:         getint("TWEET_BUDGET", 250),
			Attribution:         getenv("TWEET_ATTRIBUTION", ""),
		},

		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "shillbot"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if strings.TrimSpace(cfg.Telegram.BotToken) == "" {
		return cfg, errors.New("TELEGRAM_BOT_TOKEN must not be empty")
	}
	if strings.TrimSpace(cfg.Gemini.APIKey) == "" {
		return cfg, errors.New("GEMINI_API_KEY must not be empty")
	}
	if strings.TrimSpace(cfg.S3.Bucket) == "" {
		return cfg, errors.New("S3_BUCKET must not be empty")
	}
	if cfg.S3.CleanupInterval <= 0 {
		return cfg, errors.New("S3_CLEANUP_INTERVAL must be > 0")
	}
	if cfg.Admission.DailyLimit < 1 {
		return cfg, errors.New("DAILY_LIMIT must be >= 1")
	}
	if cfg.Admission.Cooldown < 0 {
		return cfg, errors.New("COOLDOWN must be >= 0")
	}
	if cfg.Admission.SweepInterval <= 0 || cfg.Session.SweepInterval <= 0 {
		return cfg, errors.New("sweep intervals must be positive durations")
	}
	if cfg.Session.MaxAge <= 0 {
		return cfg, errors.New("SESSION_MAX_AGE must be > 0")
	}
	if cfg.Sharing.TweetBudget < 1 {
		return cfg, errors.New("TWEET_BUDGET must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
