package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings shared by the server, worker and scheduler.
type Config struct {
	Port        string
	MetricsPort string
	BaseURL     string
	DatabaseURL string
	RedisAddr   string
	Development bool

	TelegramBotToken   string
	TelegramBotEnabled bool
	SessionTTL         time.Duration

	OpenAIKey   string
	SpeechModel string

	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioUseSSL     bool
	UploadURLExpiry time.Duration
	AudioURLExpiry  time.Duration

	SearchTimeout    time.Duration
	OperationTimeout time.Duration
	GenerateRate     float64
	GenerateBurst    int
	DraftTTL         time.Duration
	OrphanTTL        time.Duration
}

// Load reads the .env file if present and builds a Config from the
// environment. Missing optional values fall back to defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	p := parser{getenv: getenv}
	cfg := &Config{
		Port:        p.str("PORT", "8080"),
		MetricsPort: p.str("METRICS_PORT", "9091"),
		BaseURL:     strings.TrimRight(p.str("BASE_URL", ""), "/"),
		DatabaseURL: p.str("DATABASE_URL", ""),
		RedisAddr:   p.str("REDIS_ADDR", "127.0.0.1:6379"),
		Development: p.str("APP_ENV", "production") == "development",

		TelegramBotToken:   p.str("TELEGRAM_BOT_TOKEN", ""),
		TelegramBotEnabled: p.boolean("TELEGRAM_BOT_ENABLED", false),
		SessionTTL:         p.duration("SESSION_TTL", 24*time.Hour),

		OpenAIKey:   p.str("OPENAI_API_KEY", ""),
		SpeechModel: p.str("SPEECH_MODEL", "tts-1"),

		MinioEndpoint:   p.str("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:  p.str("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey:  p.str("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:     p.str("MINIO_BUCKET", "podnplay-audio"),
		MinioUseSSL:     p.boolean("MINIO_USE_SSL", false),
		UploadURLExpiry: p.duration("UPLOAD_URL_EXPIRY", 15*time.Minute),
		AudioURLExpiry:  p.duration("AUDIO_URL_EXPIRY", 12*time.Hour),

		SearchTimeout:    p.duration("SEARCH_TIMEOUT", 5*time.Second),
		OperationTimeout: p.duration("OPERATION_TIMEOUT", 2*time.Minute),
		GenerateRate:     p.float("GENERATE_RATE", 0.2),
		GenerateBurst:    p.integer("GENERATE_BURST", 3),
		DraftTTL:         p.duration("DRAFT_TTL", time.Hour),
		OrphanTTL:        p.duration("ORPHAN_TTL", 24*time.Hour),
	}
	if len(p.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(p.errs, "; "))
	}
	return cfg, nil
}

// ValidateServer checks the settings the HTTP server cannot start without.
func (c *Config) ValidateServer() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.TelegramBotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.OpenAIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateWorker checks the settings the worker and scheduler need.
func (c *Config) ValidateWorker() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("missing required settings: DATABASE_URL")
	}
	return nil
}

type parser struct {
	getenv func(string) string
	errs   []string
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) boolean(key string, def bool) bool {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return b
}

func (p *parser) integer(key string, def int) int {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return f
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return d
}
