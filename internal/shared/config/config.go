package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds application configuration.
type Config struct {
	Port            string `validate:"required"`
	Env             string `validate:"oneof=dev local staging production"`
	CORSAllowOrigin []string
	MaxUploadBytes  int64 `validate:"gt=0"`

	ObjectStoreType string `validate:"oneof=none local s3"`
	LocalStoreDir   string `validate:"required_if=ObjectStoreType local"`
	AWSRegion       string
	S3Bucket        string `validate:"required_if=ObjectStoreType s3"`
	S3Prefix        string
	SSEKMSKeyID     string

	ResultStore    string `validate:"oneof=memory valkey postgres"`
	DatabaseURL    string `validate:"required_if=ResultStore postgres"`
	ValkeyAddr     string `validate:"required_if=ResultStore valkey"`
	ValkeyPassword string
	ResultTTL      time.Duration `validate:"gte=0"`

	LLMProvider    string `validate:"oneof=groq openai gemini"`
	LLMModel       string `validate:"required"`
	LLMAPIKey      string
	LLMBaseURL     string        `validate:"omitempty,url"`
	LLMTemperature float32       `validate:"gte=0,lte=2"`
	LLMMaxTokens   int           `validate:"gt=0"`
	LLMTimeout     time.Duration `validate:"gt=0"`

	RateLimitRPS   float64 `validate:"gte=0"`
	RateLimitBurst int     `validate:"gte=0"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	provider := normalizeProvider(getEnv("LLM_PROVIDER", "groq"))
	resultStore := normalizeResultStore(getEnv("RESULT_STORE", "memory"))

	if env == "production" && resultStore == "memory" {
		log.Printf("RESULT_STORE=memory in production; analyses are lost on restart")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		MaxUploadBytes:  getEnvInt64("MAX_UPLOAD_BYTES", 10<<20),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "none")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),

		ResultStore:    resultStore,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ValkeyAddr:     getEnv("VALKEY_ADDR", ""),
		ValkeyPassword: getEnv("VALKEY_PASSWORD", ""),
		ResultTTL:      getEnvDuration("RESULT_TTL", 24*time.Hour),

		LLMProvider:    provider,
		LLMModel:       getEnv("LLM_MODEL", defaultModel(provider)),
		LLMAPIKey:      apiKeyFor(provider),
		LLMBaseURL:     getEnv("LLM_BASE_URL", ""),
		LLMTemperature: float32(getEnvFloat("LLM_TEMPERATURE", 0.7)),
		LLMMaxTokens:   int(getEnvInt64("LLM_MAX_TOKENS", 2000)),
		LLMTimeout:     time.Duration(getEnvInt64("LLM_TIMEOUT_SECONDS", 120)) * time.Second,

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 0.5),
		RateLimitBurst: int(getEnvInt64("RATE_LIMIT_BURST", 5)),
	}
}

var validate = validator.New()

// Validate checks field constraints and cross-field requirements.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if strings.TrimSpace(c.LLMAPIKey) == "" {
		return fmt.Errorf("invalid config: api key for provider %s is required", c.LLMProvider)
	}
	return nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("config %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config %s invalid float: %v", key, err)
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config %s invalid duration: %v", key, err)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

// normalizeStoreType maps aliases; unknown values pass through for Validate to reject.
func normalizeStoreType(raw string) string {
	clean := strings.ToLower(strings.TrimSpace(raw))
	switch clean {
	case "none", "off", "":
		return "none"
	case "local", "fs", "disk":
		return "local"
	default:
		return clean
	}
}

func normalizeResultStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "valkey", "redis":
		return "valkey"
	case "postgres", "pg":
		return "postgres"
	default:
		return "memory"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "gemini", "google":
		return "gemini"
	default:
		return "groq"
	}
}

func defaultModel(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o-mini"
	case "gemini":
		return "gemini-2.5-flash"
	default:
		return "qwen-qwq-32b"
	}
}

func apiKeyFor(provider string) string {
	if key := strings.TrimSpace(os.Getenv("LLM_API_KEY")); key != "" {
		return key
	}
	switch provider {
	case "openai":
		return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	case "gemini":
		return strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	default:
		return strings.TrimSpace(os.Getenv("GROQ_API_KEY"))
	}
}

// IsDevLike reports whether env allows in-process fallbacks.
func IsDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
