package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	StoreBackendMemory = "memory"
	StoreBackendSQLite = "sqlite"
)

type Config struct {
	LLMProvider  string
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string

	HTTPPort         string
	HTTPWriteTimeout time.Duration
	LogLevel         string
	LogDir           string

	StoreBackend string
	DatabaseURL  string

	SessionSecret       string
	SessionCacheSize    int
	SessionCookieSecure bool

	MaxUploadBytes int64

	// EnvFileLoaded reports whether a .env file was found.
	EnvFileLoaded bool
}

var AppConfig Config

// LoadConfig reads .env (if present) and the process environment into AppConfig.
func LoadConfig() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

// Load builds a Config without touching AppConfig.
func Load() (Config, error) {
	envErr := godotenv.Load()

	cfg := Config{
		LLMProvider:  strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		HTTPWriteTimeout: getEnvAsDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
		LogLevel:         strings.ToUpper(getEnv("LOG_LEVEL", "INFO")),
		LogDir:           getEnv("LOG_DIR", "./logs"),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", StoreBackendMemory)),
		DatabaseURL:  getEnv("DATABASE_URL", "file:healthgenie?mode=memory&cache=shared"),

		SessionSecret:       getEnv("SESSION_SECRET", ""),
		SessionCacheSize:    getEnvAsInt("SESSION_CACHE_SIZE", 1000),
		SessionCookieSecure: getEnvAsBool("SESSION_COOKIE_SECURE", false),

		MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", 1024*1024),

		EnvFileLoaded: envErr == nil,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the selected provider has credentials and that the
// numeric limits are usable.
func (c Config) Validate() error {
	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable is required")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable is required")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	switch c.StoreBackend {
	case StoreBackendMemory, StoreBackendSQLite:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}
	if c.SessionCacheSize <= 0 {
		return fmt.Errorf("SESSION_CACHE_SIZE must be > 0")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be > 0")
	}
	return nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(strings.TrimSpace(valueStr)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(strings.TrimSpace(valueStr), 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(getEnv(key, ""))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(strings.TrimSpace(valueStr)); err == nil {
		return value
	}
	return defaultValue
}
