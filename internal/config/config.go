// Package config provides configuration for the intake service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Artifact backends.
const (
	ArtifactFile   = "file"
	ArtifactS3     = "s3"
	ArtifactSQLite = "sqlite"
)

// LLM providers.
const (
	ProviderLiteLLM = "litellm"
	ProviderOpenAI  = "openai"
	ProviderBedrock = "bedrock"
	ProviderMock    = "mock"
)

// Config holds the intake service configuration.
type Config struct {
	// Server settings
	HTTPPort           int      `yaml:"http_port"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	// Session store
	StoreBackend    string        `yaml:"store_backend"`
	DatabaseURL     string        `yaml:"database_url"`
	RedisAddr       string        `yaml:"redis_addr"`
	RedisPassword   string        `yaml:"redis_password"`
	RedisDB         int           `yaml:"redis_db"`
	RedisSessionTTL time.Duration `yaml:"redis_session_ttl"`
	MaxActiveUsers  int           `yaml:"max_active_users"`

	// Artifact store
	ArtifactBackend string `yaml:"artifact_backend"`
	ArtifactDir     string `yaml:"artifact_dir"`
	S3Bucket        string `yaml:"s3_bucket"`
	S3Prefix        string `yaml:"s3_prefix"`
	S3Region        string `yaml:"s3_region"`
	S3Endpoint      string `yaml:"s3_endpoint"`
	// Static S3 credentials; the AWS default chain is used when empty.
	S3AccessKeyID     string `yaml:"s3_access_key_id"`
	S3SecretAccessKey string `yaml:"s3_secret_access_key"`

	// LLM settings
	LLMProvider    string  `yaml:"llm_provider"`
	LLMModel       string  `yaml:"llm_model"`
	LLMTemperature float64 `yaml:"llm_temperature"`
	LiteLLMURL     string  `yaml:"litellm_url"`
	LiteLLMAPIKey  string  `yaml:"litellm_api_key"`
	OpenAIAPIKey   string  `yaml:"openai_api_key"`
	OpenAIBaseURL  string  `yaml:"openai_base_url"`
	BedrockRegion  string  `yaml:"bedrock_region"`

	// Conversation
	Locale string `yaml:"locale"`

	// Timeouts
	LLMTimeout     time.Duration `yaml:"llm_timeout"`
	PersistTimeout time.Duration `yaml:"persist_timeout"`

	// WebSocket settings
	WSMaxMessageSize int64         `yaml:"ws_max_message_size"`
	WSPingInterval   time.Duration `yaml:"ws_ping_interval"`
	WSReadTimeout    time.Duration `yaml:"ws_read_timeout"`
	WSWriteTimeout   time.Duration `yaml:"ws_write_timeout"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTPPort: 5000,
		CORSAllowedOrigins: []string{
			"http://localhost:3000",
			"http://localhost:4200",
			"http://127.0.0.1:3000",
			"http://localhost:5173",
		},
		StoreBackend:     StoreMemory,
		DatabaseURL:      "file:intake.db?cache=shared&mode=rwc",
		RedisAddr:        "localhost:6379",
		ArtifactBackend:  ArtifactFile,
		ArtifactDir:      ".",
		S3Prefix:         "medical-plans/",
		S3Region:         "us-east-1",
		LLMProvider:      ProviderLiteLLM,
		LLMModel:         "claude-3-5-sonnet",
		LLMTemperature:   0.1,
		LiteLLMURL:       "http://localhost:4000",
		BedrockRegion:    "us-east-1",
		Locale:           "he",
		LLMTimeout:       60 * time.Second,
		PersistTimeout:   10 * time.Second,
		WSMaxMessageSize: 64 * 1024,
		WSPingInterval:   30 * time.Second,
		WSReadTimeout:    60 * time.Second,
		WSWriteTimeout:   10 * time.Second,
		LogLevel:         "info",
	}
}

// Load loads configuration from an optional YAML file named by CONFIG_FILE,
// then applies environment variable overrides.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HTTPPort = getEnvInt("HTTP_PORT", c.HTTPPort)
	c.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", c.CORSAllowedOrigins)

	c.StoreBackend = getEnv("STORE_BACKEND", c.StoreBackend)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)
	c.RedisSessionTTL = getEnvDurationMs("REDIS_SESSION_TTL_MS", c.RedisSessionTTL)
	c.MaxActiveUsers = getEnvInt("MAX_ACTIVE_USERS", c.MaxActiveUsers)

	c.ArtifactBackend = getEnv("ARTIFACT_BACKEND", c.ArtifactBackend)
	c.ArtifactDir = getEnv("ARTIFACT_DIR", c.ArtifactDir)
	c.S3Bucket = getEnv("S3_BUCKET", c.S3Bucket)
	c.S3Prefix = getEnv("S3_PREFIX", c.S3Prefix)
	c.S3Region = getEnv("S3_REGION", c.S3Region)
	c.S3Endpoint = getEnv("S3_ENDPOINT", c.S3Endpoint)
	c.S3AccessKeyID = getEnv("S3_ACCESS_KEY_ID", c.S3AccessKeyID)
	c.S3SecretAccessKey = getEnv("S3_SECRET_ACCESS_KEY", c.S3SecretAccessKey)

	c.LLMProvider = getEnv("LLM_PROVIDER", c.LLMProvider)
	c.LLMModel = getEnv("LLM_MODEL", c.LLMModel)
	c.LLMTemperature = getEnvFloat("LLM_TEMPERATURE", c.LLMTemperature)
	c.LiteLLMURL = getEnv("LITELLM_URL", c.LiteLLMURL)
	c.LiteLLMAPIKey = getEnv("LITELLM_API_KEY", c.LiteLLMAPIKey)
	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.BedrockRegion = getEnv("BEDROCK_REGION", c.BedrockRegion)

	c.Locale = getEnv("INTAKE_LOCALE", c.Locale)

	c.LLMTimeout = getEnvDurationMs("LLM_TIMEOUT_MS", c.LLMTimeout)
	c.PersistTimeout = getEnvDurationMs("PERSIST_TIMEOUT_MS", c.PersistTimeout)

	c.WSMaxMessageSize = int64(getEnvInt("WS_MAX_MESSAGE_SIZE", int(c.WSMaxMessageSize)))
	c.WSPingInterval = getEnvDurationMs("WS_PING_INTERVAL_MS", c.WSPingInterval)
	c.WSReadTimeout = getEnvDurationMs("WS_READ_TIMEOUT_MS", c.WSReadTimeout)
	c.WSWriteTimeout = getEnvDurationMs("WS_WRITE_TIMEOUT_MS", c.WSWriteTimeout)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// Validate reports settings that would prevent the service from starting.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory, StoreSQLite, StoreRedis:
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	switch c.ArtifactBackend {
	case ArtifactFile, ArtifactSQLite:
	case ArtifactS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("s3 artifact backend requires S3_BUCKET")
		}
	default:
		return fmt.Errorf("unknown artifact backend %q", c.ArtifactBackend)
	}
	switch c.LLMProvider {
	case ProviderLiteLLM, ProviderOpenAI, ProviderBedrock, ProviderMock:
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLMProvider)
	}
	if c.LLMTimeout <= 0 || c.PersistTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if ms, err := strconv.Atoi(val); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
