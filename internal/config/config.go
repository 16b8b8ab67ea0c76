// Package config loads service configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full service configuration.
type Config struct {
	Service       ServiceConfig
	Engine        EngineConfig
	Staging       StagingConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig holds the API server settings.
type ServiceConfig struct {
	Name            string
	Port            string
	ShutdownTimeout time.Duration
	// MaxUploadBytes caps the in-memory portion of multipart parsing;
	// larger uploads spill to disk.
	MaxUploadBytes int64
}

// EngineConfig selects and configures the recognition engine provider.
type EngineConfig struct {
	// Provider is one of: whispercli, google, openai, mock.
	Provider string

	// whispercli
	WhisperBinary  string
	WhisperModel   string
	WhisperThreads int

	// google
	GoogleDefaultLanguage string

	// openai
	OpenAIBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAITimeout time.Duration
}

// StagingConfig holds transient-file settings.
type StagingConfig struct {
	// Dir is the staging directory; empty means the system temp dir.
	Dir string
}

// KafkaConfig holds optional event publishing settings. Disabled by
// default: transcript persistence is future work and must never gate the
// request path.
type KafkaConfig struct {
	Enabled   bool
	Brokers   []string
	Topic     string
	Principal string
}

// ObservabilityConfig holds metrics and logging settings.
type ObservabilityConfig struct {
	Addr      string
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-whisper-transcription")

	return &Config{
		Service: ServiceConfig{
			Name:            principal,
			Port:            envOrDefault("PORT", "8080"),
			ShutdownTimeout: envOrDefaultDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
			MaxUploadBytes:  envOrDefaultInt64("MAX_UPLOAD_BYTES", 32<<20),
		},
		Engine: EngineConfig{
			Provider:              envOrDefault("ENGINE_PROVIDER", "whispercli"),
			WhisperBinary:         envOrDefault("WHISPER_CLI_PATH", "whisper-cli"),
			WhisperModel:          envOrDefault("WHISPER_MODEL_PATH", "models/ggml-large-v3.bin"),
			WhisperThreads:        envOrDefaultInt("WHISPER_THREADS", 0),
			GoogleDefaultLanguage: envOrDefault("GOOGLE_DEFAULT_LANGUAGE", "en-US"),
			OpenAIBaseURL:         envOrDefault("OPENAI_BASE_URL", ""),
			OpenAIAPIKey:          envOrDefault("OPENAI_API_KEY", ""),
			OpenAIModel:           envOrDefault("OPENAI_MODEL", "whisper-1"),
			OpenAITimeout:         envOrDefaultDuration("OPENAI_TIMEOUT", 120*time.Second),
		},
		Staging: StagingConfig{
			Dir: envOrDefault("STAGING_DIR", ""),
		},
		Kafka: KafkaConfig{
			Enabled:   envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:   envOrDefaultList("KAFKA_BROKERS", nil),
			Topic:     envOrDefault("KAFKA_TOPIC", "transcription.completed"),
			Principal: principal,
		},
		Observability: ObservabilityConfig{
			Addr:      envOrDefault("OBSERVABILITY_ADDR", ":9090"),
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return def
	}
	return parsed
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return parsed
}

func envOrDefaultInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return parsed
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
