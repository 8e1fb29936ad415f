package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"resume-formatter/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Env  string `validate:"oneof=dev local staging production"`
	Port string `validate:"required,numeric"`

	ClassifierMinConfidence     float64 `validate:"gt=0,lte=1"`
	ClassifierFuzzyThreshold    float64 `validate:"gt=0,lte=1"`
	ClassifierKeywordConfidence float64 `validate:"gt=0,lte=1"`
	ValidatorAcceptThreshold    float64 `validate:"gt=0,lte=1"`
	ValidatorSaturation         float64 `validate:"gt=0"`
	ValidatorHeadingPrior       float64 `validate:"gt=0,lte=1"`
	ValidatorRelocationMargin   float64 `validate:"gt=0,lte=1"`
	FingerprintLength           int     `validate:"gt=0"`
	WindowShort                 int     `validate:"gt=0"`
	WindowLong                  int     `validate:"gtefield=WindowShort"`
	BatchConcurrency            int     `validate:"gt=0,lte=64"`

	Embedder           string `validate:"oneof=hash gemini"`
	GeminiAPIKey       string `validate:"required_if=Embedder gemini"`
	EmbeddingModel     string
	EmbeddingCachePath string

	ObjectStoreType string `validate:"oneof=local s3"`
	LocalStoreDir   string `validate:"required_if=ObjectStoreType local"`
	AWSRegion       string
	S3Bucket        string `validate:"required_if=ObjectStoreType s3"`
	S3Prefix        string
	SSEKMSKeyID     string

	DatabaseURL    string
	DBPool         DBPool
	FormatQueueURL string
}

// DBPool overrides the connection pool defaults of the runtime. Zero fields
// keep the default.
type DBPool struct {
	MaxOpenConns    int           `validate:"gte=0,lte=200"`
	MaxIdleConns    int           `validate:"gte=0,lte=200"`
	ConnMaxLifetime time.Duration `validate:"gte=0"`
	ConnMaxIdleTime time.Duration `validate:"gte=0"`
	PingTimeout     time.Duration `validate:"gte=0,lte=1m"`
}

// Load reads configuration from environment variables with sensible defaults.
// Values in .env files fill in anything the environment leaves unset.
func Load() Config {
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	if env == "production" && dbURL == "" {
		telemetry.Warn("config.database_url_missing", map[string]any{"env": env})
	}

	return Config{
		Env:  env,
		Port: getEnv("PORT", "8080"),

		ClassifierMinConfidence:     getFloat("CLASSIFIER_MIN_CONFIDENCE", 0.5),
		ClassifierFuzzyThreshold:    getFloat("CLASSIFIER_FUZZY_THRESHOLD", 0.85),
		ClassifierKeywordConfidence: getFloat("CLASSIFIER_KEYWORD_CONFIDENCE", 0.6),
		ValidatorAcceptThreshold:    getFloat("VALIDATOR_ACCEPT_THRESHOLD", 0.6),
		ValidatorSaturation:         getFloat("VALIDATOR_SATURATION", 3),
		ValidatorHeadingPrior:       getFloat("VALIDATOR_HEADING_PRIOR", 0.5),
		ValidatorRelocationMargin:   getFloat("VALIDATOR_RELOCATION_MARGIN", 0.2),
		FingerprintLength:           getInt("FINGERPRINT_LENGTH", 100),
		WindowShort:                 getInt("WINDOW_SHORT", 30),
		WindowLong:                  getInt("WINDOW_LONG", 150),
		BatchConcurrency:            getInt("BATCH_CONCURRENCY", 4),

		Embedder:           strings.ToLower(getEnv("EMBEDDER", "hash")),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", "text-embedding-004"),
		EmbeddingCachePath: getEnv("EMBEDDING_CACHE_PATH", ""),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),

		DatabaseURL: dbURL,
		DBPool: DBPool{
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 0),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 0),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 0),
			ConnMaxIdleTime: getDuration("DB_CONN_MAX_IDLE_TIME", 0),
			PingTimeout:     getDuration("DB_PING_TIMEOUT", 0),
		},
		FormatQueueURL: getEnv("FORMAT_QUEUE_URL", ""),
	}
}

// Validate checks ranges and cross-field requirements.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// loadEnvFiles loads the given files if they exist. Variables already set in
// the environment win.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			telemetry.Warn("config.env_file_invalid", map[string]any{"path": path, "error": err.Error()})
		}
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		telemetry.Warn("config.invalid_float", map[string]any{"key": key, "value": raw})
		return def
	}
	return val
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		telemetry.Warn("config.invalid_int", map[string]any{"key": key, "value": raw})
		return def
	}
	return val
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		telemetry.Warn("config.invalid_duration", map[string]any{"key": key, "value": raw})
		return def
	}
	return val
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

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
