package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Ledger   LedgerConfig
	Blob     BlobConfig
	Payments PaymentsConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Observ   ObservabilityConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	CORSOrigin   string
	MaxBodyBytes int64
}

// LedgerConfig selects where the artwork collection document lives.
// Backend is one of "file", "memory" or "postgres".
type LedgerConfig struct {
	Backend      string
	Path         string
	DatabaseURL  string
	DocumentName string
}

// BlobConfig selects where image bytes live. Backend is "disk" or "s3".
type BlobConfig struct {
	Backend     string
	Dir         string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

// PaymentsConfig configures the Pi payments client. An empty PiAPIKey
// puts the gateway into simulated mode.
type PaymentsConfig struct {
	PiAPIKey    string
	PiAPIURL    string
	HTTPTimeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	DedupTTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// ObservabilityConfig tunes logging and tracing. An empty JaegerEndpoint
// disables span export.
type ObservabilityConfig struct {
	LogLevel         string
	JaegerEndpoint   string
	TraceSampleRatio float64
}

func Load() *Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	maxBody, _ := strconv.ParseInt(getEnv("MAX_BODY_BYTES", "31457280"), 10, 64)
	httpTimeout, _ := strconv.Atoi(getEnv("PI_HTTP_TIMEOUT_SECONDS", "0"))
	dedupTTL, _ := strconv.Atoi(getEnv("WEBHOOK_DEDUP_TTL_SECONDS", "86400"))
	sampleRatio, _ := strconv.ParseFloat(getEnv("TRACE_SAMPLE_RATIO", "1"), 64)

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "3000"),
			Env:          getEnv("ENV", "development"),
			CORSOrigin:   getEnv("CORS_ORIGIN", "*"),
			MaxBodyBytes: maxBody,
		},
		Ledger: LedgerConfig{
			Backend:      getEnv("LEDGER_BACKEND", "file"),
			Path:         getEnv("GALLERY_FILE", "gallery.json"),
			DatabaseURL:  getEnv("DATABASE_URL", ""),
			DocumentName: getEnv("LEDGER_DOCUMENT", "gallery"),
		},
		Blob: BlobConfig{
			Backend:     getEnv("BLOB_BACKEND", "disk"),
			Dir:         getEnv("UPLOADS_DIR", "uploads"),
			S3Bucket:    getEnv("S3_BUCKET", "artworks"),
			S3Region:    getEnv("S3_REGION", "us-east-1"),
			S3Endpoint:  getEnv("S3_ENDPOINT", ""),
			S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		},
		Payments: PaymentsConfig{
			PiAPIKey:    getEnv("PI_API_KEY", ""),
			PiAPIURL:    getEnv("PI_API_URL", "https://api.minepi.com/v2/payments"),
			HTTPTimeout: time.Duration(httpTimeout) * time.Second,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			DedupTTL: time.Duration(dedupTTL) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC_ART_EVENTS", "art-events"),
		},
		Observ: ObservabilityConfig{
			LogLevel:         getEnv("LOG_LEVEL", ""),
			JaegerEndpoint:   getEnv("JAEGER_ENDPOINT", ""),
			TraceSampleRatio: sampleRatio,
		},
	}

	log.Printf("Config loaded: env=%s, port=%s, ledger=%s, blob=%s, simulated_payments=%t",
		cfg.Server.Env, cfg.Server.Port, cfg.Ledger.Backend, cfg.Blob.Backend, cfg.Payments.Simulated())
	return cfg
}

// Simulated reports whether payments run without provider credentials.
func (p PaymentsConfig) Simulated() bool {
	return p.PiAPIKey == ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
