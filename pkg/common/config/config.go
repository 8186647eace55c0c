package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Record store: "postgres" or "memory"
	StoreBackend string

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Identifier allocation: "local" or "redis"
	AllocatorBackend string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka. An empty broker list disables event publishing.
	KafkaBrokers       []string
	KafkaGroupID       string
	KafkaEventsTopic   string
	KafkaAnalysisTopic string

	// Triage engine
	ModelArtifactPath string
	RoutingTablePath  string

	// Clinical documents: "local" or "s3"
	DocumentBackend string
	UploadDir       string
	S3Bucket        string

	// Clinician tokens
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	JWTTTL      time.Duration

	// OIDC
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string

	BootstrapClinicianUsername string
	BootstrapClinicianPassword string

	// Gateway specific
	GatewayRequestTimeout time.Duration
	GatewayRateLimitRPS   int
	GatewayRateLimitBurst int
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 16*1024*1024)),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", "postgres")),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "medtriage"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "medtriage"),
		PostgresDB:       getEnv("POSTGRES_DB", "medtriage"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		AllocatorBackend: strings.ToLower(getEnv("ALLOCATOR_BACKEND", "local")),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:       getStringSliceEnv("KAFKA_BROKERS", nil),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "medtriage"),
		KafkaEventsTopic:   getEnv("KAFKA_EVENTS_TOPIC", "medtriage.patients"),
		KafkaAnalysisTopic: getEnv("KAFKA_ANALYSIS_TOPIC", "medtriage.analysis-requests"),

		ModelArtifactPath: getEnv("MODEL_ARTIFACT_PATH", "models/triage_model.json"),
		RoutingTablePath:  getEnv("ROUTING_TABLE_PATH", ""),

		DocumentBackend: strings.ToLower(getEnv("DOCUMENT_BACKEND", "local")),
		UploadDir:       getEnv("UPLOAD_DIR", "uploads"),
		S3Bucket:        getEnv("S3_BUCKET", ""),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTIssuer:   getEnv("JWT_ISSUER", "medtriage"),
		JWTAudience: getEnv("JWT_AUDIENCE", "medtriage-clinicians"),
		JWTTTL:      getDuration("JWT_TTL", 8*time.Hour),

		OIDCIssuer:       getEnv("OIDC_ISSUER", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:  getEnv("OIDC_REDIRECT_URL", ""),

		BootstrapClinicianUsername: getEnv("BOOTSTRAP_CLINICIAN_USERNAME", ""),
		BootstrapClinicianPassword: getEnv("BOOTSTRAP_CLINICIAN_PASSWORD", ""),

		GatewayRequestTimeout: getDuration("GATEWAY_REQUEST_TIMEOUT", 10*time.Second),
		GatewayRateLimitRPS:   getIntEnv("GATEWAY_RATE_LIMIT_RPS", 50),
		GatewayRateLimitBurst: getIntEnv("GATEWAY_RATE_LIMIT_BURST", 100),
	}
}

// KafkaEnabled reports whether any broker is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
