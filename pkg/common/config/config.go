package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendAppwrite   = "appwrite"
	BackendPostgres   = "postgres"
	BackendFilesystem = "filesystem"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64
	APIKey         string
	RateLimitRPS   int
	RateLimitBurst int

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers          []string
	KafkaGroupID          string
	AppointmentEventTopic string
	AppointmentDLQTopic   string
	PredictionEventTopic  string
	KafkaHandlerAttempts  int
	KafkaRetryBackoff     time.Duration

	// Appwrite
	AppwriteEndpoint   string
	AppwriteProjectID  string
	AppwriteAPIKey     string
	AppwriteDatabaseID string

	// Records and artifacts
	RecordBackend           string
	AppointmentCollectionID string
	BlobBackend             string
	ArtifactBucketID        string
	ScalerFileID            string
	ModelFileID             string
	ArtifactDir             string

	// Meetings
	ZoomAccountID       string
	ZoomClientID        string
	ZoomClientSecret    string
	ZoomBaseURL         string
	ZoomTokenURL        string
	MeetingDurationMins int

	// Email
	SMTPHost           string
	SMTPPort           string
	SMTPUsername       string
	SMTPPassword       string
	SMTPFrom           string
	NotifyRecipient    string
	NotifyEnabled      bool
	EmailTemplatesPath string

	// Feature Store
	FeatureStoreEnabled bool
	FeatureOnlinePrefix string
	FeatureCacheTTL     time.Duration

	// Orchestration
	StepTimeout          time.Duration
	HTTPClientTimeout    time.Duration
	PredictionLogEnabled bool
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8089"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 90*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1024*1024)),
		APIKey:         getEnv("FUNCTION_API_KEY", ""),
		RateLimitRPS:   getIntEnv("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 20),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "noshow"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "noshow"),
		PostgresDB:       getEnv("POSTGRES_DB", "appointments"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:          getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:          getEnv("KAFKA_GROUP_ID", "noshow-predictor"),
		AppointmentEventTopic: getEnv("APPOINTMENT_EVENTS_TOPIC", ""),
		AppointmentDLQTopic:   getEnv("APPOINTMENT_EVENTS_DLQ_TOPIC", ""),
		PredictionEventTopic:  getEnv("PREDICTION_EVENTS_TOPIC", ""),
		KafkaHandlerAttempts:  getIntEnv("KAFKA_HANDLER_ATTEMPTS", 5),
		KafkaRetryBackoff:     getDuration("KAFKA_RETRY_BACKOFF", time.Second),

		AppwriteEndpoint:   getEnv("NEXT_PUBLIC_ENDPOINT", "https://cloud.appwrite.io/v1"),
		AppwriteProjectID:  getEnv("PROJECT_ID", ""),
		AppwriteAPIKey:     getEnv("API_KEY", ""),
		AppwriteDatabaseID: getEnv("DATABASE_ID", ""),

		RecordBackend:           strings.ToLower(getEnv("RECORD_BACKEND", BackendAppwrite)),
		AppointmentCollectionID: getEnv("APPOINTMENT_COLLECTION_ID", "appointments"),
		BlobBackend:             strings.ToLower(getEnv("BLOB_BACKEND", BackendAppwrite)),
		ArtifactBucketID:        getEnv("NEXT_PUBLIC_BUCKET_ID", "models"),
		ScalerFileID:            getEnv("SCALER_FILE_ID", ""),
		ModelFileID:             getEnv("MODEL_FILE_ID", ""),
		ArtifactDir:             getEnv("ARTIFACT_DIR", "./artifacts"),

		ZoomAccountID:       getEnv("ZOOM_ACCOUNT_ID", ""),
		ZoomClientID:        getEnv("ZOOM_CLIENT_ID", ""),
		ZoomClientSecret:    getEnv("ZOOM_CLIENT_SECRET", ""),
		ZoomBaseURL:         getEnv("ZOOM_BASE_URL", "https://api.zoom.us/v2"),
		ZoomTokenURL:        getEnv("ZOOM_TOKEN_URL", "https://zoom.us/oauth/token"),
		MeetingDurationMins: getIntEnv("MEETING_DURATION_MINUTES", 30),

		SMTPHost:           getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:           getEnv("SMTP_PORT", "587"),
		SMTPUsername:       getEnv("SMTP_USERNAME", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:           getEnv("SMTP_FROM", ""),
		NotifyRecipient:    getEnv("NOTIFY_RECIPIENT", ""),
		NotifyEnabled:      getBoolEnv("NOTIFY_ENABLED", false),
		EmailTemplatesPath: getEnv("EMAIL_TEMPLATES_PATH", ""),

		FeatureStoreEnabled: getBoolEnv("FEATURE_STORE_ENABLED", false),
		FeatureOnlinePrefix: getEnv("FEATURE_ONLINE_PREFIX", "features"),
		FeatureCacheTTL:     getDuration("FEATURE_CACHE_TTL", 24*time.Hour),

		StepTimeout:          getDuration("STEP_TIMEOUT", 15*time.Second),
		HTTPClientTimeout:    getDuration("HTTP_CLIENT_TIMEOUT", 10*time.Second),
		PredictionLogEnabled: getBoolEnv("PREDICTION_LOG_ENABLED", false),
	}
}

// MeetingsConfigured reports whether Zoom server-to-server credentials are present.
func (c *Config) MeetingsConfigured() bool {
	return c.ZoomAccountID != "" && c.ZoomClientID != "" && c.ZoomClientSecret != ""
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

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
