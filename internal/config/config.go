package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	StoreDriver  string // "dynamo" | "postgres" | "sqlite"
	DatabaseURL  string
	DynamoTables DynamoTables

	PushProvider              string // "fcm" | "sns" | "log"
	FirebaseCredentialsPath   string
	SNSRegion                 string
	SNSPlatformApplicationARN string
	PushTimeout               time.Duration
	DispatchConcurrency       int

	ReportBucket string // empty disables dispatch report archiving

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Endpoints     string
	Templates     string
	Notifications string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", "dynamo")),
		DatabaseURL:    getEnv("DATABASE_URL", "notifications.db"),
		DynamoTables: DynamoTables{
			Endpoints:     getEnv("DYNAMO_TABLE_ENDPOINTS", "push_endpoints"),
			Templates:     getEnv("DYNAMO_TABLE_TEMPLATES", "notification_templates"),
			Notifications: getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
		},
		PushProvider:              strings.ToLower(getEnv("PUSH_PROVIDER", "log")),
		FirebaseCredentialsPath:   getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		SNSRegion:                 getEnv("SNS_REGION", "us-east-1"),
		SNSPlatformApplicationARN: getEnv("SNS_PLATFORM_APPLICATION_ARN", ""),
		PushTimeout:               getEnvDuration("PUSH_TIMEOUT", 10*time.Second),
		DispatchConcurrency:       getEnvInt("DISPATCH_CONCURRENCY", 8),
		ReportBucket:              getEnv("REPORT_BUCKET", ""),
		JWTPrivateKeyPath:         getEnv("JWT_PRIVATE_KEY_PATH", ""),
		JWTPublicKeyPath:          getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:                 getEnvDuration("JWT_EXPIRY", 7*24*time.Hour),
		AllowedOrigins:            strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("15s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
