package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	// CORS origins for the portal frontend.
	FrontendOrigin []string

	// SMTP credentials. SendGrid wins when both of its values are set,
	// otherwise the Gmail pair is used.
	EmailUser     string
	EmailPass     string
	SendGridUser  string
	SendGridPass  string
	EmailFromName string
	CCEmail       string
	EmailLogPath  string

	AuditLogDir string

	// Hosted identity provider (Supabase-style REST API).
	SupabaseURL         string
	SupabaseAnonKey     string
	SupabaseServiceRole string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	DynamoTableComplaints string
	S3BucketName          string
	SNSAlertTopicARN      string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiryMinutes  int
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("PORT", "5000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		FrontendOrigin: strings.Split(getEnv("FRONTEND_ORIGIN", "*"), ","),

		EmailUser:     getEnv("EMAIL_USER", ""),
		EmailPass:     getEnv("EMAIL_PASS", ""),
		SendGridUser:  getEnv("SENDGRID_USER", ""),
		SendGridPass:  getEnv("SENDGRID_PASS", ""),
		EmailFromName: getEnv("EMAIL_FROM_NAME", "Smart Civic Issue Reporter"),
		CCEmail:       getEnv("CC_EMAIL", ""),
		EmailLogPath:  getEnv("EMAIL_LOG_PATH", "logs/complaints.log"),

		AuditLogDir: getEnv("AUDIT_LOG_DIR", "server-logs"),

		SupabaseURL:         firstEnv("SUPABASE_URL", "VITE_SUPABASE_URL"),
		SupabaseAnonKey:     firstEnv("SUPABASE_ANON_KEY", "VITE_SUPABASE_PUBLISHABLE_KEY"),
		SupabaseServiceRole: getEnv("SUPABASE_SERVICE_ROLE", ""),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		DynamoTableComplaints: getEnv("DYNAMO_TABLE_COMPLAINTS", "complaints"),
		S3BucketName:          getEnv("S3_BUCKET_NAME", "civic-relay-photos"),
		SNSAlertTopicARN:      getEnv("SNS_ALERT_TOPIC_ARN", ""),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiryMinutes:  getEnvInt("JWT_EXPIRY_MINUTES", 30),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// firstEnv returns the first non-empty value among the given keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
