package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// WhatsApp Cloud API (Meta)
	WhatsAppVerifyToken  string
	WhatsAppAccessToken  string
	WhatsAppPhoneID      string
	WhatsAppGraphBaseURL string

	// Operator notifications
	AdminPhone    string
	OperatorEmail string

	// Supabase subscriber store
	SupabaseURL        string
	SupabaseServiceKey string

	// GitHub Actions report trigger
	GitHubToken    string
	GitHubRepo     string
	GitHubWorkflow string

	// Subscriber self-service settings page
	SettingsURL string

	// Conversation engine
	SessionTTL       time.Duration
	DedupTTL         time.Duration
	MaxHistory       int
	ExtractorTimeout time.Duration
	DispatchTimeout  time.Duration

	// AWS / Bedrock (intent extraction)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	BedrockModelID      string
	BedrockMaxTokens    int

	// Redis (optional dedup backend)
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Admin endpoints
	AdminJWTSecret string

	// SendGrid Email Configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		WhatsAppVerifyToken:  getEnv("WHATSAPP_VERIFY_TOKEN", "mysportsreport_verify_2026"),
		WhatsAppAccessToken:  getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppPhoneID:      getEnv("WHATSAPP_PHONE_ID", ""),
		WhatsAppGraphBaseURL: getEnv("WHATSAPP_GRAPH_BASE_URL", "https://graph.facebook.com/v21.0"),

		AdminPhone:    getEnv("ADMIN_PHONE", ""),
		OperatorEmail: getEnv("OPERATOR_EMAIL", ""),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),

		GitHubToken:    getEnv("GITHUB_TOKEN", ""),
		GitHubRepo:     getEnv("GITHUB_REPO", "mydailysportsreport-tech/sports-reports"),
		GitHubWorkflow: getEnv("GITHUB_WORKFLOW", "daily-reports.yml"),

		SettingsURL: getEnv("SETTINGS_URL", "https://mydailysportsreport.com/signup.html"),

		SessionTTL:       getEnvAsDuration("SESSION_TTL", 30*time.Minute),
		DedupTTL:         getEnvAsDuration("DEDUP_TTL", 2*time.Minute),
		MaxHistory:       getEnvAsInt("MAX_HISTORY", 20),
		ExtractorTimeout: getEnvAsDuration("EXTRACTOR_TIMEOUT", 30*time.Second),
		DispatchTimeout:  getEnvAsDuration("DISPATCH_TIMEOUT", 15*time.Second),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", "anthropic.claude-sonnet-4-20250514-v1:0"),
		BedrockMaxTokens:    getEnvAsInt("BEDROCK_MAX_TOKENS", 1024),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "My Daily Sports Report"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
