package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds configuration shared by the command-line tools and the API server.
type Config struct {
	Env             string
	Port            string
	Sandbox         bool
	AWSProfile      string
	AWSRegion       string
	ObjectStoreType string
	LocalStoreDir   string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	DatabaseURL     string
	NotifyQueueURL  string
	// APIToken guards the HTTP API; empty disables the check outside production.
	APIToken        string
	CORSAllowOrigin []string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env")

	return Config{
		Env:             normalizeEnv(getEnv("ENV", "dev")),
		Port:            getEnv("PORT", "8080"),
		Sandbox:         getEnvBool("MTURK_SANDBOX", false),
		AWSProfile:      getEnv("AWS_PROFILE", ""),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", "results/"),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		NotifyQueueURL:  getEnv("MTURK_NOTIFY_QUEUE_URL", ""),
		APIToken:        strings.TrimSpace(os.Getenv("API_TOKEN")),
		CORSAllowOrigin: splitList(os.Getenv("CORS_ALLOW_ORIGIN")),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return val
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "none", "off":
		return "none"
	default:
		return "local"
	}
}
