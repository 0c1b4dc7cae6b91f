package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the process reads from the environment.
type Config struct {
	Port         string
	StoreBackend string // firebase | postgres | memory

	FirebaseDatabaseURL string
	ServiceAccountFile  string
	FirebaseAPIKey      string

	DatabaseURL string
	RedisAddr   string

	S3Bucket    string
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string

	IngestMaxPerMinute int
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ No .env file found, using environment variables")
	}

	return &Config{
		Port:         getEnv("PORT", "8080"),
		StoreBackend: getEnv("STORE_BACKEND", "firebase"),

		FirebaseDatabaseURL: getEnv("FIREBASE_DATABASE_URL", ""),
		ServiceAccountFile:  getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", "serviceAccountKey.json"),
		FirebaseAPIKey:      getEnv("FIREBASE_API_KEY", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisAddr:   getEnv("REDIS_ADDR", ""),

		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3Region:    getEnv("S3_REGION", "auto"),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),

		IngestMaxPerMinute: getEnvInt("INGEST_MAX_PER_MINUTE", 120),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
