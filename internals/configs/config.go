package configs

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	AppEnv        string
	NotifyTimeout time.Duration
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("APP_ENV") == "production" {
		log.Println("🚀 Running in production, using system ENV")
	} else {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ No .env file found, using system ENV")
		} else {
			log.Println("✅ .env file loaded!")
		}
	}

	AppEnv = GetEnvDefault("APP_ENV", "development")
	NotifyTimeout = getEnvDuration("NOTIFY_TIMEOUT_SECONDS", 3*time.Second)

	if os.Getenv("DB_HOST") == "" {
		log.Println("❌ DB_HOST is not set!")
	}
}

func GetEnv(key string) string {
	return os.Getenv(key)
}

func GetEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		log.Printf("⚠️ %s=%q is not a positive integer, using default %s", key, v, def)
		return def
	}
	return time.Duration(secs) * time.Second
}
