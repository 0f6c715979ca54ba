package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string
	JWTSecret  string
	ServerPort string

	// RedisURL enables the fact/quiz cache when set.
	RedisURL string
	CacheTTL time.Duration

	// ProgressWriteTimeout bounds every best-effort progress write made
	// on the navigation path.
	ProgressWriteTimeout time.Duration

	LogFormat string
	LogColors bool
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	return &Config{
		DBDriver:             getEnv("DB_DRIVER", "postgres"),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "5432"),
		DBUser:               getEnv("DB_USER", "postgres"),
		DBPassword:           getEnv("DB_PASSWORD", "postgres"),
		DBName:               getEnv("DB_NAME", "learning_platform"),
		DBPath:               getEnv("DB_PATH", "learnflow.db"),
		JWTSecret:            getEnv("JWT_SECRET", "secret"),
		ServerPort:           getEnv("SERVER_PORT", "8080"),
		RedisURL:             getEnv("REDIS_URL", ""),
		CacheTTL:             getEnvDuration("CACHE_TTL", 5*time.Minute),
		ProgressWriteTimeout: getEnvDuration("PROGRESS_WRITE_TIMEOUT", 3*time.Second),
		LogFormat:            getEnv("LOG_FORMAT", "console"),
		LogColors:            getEnvBool("LOG_COLORS", true),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("Invalid duration for %s (%q), using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Invalid bool for %s (%q), using %t", key, value, defaultValue)
		return defaultValue
	}
	return b
}
