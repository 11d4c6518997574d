package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StoreDriverFirestore = "firestore"
	StoreDriverMemory    = "memory"
)

type Config struct {
	ServerPort  string
	Environment string

	FirebaseProject         string
	ServiceAccountJSON      string
	ServiceAccountPath      string
	StorageBucket           string
	StoreDriver             string
	RedisAddr               string
	RedisChannel            string
	RateLimitRPS            float64
	RateLimitBurst          int
	WSMessagesPerSecond     int
	MaxUploadBytes          int64
	IdentityBreakerFailures uint32
	IdentityBreakerTimeout  int64 // seconds
	AllowedOrigins          []string
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		Environment:             getEnv("ENVIRONMENT", "development"),
		FirebaseProject:         getEnv("FIREBASE_PROJECT_ID", ""),
		ServiceAccountJSON:      getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath:      getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		StorageBucket:           getEnv("STORAGE_BUCKET", ""),
		StoreDriver:             strings.ToLower(getEnv("STORE_DRIVER", StoreDriverFirestore)),
		RedisAddr:               getEnv("REDIS_ADDR", ""),
		RedisChannel:            getEnv("REDIS_CHANNEL", "hajzi:rooms"),
		RateLimitRPS:            getEnvAsFloat64("RATE_LIMIT_RPS", 5),
		RateLimitBurst:          int(getEnvAsInt64("RATE_LIMIT_BURST", 20)),
		WSMessagesPerSecond:     int(getEnvAsInt64("WS_MESSAGES_PER_SECOND", 10)),
		MaxUploadBytes:          getEnvAsInt64("MAX_UPLOAD_BYTES", 5*1024*1024), // 5MB
		IdentityBreakerFailures: uint32(getEnvAsInt64("IDENTITY_BREAKER_FAILURES", 5)),
		IdentityBreakerTimeout:  getEnvAsInt64("IDENTITY_BREAKER_TIMEOUT_SECONDS", 30),
		AllowedOrigins:          getEnvAsList("ALLOWED_ORIGINS"),
	}

	return config, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) UsesMemoryStore() bool {
	return c.StoreDriver == StoreDriverMemory
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping empty entries.
func getEnvAsList(key string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		floatValue, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return floatValue
		}
	}
	return defaultValue
}
