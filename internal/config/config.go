package config

import "os"

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port           string
	MongoURI       string
	MongoDB        string
	PostgresDSN    string
	RedisAddr      string
	RedisPassword  string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

func Load() *Config {
	return &Config{
		Port:           getenv("PORT", "5000"),
		MongoURI:       getenv("MONGO_URI", ""),
		MongoDB:        getenv("MONGO_DB", "volunteer_hub"),
		PostgresDSN:    getenv("POSTGRES_DSN", ""),
		RedisAddr:      getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword:  getenv("REDIS_PASSWORD", ""),
		MinioEndpoint:  getenv("MINIO_ENDPOINT", "minio:9000"),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "volunteer-media"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
