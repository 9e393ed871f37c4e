package config

import (
	"errors"
	"os"
)

type Config struct {
	Port          string
	MongoURI      string
	DBName        string
	JWTSecret     string
	S3Bucket      string
	S3Region      string
	S3AccessKeyID string
	S3SecretKey   string
}

// Load reads configuration from the environment. MONGODB_URI and
// JWT_SECRET have no sane defaults and must be set; the S3 variables are
// optional and only gate cover-image uploads.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "5001"),
		MongoURI:      os.Getenv("MONGODB_URI"),
		DBName:        getEnv("MONGODB_DB", "library"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		S3Bucket:      os.Getenv("AWS_S3_BUCKET"),
		S3Region:      getEnv("AWS_REGION", "us-east-1"),
		S3AccessKeyID: os.Getenv("AWS_ACCESS_KEY_ID"),
		S3SecretKey:   os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}
	if cfg.MongoURI == "" {
		return nil, errors.New("MONGODB_URI is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
