package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort  string   `mapstructure:"SERVER_PORT"`
	ServerHost  string   `mapstructure:"SERVER_HOST"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	// Database configuration
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSL_MODE"`

	// Redis configuration
	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     string `mapstructure:"REDIS_PORT"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisURL      string `mapstructure:"REDIS_URL"`

	// Auth
	JWTSecret string        `mapstructure:"JWT_SECRET"`
	TokenTTL  time.Duration `mapstructure:"TOKEN_TTL"`

	// Media storage. S3 is used when S3Bucket is set.
	MediaDir  string `mapstructure:"MEDIA_DIR"`
	MediaURL  string `mapstructure:"MEDIA_URL"`
	S3Bucket  string `mapstructure:"S3_BUCKET_NAME"`
	AWSRegion string `mapstructure:"AWS_REGION"`

	// API behaviour
	PageSize          int `mapstructure:"PAGE_SIZE"`
	RecipeCreateLimit int `mapstructure:"RECIPE_CREATE_LIMIT"`
}

var defaults = map[string]interface{}{
	"SERVER_PORT":         "8080",
	"SERVER_HOST":         "0.0.0.0",
	"CORS_ORIGINS":        "http://localhost:3000",
	"DB_HOST":             "localhost",
	"DB_PORT":             "5432",
	"DB_USER":             "postgres",
	"DB_PASSWORD":         "",
	"DB_NAME":             "foodgram",
	"DB_SSL_MODE":         "disable",
	"REDIS_HOST":          "localhost",
	"REDIS_PORT":          "6379",
	"REDIS_PASSWORD":      "",
	"REDIS_DB":            0,
	"REDIS_URL":           "",
	"JWT_SECRET":          "",
	"TOKEN_TTL":           "168h",
	"MEDIA_DIR":           "media",
	"MEDIA_URL":           "/media",
	"S3_BUCKET_NAME":      "",
	"AWS_REGION":          "",
	"PAGE_SIZE":           6,
	"RECIPE_CREATE_LIMIT": 30,
}

// secretKeys maps Docker secret file names to the config keys they override
var secretKeys = map[string]string{
	"db_user":        "DB_USER",
	"db_password":    "DB_PASSWORD",
	"jwt_secret":     "JWT_SECRET",
	"redis_password": "REDIS_PASSWORD",
	"redis_url":      "REDIS_URL",
}

// LoadConfig builds a Config from defaults, environment variables and,
// outside CI, Docker secrets.
func LoadConfig() (*Config, error) {
	env := GetEnvironment()

	if env == Development {
		// A missing .env file is fine; real environments export variables.
		_ = godotenv.Load()
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if env != CI {
		for name, key := range secretKeys {
			if value := readSecret(name); value != "" {
				v.Set(key, value)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))

	if err := ValidateConfig(env, cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// DSN returns the postgres connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Addr returns the listen address of the HTTP server
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
