package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	MinIO     MinIOConfig
	Registry  RegistryConfig
	Audit     AuditConfig
	RateLimit RateLimitConfig
	Admin     AdminConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// RegistryConfig controls collection names and list defaults for the
// citizen registry.
type RegistryConfig struct {
	UsersCollection     string
	CardsCollection     string
	ResidenceCollection string
	MembersCollection   string
	PageSize            int
	MaxSearchResults    int
}

type AuditConfig struct {
	Collection    string
	RetentionDays int
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// AdminConfig identifies the admin used for audit attribution when the
// request carries no X-Admin-Email header. Authentication itself is
// stubbed to always succeed.
type AdminConfig struct {
	DefaultEmail string
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5002")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "citizen_registry")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("USERS_COLLECTION", "users")
	viper.SetDefault("CITIZEN_CARDS_COLLECTION", "citizen_cards")
	viper.SetDefault("RESIDENCE_COLLECTION", "residence")
	viper.SetDefault("HOUSEHOLD_MEMBERS_COLLECTION", "household_members")
	viper.SetDefault("PAGE_SIZE", 20)
	viper.SetDefault("MAX_SEARCH_RESULTS", 100)
	viper.SetDefault("AUDIT_COLLECTION_NAME", "audit_logs")
	viper.SetDefault("AUDIT_RETENTION_DAYS", 365)
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	viper.SetDefault("ADMIN_DEFAULT_EMAIL", "admin@system.local")
	viper.SetDefault("MINIO_BUCKET", "citizen-assets")

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		MinIO: MinIOConfig{
			Endpoint:  viper.GetString("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    viper.GetBool("MINIO_USE_SSL"),
			Bucket:    viper.GetString("MINIO_BUCKET"),
		},
		Registry: RegistryConfig{
			UsersCollection:     viper.GetString("USERS_COLLECTION"),
			CardsCollection:     viper.GetString("CITIZEN_CARDS_COLLECTION"),
			ResidenceCollection: viper.GetString("RESIDENCE_COLLECTION"),
			MembersCollection:   viper.GetString("HOUSEHOLD_MEMBERS_COLLECTION"),
			PageSize:            viper.GetInt("PAGE_SIZE"),
			MaxSearchResults:    viper.GetInt("MAX_SEARCH_RESULTS"),
		},
		Audit: AuditConfig{
			Collection:    viper.GetString("AUDIT_COLLECTION_NAME"),
			RetentionDays: viper.GetInt("AUDIT_RETENTION_DAYS"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Admin: AdminConfig{
			DefaultEmail: viper.GetString("ADMIN_DEFAULT_EMAIL"),
		},
	}

	// Basic validation
	if cfg.MongoDB.URI == "" {
		log.Println("WARNING: MONGODB_URI is not set; registry endpoints will be unavailable")
	}
	if cfg.Registry.PageSize <= 0 {
		cfg.Registry.PageSize = 20
	}
	if cfg.Registry.MaxSearchResults <= 0 {
		cfg.Registry.MaxSearchResults = 100
	}
	if cfg.Audit.RetentionDays <= 0 {
		cfg.Audit.RetentionDays = 365
	}

	return cfg, nil
}
