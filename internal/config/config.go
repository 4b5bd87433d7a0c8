package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field maps 1:1 to an env var of the same name.
type Config struct {
	// Server
	Port           int    `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"` // development | production
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	WorkerPoolSize int    `mapstructure:"WORKER_POOL_SIZE"`

	// Ledger state: memory | file | redis | sqlite | postgres
	StateBackend string `mapstructure:"STATE_BACKEND"`
	StateDir     string `mapstructure:"STATE_DIR"`
	SQLitePath   string `mapstructure:"SQLITE_PATH"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`

	// Redis (state backend and backup queue); empty disables both
	RedisURL string `mapstructure:"REDIS_URL"`

	// Backup bucket (Cloudflare R2 or any S3-compatible store)
	R2AccountID       string `mapstructure:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `mapstructure:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `mapstructure:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string `mapstructure:"R2_BUCKET_NAME"`
	R2PublicURL       string `mapstructure:"R2_PUBLIC_URL"`
	R2Endpoint        string `mapstructure:"R2_ENDPOINT"`
	BackupPrefix      string `mapstructure:"BACKUP_PREFIX"`

	// Auth
	AuthEnabled        bool   `mapstructure:"AUTH_ENABLED"`
	AuthUsers          string `mapstructure:"AUTH_USERS"`
	JWTSecret          string `mapstructure:"JWT_SECRET"`
	JWTExpirationHours int    `mapstructure:"JWT_EXPIRATION_HOURS"`

	// Terminal client
	APIBaseURL     string        `mapstructure:"API_BASE_URL"`
	HTTPTimeout    time.Duration `mapstructure:"HTTP_TIMEOUT"`
	ClientStateDir string        `mapstructure:"CLIENT_STATE_DIR"`
}

// BucketConfigured reports whether backups go to a real bucket.
func (c *Config) BucketConfigured() bool {
	return c.R2BucketName != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		(c.R2AccountID != "" || c.R2Endpoint != "")
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	if c.AuthEnabled && len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters when AUTH_ENABLED is set")
	}
	if c.StateBackend == "redis" && c.RedisURL == "" {
		return errors.New("STATE_BACKEND=redis requires REDIS_URL")
	}
	if c.StateBackend == "postgres" && c.DatabaseURL == "" {
		return errors.New("STATE_BACKEND=postgres requires DATABASE_URL")
	}
	return nil
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Sensible defaults for development
	v.SetDefault("PORT", 3000)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("WORKER_POOL_SIZE", 2)
	v.SetDefault("STATE_BACKEND", "memory")
	v.SetDefault("STATE_DIR", "./data")
	v.SetDefault("SQLITE_PATH", "./data/estoque.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("R2_ACCOUNT_ID", "")
	v.SetDefault("R2_ACCESS_KEY_ID", "")
	v.SetDefault("R2_SECRET_ACCESS_KEY", "")
	v.SetDefault("R2_BUCKET_NAME", "")
	v.SetDefault("R2_PUBLIC_URL", "")
	v.SetDefault("R2_ENDPOINT", "")
	v.SetDefault("BACKUP_PREFIX", "estoque/")
	v.SetDefault("AUTH_ENABLED", false)
	v.SetDefault("AUTH_USERS", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRATION_HOURS", 8)
	v.SetDefault("API_BASE_URL", "http://localhost:3000")
	v.SetDefault("HTTP_TIMEOUT", 10*time.Second)
	v.SetDefault("CLIENT_STATE_DIR", "./.estoque")

	// Optional .env file for local development, does not fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
