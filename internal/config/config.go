package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Mail     MailConfig
	Realtime RealtimeConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	SessionSecret   string
	SiteURL         string
	AllowedOrigins  []string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver       string // "postgres" or "sqlite"
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	AdminEmail   string
}

// StorageConfig selects where uploaded recordings and gallery images live
type StorageConfig struct {
	Driver        string // "gridfs" or "disk"
	MongoURI      string
	MongoDatabase string
	Dir           string
}

// MailConfig holds SMTP settings used for password reset codes
type MailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Enabled reports whether every SMTP setting is present.
func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.Port != "" && m.Username != "" && m.Password != "" && m.From != ""
}

// RealtimeConfig holds websocket token settings
type RealtimeConfig struct {
	Secret   string
	TokenTTL time.Duration
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
	Env   string
}

const defaultSecret = "veryus_dev_secret_change_me"

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	// A missing .env is fine, the process environment wins anyway.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			SessionSecret:   getEnv("SESSION_SECRET", defaultSecret),
			SiteURL:         getEnv("SITE_URL", "http://localhost:8080"),
			AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "*")),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "postgres"),
			URL:          getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=veryus port=5432 sslmode=disable TimeZone=Asia/Seoul"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
			AdminEmail:   getEnv("ADMIN_EMAIL", ""),
		},
		Storage: StorageConfig{
			Driver:        getEnv("STORAGE_DRIVER", "disk"),
			MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDatabase: getEnv("MONGO_DATABASE", "veryus"),
			Dir:           getEnv("STORAGE_DIR", "./data/uploads"),
		},
		Mail: MailConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", ""),
			Username: getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASS", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
		Realtime: RealtimeConfig{
			Secret:   getEnv("REALTIME_SECRET", defaultSecret),
			TokenTTL: getDurationEnv("REALTIME_TOKEN_TTL", 5*time.Minute),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			Env:   getEnv("ENV", "production"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Development reports whether the service runs with developer defaults.
func (c *Config) Development() bool {
	return c.Log.Env == "development"
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch c.Storage.Driver {
	case "gridfs":
		if c.Storage.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORAGE_DRIVER is gridfs")
		}
	case "disk":
		if c.Storage.Dir == "" {
			return fmt.Errorf("STORAGE_DIR is required when STORAGE_DRIVER is disk")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be gridfs or disk, got %q", c.Storage.Driver)
	}
	if !c.Development() {
		if c.Server.SessionSecret == defaultSecret {
			return fmt.Errorf("SESSION_SECRET must be set outside development")
		}
		if c.Realtime.Secret == defaultSecret {
			return fmt.Errorf("REALTIME_SECRET must be set outside development")
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
