// Package config loads and validates configuration at startup.
// Sources, lowest precedence first: built-in defaults, the YAML file, a .env
// file, then process environment variables.
// Fail-fast: if a required value is missing, Load returns an error and the
// process exits.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"jobmate/brain-service/internal/logger"
)

// DefaultPath is used when no --config flag is given.
const DefaultPath = "configs/config.yaml"

// Config holds all runtime configuration for the brain service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Redis    RedisConfig    `yaml:"redis"`
	Session  SessionConfig  `yaml:"session"`
	Storage  StorageConfig  `yaml:"storage"`
	Events   EventsConfig   `yaml:"events"`
	Telegram TelegramConfig `yaml:"telegram"`
	Upload   UploadConfig   `yaml:"upload"`
	Logger   logger.Config  `yaml:"logger"`
}

type ServerConfig struct {
	HTTPPort     string        `yaml:"http_port"`
	GRPCPort     string        `yaml:"grpc_port"` // empty disables the gRPC listener
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins"`
}

// StoreConfig selects the record store: "postgres" or "memory".
type StoreConfig struct {
	Backend         string        `yaml:"backend"`
	DatabaseURL     string        `yaml:"database_url"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

// SessionConfig selects where chat sessions live: "redis" or "memory".
type SessionConfig struct {
	Backend       string        `yaml:"backend"`
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// StorageConfig selects where uploaded files are written: "local", "minio" or "s3".
type StorageConfig struct {
	Backend   string      `yaml:"backend"`
	UploadDir string      `yaml:"upload_dir"`
	MinIO     MinIOConfig `yaml:"minio"`
	S3        S3Config    `yaml:"s3"`
}

type MinIOConfig struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UseSSL          bool   `yaml:"use_ssl"`
	Bucket          string `yaml:"bucket"`
	Location        string `yaml:"location"`
}

type S3Config struct {
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// EventsConfig selects the application event sink: "redis", "amqp" or "none".
type EventsConfig struct {
	Backend  string `yaml:"backend"`
	AMQPURL  string `yaml:"amqp_url"`
	Exchange string `yaml:"exchange"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  int64  `yaml:"chat_id"`
}

type UploadConfig struct {
	Keywords []string `yaml:"keywords"`
	MaxBytes int64    `yaml:"max_bytes"`
}

// Default returns a Config with every optional value filled in.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:     "8084",
			GRPCPort:     "9094",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			CORSOrigins:  []string{"*"},
		},
		Store: StoreConfig{
			Backend:         "postgres",
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
		},
		Session: SessionConfig{
			Backend:       "redis",
			TTL:           24 * time.Hour,
			SweepInterval: 10 * time.Minute,
		},
		Storage: StorageConfig{
			Backend:   "local",
			UploadDir: "data/uploads",
		},
		Events: EventsConfig{
			Backend:  "redis",
			Exchange: "brain.events",
		},
		Upload: UploadConfig{
			Keywords: []string{"experience", "education", "skills"},
			MaxBytes: 20 << 20,
		},
		Logger: logger.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML file at path (a missing file is not an error), applies
// .env and environment overrides, and returns a validated Config.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	// godotenv never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Store.DatabaseURL, "DATABASE_URL")
	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.Server.HTTPPort, "BRAIN_HTTP_PORT")
	setString(&c.Server.GRPCPort, "BRAIN_GRPC_PORT")
	setString(&c.Events.AMQPURL, "AMQP_URL")
	setString(&c.Storage.UploadDir, "UPLOAD_DIR")
	setString(&c.Logger.Level, "LOG_LEVEL")

	setString(&c.Storage.MinIO.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Storage.MinIO.AccessKeyID, "MINIO_ACCESS_KEY")
	setString(&c.Storage.MinIO.SecretAccessKey, "MINIO_SECRET_KEY")
	setString(&c.Storage.MinIO.Bucket, "MINIO_BUCKET")

	setString(&c.Storage.S3.Region, "AWS_REGION")
	setString(&c.Storage.S3.Bucket, "AWS_S3_BUCKET")
	setString(&c.Storage.S3.AccessKeyID, "AWS_ACCESS_KEY_ID")
	setString(&c.Storage.S3.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")

	if tok := os.Getenv("TELEGRAM_BOT_TOKEN"); tok != "" {
		c.Telegram.Token = tok
		c.Telegram.Enabled = true
	}
	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID must be an integer, got %q", raw)
		}
		c.Telegram.ChatID = id
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks that every backend has what it needs to start.
func (c *Config) Validate() error {
	if c.Server.HTTPPort == "" {
		return fmt.Errorf("BRAIN_HTTP_PORT is required")
	}

	switch c.Store.Backend {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case "memory":
	default:
		return fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend)
	}

	needRedis := false
	switch c.Session.Backend {
	case "redis":
		needRedis = true
	case "memory":
		if c.Session.SweepInterval <= 0 {
			return fmt.Errorf("session.sweep_interval must be positive")
		}
	default:
		return fmt.Errorf("session.backend: unknown backend %q", c.Session.Backend)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}

	switch c.Events.Backend {
	case "redis":
		needRedis = true
	case "amqp":
		if c.Events.AMQPURL == "" {
			return fmt.Errorf("AMQP_URL is required")
		}
	case "none":
	default:
		return fmt.Errorf("events.backend: unknown backend %q", c.Events.Backend)
	}

	if needRedis && c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	switch c.Storage.Backend {
	case "local":
		if c.Storage.UploadDir == "" {
			return fmt.Errorf("storage.upload_dir is required")
		}
	case "minio":
		m := c.Storage.MinIO
		if m.Endpoint == "" || m.Bucket == "" {
			return fmt.Errorf("MINIO_ENDPOINT and MINIO_BUCKET are required")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" || c.Storage.S3.Region == "" {
			return fmt.Errorf("AWS_REGION and AWS_S3_BUCKET are required")
		}
	default:
		return fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend)
	}

	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required when telegram is enabled")
	}

	for i, kw := range c.Upload.Keywords {
		c.Upload.Keywords[i] = strings.ToLower(strings.TrimSpace(kw))
	}
	return nil
}
