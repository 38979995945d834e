// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Env      string `env:"APP_ENV"   env-default:"dev"`
	Port     string `env:"PORT"      env-default:"8080"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	DB      DBConfig
	Auth    AuthConfig
	Event   EventConfig
	Redis   RedisConfig
	AMQP    AMQPConfig
	Storage StorageConfig
	Admin   AdminConfig
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `env:"DB_HOST"     env-default:"localhost"`
	Port     string `env:"DB_PORT"     env-default:"5432"`
	User     string `env:"DB_USER"     env-default:"postgres"`
	Password string `env:"DB_PASSWORD" env-default:"postgres"`
	DBName   string `env:"DB_NAME"     env-default:"reunion"`
	SSLMode  string `env:"DB_SSLMODE"  env-default:"disable"`

	MaxConns        int32         `env:"DB_MAX_CONNS"         env-default:"20"`
	MinConns        int32         `env:"DB_MIN_CONNS"         env-default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" env-default:"30m"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE"     env-default:"5m"`
	ConnectAttempts int           `env:"DB_CONNECT_ATTEMPTS"  env-default:"5"`
	Migrate         bool          `env:"DB_MIGRATE"           env-default:"true"`
}

// DSN builds a libpq-compatible connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET"   env-required:"true"`
	TokenTTL   time.Duration `env:"TOKEN_TTL"    env-default:"24h"`
	BcryptCost int           `env:"BCRYPT_COST"  env-default:"12"`
}

type EventConfig struct {
	TicketPrice string `env:"EVENT_TICKET_PRICE" env-default:"1500"`
}

// Price parses TicketPrice; the value is checked once at startup.
func (c EventConfig) Price() (decimal.Decimal, error) {
	p, err := decimal.NewFromString(c.TicketPrice)
	if err != nil {
		return decimal.Zero, fmt.Errorf("EVENT_TICKET_PRICE: %w", err)
	}
	if p.IsNegative() {
		return decimal.Zero, fmt.Errorf("EVENT_TICKET_PRICE must not be negative")
	}
	return p, nil
}

// RedisConfig enables the directory cache when Addr is set.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB"        env-default:"0"`
	TTL      time.Duration `env:"DIRECTORY_CACHE_TTL" env-default:"60s"`
}

// AMQPConfig enables registration events when URL is set.
type AMQPConfig struct {
	URL      string `env:"RABBITMQ_URL"`
	Queue    string `env:"RABBITMQ_QUEUE"    env-default:"registration.changed"`
	Consumer bool   `env:"RABBITMQ_CONSUMER" env-default:"false"`
}

// StorageConfig points at an S3-compatible bucket (Cloudflare R2 in production).
type StorageConfig struct {
	Endpoint        string        `env:"STORAGE_ENDPOINT"`
	Region          string        `env:"STORAGE_REGION"            env-default:"auto"`
	AccessKeyID     string        `env:"STORAGE_ACCESS_KEY_ID"`
	SecretAccessKey string        `env:"STORAGE_SECRET_ACCESS_KEY"`
	Bucket          string        `env:"STORAGE_BUCKET"`
	PublicURL       string        `env:"STORAGE_PUBLIC_URL"`
	MaxUploadBytes  int64         `env:"STORAGE_MAX_UPLOAD_BYTES"  env-default:"5242880"`
	PresignTTL      time.Duration `env:"STORAGE_PRESIGN_TTL"       env-default:"5m"`
}

// Enabled reports whether enough settings are present to talk to the bucket.
func (c StorageConfig) Enabled() bool {
	return c.Bucket != "" && c.PublicURL != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

type AdminConfig struct {
	RequestTimeout time.Duration `env:"ADMIN_REQUEST_TIMEOUT" env-default:"10s"`
}

// Load reads the environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if _, err := cfg.Event.Price(); err != nil {
		return nil, err
	}
	return cfg, nil
}
