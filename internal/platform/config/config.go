// Package config loads process configuration from the environment. A .env file
// in the working directory is honoured for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const Production = "production"

type Config struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	Server    Server
	Auth      Auth
	Postgres  PostgresConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	SMTP      SMTPConfig
	SMS       SMSConfig
	Fanout    FanoutConfig
	RateLimit RateLimitConfig
	Bootstrap BootstrapAdmin
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"SANKALP_ADDR" envDefault:":8080"`
	PublicBaseURL   string        `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

type Auth struct {
	JWTSigningKey string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	Issuer        string        `env:"JWT_ISSUER" envDefault:"sankalp"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"12h"`
}

// PostgresConfig selects persistent stores. An empty URL runs on in-memory stores.
type PostgresConfig struct {
	URL          string `env:"DATABASE_URL"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
}

// RedisConfig backs the token revocation list. An empty URL keeps it in memory.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig enables streaming audit events. No brokers disables it.
type KafkaConfig struct {
	Brokers    []string `env:"AUDIT_KAFKA_BROKERS" envSeparator:","`
	AuditTopic string   `env:"AUDIT_KAFKA_TOPIC" envDefault:"sankalp.audit"`
}

// SMTPConfig configures outbound email. No host logs emails instead of sending.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM" envDefault:"no-reply@sankalp.local"`
}

// SMSConfig configures the Twilio gateway and the non-production recipient
// override. Without credentials SMS bodies are logged.
type SMSConfig struct {
	TwilioAccountSID string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	TwilioFrom       string `env:"TWILIO_FROM_NUMBER"`
	TwilioBaseURL    string `env:"TWILIO_BASE_URL" envDefault:"https://api.twilio.com"`
	TestRecipient    string `env:"SMS_TEST_RECIPIENT"`
}

type FanoutConfig struct {
	Workers     int           `env:"FANOUT_WORKERS" envDefault:"4"`
	QueueSize   int           `env:"FANOUT_QUEUE_SIZE" envDefault:"256"`
	SendTimeout time.Duration `env:"FANOUT_SEND_TIMEOUT" envDefault:"10s"`
}

// RateLimitConfig budgets the anonymous endpoints per client IP. Zero
// requests disables a class. Counters live in Redis when REDIS_URL is set.
type RateLimitConfig struct {
	AuthRequests int           `env:"RATE_LIMIT_AUTH_REQUESTS" envDefault:"10"`
	AuthWindow   time.Duration `env:"RATE_LIMIT_AUTH_WINDOW" envDefault:"1m"`
	LinkRequests int           `env:"RATE_LIMIT_LINK_REQUESTS" envDefault:"30"`
	LinkWindow   time.Duration `env:"RATE_LIMIT_LINK_WINDOW" envDefault:"1m"`
}

// BootstrapAdmin seeds the first administrator when no admin exists.
type BootstrapAdmin struct {
	Username string `env:"BOOTSTRAP_ADMIN_USERNAME"`
	Email    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	Password string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

// Load reads .env files (when present) and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	existing := make([]string, 0, len(envFiles))
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return nil, fmt.Errorf("load env files: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// Validate rejects configurations that would start a broken or unsafe service.
func (c *Config) Validate() error {
	var errs []error
	if c.IsProduction() {
		if c.Auth.JWTSigningKey == "" || strings.HasPrefix(c.Auth.JWTSigningKey, "dev-") {
			errs = append(errs, errors.New("JWT_SIGNING_KEY must be set in production"))
		}
		if c.SMS.TestRecipient != "" {
			errs = append(errs, errors.New("SMS_TEST_RECIPIENT must not be set in production"))
		}
	}
	if !c.IsProduction() && c.SMS.TwilioAccountSID != "" && c.SMS.TestRecipient == "" {
		errs = append(errs, errors.New("SMS_TEST_RECIPIENT must be set when Twilio is configured outside production"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.Fanout.Workers <= 0 {
		errs = append(errs, errors.New("FANOUT_WORKERS must be positive"))
	}
	if c.Fanout.QueueSize <= 0 {
		errs = append(errs, errors.New("FANOUT_QUEUE_SIZE must be positive"))
	}
	if c.RateLimit.AuthRequests > 0 && c.RateLimit.AuthWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_AUTH_WINDOW must be positive"))
	}
	if c.RateLimit.LinkRequests > 0 && c.RateLimit.LinkWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_LINK_WINDOW must be positive"))
	}
	b := c.Bootstrap
	if (b.Username != "" || b.Password != "") && (b.Username == "" || b.Password == "" || b.Email == "") {
		errs = append(errs, errors.New("BOOTSTRAP_ADMIN_USERNAME, _EMAIL and _PASSWORD must be set together"))
	}
	return errors.Join(errs...)
}
