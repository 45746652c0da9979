package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// FileName is the optional YAML file read from the working directory.
const FileName = "config.yaml"

// Config holds all configuration for the wine service.
// Values come from config.yaml when present, and environment variables always
// override YAML values. Secrets are read from the environment only.
type Config struct {
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"PORT" env-default:"8000"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`

	// CookieDomain is the domain for session cookies (optional).
	CookieDomain string `yaml:"cookie_domain" env:"COOKIE_DOMAIN" env-default:""`

	// SecretKey guards crawl triggers, user registration and global uploads.
	SecretKey string `yaml:"-" env:"SECRET_KEY"`

	// SessionSecret signs session cookies. Falls back to SecretKey.
	SessionSecret string `yaml:"-" env:"SESSION_SECRET"`

	// MigrationsPath points at the SQL migration files applied on startup.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Crawler  CrawlerConfig  `yaml:"crawler"`
}

// DatabaseConfig holds PostgreSQL database configuration.
// URL, when set, takes precedence over the individual fields.
type DatabaseConfig struct {
	URL            string `yaml:"-" env:"DATABASE_URL"`
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"wines"`
	Password       string `yaml:"-" env:"PGPASSWORD"`
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"wines"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Encoding string `yaml:"encoding" env:"LOG_ENCODING" env-default:"json"`
}

// CrawlerConfig controls the catalog crawler.
type CrawlerConfig struct {
	StartURL  string `yaml:"start_url" env:"CRAWLER_START_URL" env-default:"https://www.saq.com/en/products/wine?product_list_limit=96"`
	UserAgent string `yaml:"user_agent" env:"CRAWLER_USER_AGENT" env-default:"winecollections-crawler/1.0"`

	// FetchTimeout bounds a single page fetch. Zero disables the timeout.
	FetchTimeout time.Duration `yaml:"fetch_timeout" env:"CRAWLER_FETCH_TIMEOUT" env-default:"0s"`

	// RequestsPerSecond throttles page fetches. Zero disables throttling.
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"CRAWLER_REQUESTS_PER_SECOND" env-default:"2"`

	// Schedule is a cron expression with seconds. Empty disables scheduled crawls.
	Schedule string `yaml:"schedule" env:"CRAWLER_SCHEDULE" env-default:""`

	// MarkupPath optionally overrides the built-in retailer selectors.
	MarkupPath string `yaml:"markup_path" env:"CRAWLER_MARKUP_PATH" env-default:""`
}

// Load reads configuration from config.yaml (if present) with environment
// variable overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(FileName); err == nil {
		if err := cleanenv.ReadConfig(FileName, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.SessionSecret == "" {
		cfg.SessionSecret = cfg.SecretKey
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY must be set")
	}
	if c.Crawler.StartURL == "" {
		return errors.New("crawler.start_url must be set")
	}
	if _, err := url.ParseRequestURI(c.Crawler.StartURL); err != nil {
		return fmt.Errorf("crawler.start_url: %w", err)
	}
	if c.Crawler.RequestsPerSecond < 0 {
		return errors.New("crawler.requests_per_second must not be negative")
	}
	if c.Crawler.FetchTimeout < 0 {
		return errors.New("crawler.fetch_timeout must not be negative")
	}
	return nil
}

// ListenAddr returns the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return c.BindAddr + ":" + c.Port
}

// ConnectionString returns a PostgreSQL connection string.
// When running inside Docker, a localhost host is rewritten to host.docker.internal.
func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		resolveHost(c.Host), c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func resolveHost(host string) string {
	if host != "localhost" && host != "127.0.0.1" {
		return host
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return "host.docker.internal"
	}
	return host
}
