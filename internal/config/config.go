package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tinyrivals/internal/pagination"
)

// Config holds the configuration settings.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Rivalry  RivalryConfig  `yaml:"rivalry"`
	Listing  ListingConfig  `yaml:"listing"`
	Auth     AuthConfig     `yaml:"auth"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr       string `yaml:"addr"`
	TrustProxy bool   `yaml:"trust_proxy"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// RivalryConfig names the two players compared on the rivalry pages.
type RivalryConfig struct {
	PlayerA string `yaml:"player_a"`
	PlayerB string `yaml:"player_b"`
}

// ListingConfig controls the paginated game listing.
type ListingConfig struct {
	PerPage  int  `yaml:"per_page"`
	ErrorOut bool `yaml:"error_out"`
}

// AuthConfig holds login and session settings.
type AuthConfig struct {
	PasswordHash  string        `yaml:"password_hash"`
	SessionSecret string        `yaml:"session_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SecureCookie  bool          `yaml:"secure_cookie"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LogConfig selects log level and output format (json or text).
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing else is provided.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Rivalry: RivalryConfig{
			PlayerA: "Clayton Cook",
			PlayerB: "Amanda Cook",
		},
		Listing: ListingConfig{PerPage: pagination.DefaultPerPage, ErrorOut: true},
		Auth:    AuthConfig{SessionTTL: 12 * time.Hour},
		Metrics: MetricsConfig{Enabled: true},
		Log:     LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads configuration from a YAML file, falling back to defaults when the
// file is missing, then applies environment overrides. A .env file in the
// working directory is loaded first when present.
func Load(filename string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if err := envBool("TRUST_PROXY", &cfg.Server.TrustProxy); err != nil {
		return err
	}
	if v := os.Getenv("RIVAL_A"); v != "" {
		cfg.Rivalry.PlayerA = v
	}
	if v := os.Getenv("RIVAL_B"); v != "" {
		cfg.Rivalry.PlayerB = v
	}
	if v := os.Getenv("LISTING_PER_PAGE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LISTING_PER_PAGE: %w", err)
		}
		cfg.Listing.PerPage = n
	}
	if err := envBool("LISTING_ERROR_OUT", &cfg.Listing.ErrorOut); err != nil {
		return err
	}
	if v := os.Getenv("ADMIN_PASSWORD_HASH"); v != "" {
		cfg.Auth.PasswordHash = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.Auth.SessionSecret = v
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SESSION_TTL: %w", err)
		}
		cfg.Auth.SessionTTL = d
	}
	if err := envBool("SECURE_COOKIE", &cfg.Auth.SecureCookie); err != nil {
		return err
	}
	if err := envBool("METRICS_ENABLED", &cfg.Metrics.Enabled); err != nil {
		return err
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

// envBool sets *dst from a strconv.ParseBool value when key is set.
func envBool(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

// Validate reports configuration that the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Postgres.DSN == "" {
		errs = append(errs, errors.New("postgres.dsn (DATABASE_URL) is required"))
	}
	if c.Rivalry.PlayerA == "" || c.Rivalry.PlayerB == "" {
		errs = append(errs, errors.New("rivalry.player_a and rivalry.player_b are required"))
	} else if c.Rivalry.PlayerA == c.Rivalry.PlayerB {
		errs = append(errs, errors.New("rivalry players must be two different names"))
	}
	if c.Listing.PerPage <= 0 {
		errs = append(errs, errors.New("listing.per_page must be positive"))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("auth.session_ttl must be positive"))
	}
	return errors.Join(errs...)
}
