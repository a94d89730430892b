package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string `yaml:"port" env:"SERVER_PORT"`
		Mode            string `yaml:"mode" env:"SERVER_MODE"`
		ShutdownTimeout string `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	Redis struct {
		URL string `yaml:"url" env:"REDIS_URL"`
	} `yaml:"redis"`

	JWT struct {
		Secret                 string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration  string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		RefreshTokenExpiration string `yaml:"refresh_token_expiration" env:"JWT_REFRESH_TOKEN_EXPIRATION"`
		Issuer                 string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Telemetry struct {
		Enabled        bool    `yaml:"enabled" env:"OTEL_ENABLED"`
		ServiceName    string  `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
		ServiceVersion string  `yaml:"service_version" env:"OTEL_SERVICE_VERSION"`
		Environment    string  `yaml:"environment" env:"OTEL_ENVIRONMENT"`
		Endpoint       string  `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
		Insecure       bool    `yaml:"insecure" env:"OTEL_EXPORTER_OTLP_INSECURE"`
		SampleRatio    float64 `yaml:"sample_ratio" env:"OTEL_SAMPLER_RATIO"`
	} `yaml:"telemetry"`

	CORS struct {
		AllowedOrigins string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	} `yaml:"cors"`

	Content struct {
		PostMinTitleLen   int `yaml:"post_min_title_len" env:"CONTENT_POST_MIN_TITLE_LEN"`
		PostMinContentLen int `yaml:"post_min_content_len" env:"CONTENT_POST_MIN_CONTENT_LEN"`
		CommentMinLen     int `yaml:"comment_min_len" env:"CONTENT_COMMENT_MIN_LEN"`
		ReplyMinLen       int `yaml:"reply_min_len" env:"CONTENT_REPLY_MIN_LEN"`
	} `yaml:"content"`

	Profile struct {
		DetailsCooldown  string `yaml:"details_cooldown" env:"PROFILE_DETAILS_COOLDOWN"`
		PasswordCooldown string `yaml:"password_cooldown" env:"PROFILE_PASSWORD_COOLDOWN"`
	} `yaml:"profile"`

	Membership struct {
		GuardDemotion bool `yaml:"guard_demotion" env:"MEMBERSHIP_GUARD_DEMOTION"`
	} `yaml:"membership"`

	Seed struct {
		SuperuserUsername string `yaml:"superuser_username" env:"SEED_SUPERUSER_USERNAME"`
		SuperuserEmail    string `yaml:"superuser_email" env:"SEED_SUPERUSER_EMAIL"`
		SuperuserPassword string `yaml:"superuser_password" env:"SEED_SUPERUSER_PASSWORD"`
	} `yaml:"seed"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.ShutdownTimeout = "10s"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "stream"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"

	config.Redis.URL = "redis://localhost:6379/0"

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.RefreshTokenExpiration = "720h"
	config.JWT.Issuer = "stream-server"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Telemetry.ServiceName = "stream-server"
	config.Telemetry.SampleRatio = 0.1
	config.Telemetry.Environment = "development"

	config.CORS.AllowedOrigins = "http://localhost:3000,http://localhost:5173"

	config.Content.PostMinTitleLen = 10
	config.Content.PostMinContentLen = 20
	config.Content.CommentMinLen = 1
	config.Content.ReplyMinLen = 1

	config.Profile.DetailsCooldown = "168h"
	config.Profile.PasswordCooldown = "336h"

	config.Membership.GuardDemotion = true
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	durations := map[string]string{
		"JWT access token expiration":  config.JWT.AccessTokenExpiration,
		"JWT refresh token expiration": config.JWT.RefreshTokenExpiration,
		"profile details cooldown":     config.Profile.DetailsCooldown,
		"profile password cooldown":    config.Profile.PasswordCooldown,
		"server shutdown timeout":      config.Server.ShutdownTimeout,
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	if config.Content.PostMinTitleLen < 0 || config.Content.PostMinContentLen < 0 ||
		config.Content.CommentMinLen < 0 || config.Content.ReplyMinLen < 0 {
		return fmt.Errorf("content length minimums must not be negative")
	}

	if config.Telemetry.SampleRatio < 0 || config.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry sample ratio must be within [0, 1]")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORS.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
