// Package config handles configuration for the storefront server:
// defaults, YAML file overlay, STOREFRONT_* environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	LimiterMemory = "memory"
	LimiterRedis  = "redis"

	MailLog  = "log"
	MailSMTP = "smtp"

	// MinAdminSecretLen минимальная длина секрета admin токенов в production
	MinAdminSecretLen = 32
)

// ErrInvalidConfig возвращается Validate
var ErrInvalidConfig = errors.New("invalid config")

// Config holds runtime settings for the storefront server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Mail      MailConfig      `yaml:"mail"`
	Admin     AdminConfig     `yaml:"admin"`
	Jobs      JobsConfig      `yaml:"jobs"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig настройки HTTP сервера
type ServerConfig struct {
	ListenAddr        string        `yaml:"listen_addr"`
	BaseURL           string        `yaml:"base_url"`
	Environment       string        `yaml:"environment"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	TrustProxyHeaders bool          `yaml:"trust_proxy_headers"`
}

// DatabaseConfig настройки хранилища
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// AuthConfig сроки жизни сессий и токенов
type AuthConfig struct {
	SessionLifetime time.Duration `yaml:"session_lifetime"`
	VerificationTTL time.Duration `yaml:"verification_ttl"`
	ResetTTL        time.Duration `yaml:"reset_ttl"`
	BcryptCost      int           `yaml:"bcrypt_cost"`
}

// RateLimitConfig настройки лимитеров
type RateLimitConfig struct {
	Backend        string        `yaml:"backend"`
	RedisAddr      string        `yaml:"redis_addr"`
	RedisPassword  string        `yaml:"redis_password"`
	RedisDB        int           `yaml:"redis_db"`
	LoginMax       int           `yaml:"login_max"`
	LoginWindow    time.Duration `yaml:"login_window"`
	RegisterMax    int           `yaml:"register_max"`
	RegisterWindow time.Duration `yaml:"register_window"`
	ResetMax       int           `yaml:"reset_max"`
	ResetWindow    time.Duration `yaml:"reset_window"`
}

// MailConfig настройки отправки писем
type MailConfig struct {
	Backend      string        `yaml:"backend"`
	SMTPHost     string        `yaml:"smtp_host"`
	SMTPUsername string        `yaml:"smtp_username"`
	SMTPPassword string        `yaml:"smtp_password"`
	From         string        `yaml:"from"`
	SMTPTimeout  time.Duration `yaml:"smtp_timeout"`
	SMTPPort     int           `yaml:"smtp_port"`
}

// AdminConfig настройки admin токенов
type AdminConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// JobsConfig настройки фоновых задач
type JobsConfig struct {
	SweepSchedule string `yaml:"sweep_schedule"`
	SweepDisabled bool   `yaml:"sweep_disabled"`
}

// LogConfig настройки логирования
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: the admin secret is empty, production must set it.
func (c *Config) LoadDefaults() {
	c.Server = ServerConfig{
		ListenAddr:      ":8080",
		BaseURL:         "http://localhost:3000",
		Environment:     EnvDevelopment,
		ShutdownTimeout: 10 * time.Second,
	}
	c.Database = DatabaseConfig{
		Driver: DriverSQLite,
		DSN:    "storefront.db",
	}
	c.Auth = AuthConfig{
		SessionLifetime: 7 * 24 * time.Hour,
		VerificationTTL: 24 * time.Hour,
		ResetTTL:        time.Hour,
		BcryptCost:      10,
	}
	c.RateLimit = RateLimitConfig{
		Backend:        LimiterMemory,
		RedisAddr:      "localhost:6379",
		LoginMax:       5,
		LoginWindow:    time.Minute,
		RegisterMax:    10,
		RegisterWindow: time.Hour,
		ResetMax:       5,
		ResetWindow:    time.Hour,
	}
	c.Mail = MailConfig{
		Backend:     MailLog,
		SMTPPort:    587,
		SMTPTimeout: 10 * time.Second,
		From:        "Storefront <no-reply@localhost>",
	}
	c.Jobs = JobsConfig{
		SweepSchedule: "*/30 * * * *",
	}
	c.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Load builds a Config by applying defaults, then the YAML file at path
// (if not empty), then environment variables and finally changed flags.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(lookupEnv); err != nil {
		return nil, err
	}

	if fs != nil {
		if err := cfg.applyFlags(fs); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction сообщает, запущен ли сервер в production окружении
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// Validate проверяет конфигурацию при старте
func (c *Config) Validate() error {
	var errs []error

	switch c.Server.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("unknown environment %q", c.Server.Environment))
	}

	if c.Server.ListenAddr == "" {
		errs = append(errs, errors.New("listen address is required"))
	}

	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database dsn is required"))
	}

	switch c.RateLimit.Backend {
	case LimiterMemory:
	case LimiterRedis:
		if c.RateLimit.RedisAddr == "" {
			errs = append(errs, errors.New("redis address is required for redis limiter"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown rate limit backend %q", c.RateLimit.Backend))
	}

	switch c.Mail.Backend {
	case MailLog:
	case MailSMTP:
		if c.Mail.SMTPHost == "" {
			errs = append(errs, errors.New("smtp host is required for smtp mailer"))
		}
		if c.Mail.SMTPTimeout <= 0 {
			errs = append(errs, errors.New("smtp timeout must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown mail backend %q", c.Mail.Backend))
	}

	if c.Auth.SessionLifetime <= 0 || c.Auth.VerificationTTL <= 0 || c.Auth.ResetTTL <= 0 {
		errs = append(errs, errors.New("session lifetime and token ttls must be positive"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("bcrypt cost %d out of range", c.Auth.BcryptCost))
	}

	if c.RateLimit.LoginMax <= 0 || c.RateLimit.LoginWindow <= 0 {
		errs = append(errs, errors.New("login rate limit must be positive"))
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}

	if c.IsProduction() {
		if len(c.Admin.JWTSecret) < MinAdminSecretLen {
			errs = append(errs, fmt.Errorf("admin jwt secret must be at least %d bytes in production", MinAdminSecretLen))
		}
		if c.Server.BaseURL == "" {
			errs = append(errs, errors.New("base url is required in production"))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
