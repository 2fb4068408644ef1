package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvPrefix префикс переменных окружения
const EnvPrefix = "STOREFRONT_"

type envLookup func(key string) (string, bool)

func lookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// binding связывает имя параметра (ключ env и флага) с полем Config
type binding struct {
	name   string
	usage  string
	str    func(c *Config) *string
	num    func(c *Config) *int
	dur    func(c *Config) *time.Duration
	toggle func(c *Config) *bool
}

// bindings общий список параметров для env и флагов
var bindings = []binding{
	{name: "listen-addr", usage: "HTTP listen address", str: func(c *Config) *string { return &c.Server.ListenAddr }},
	{name: "base-url", usage: "public base URL used in email links", str: func(c *Config) *string { return &c.Server.BaseURL }},
	{name: "environment", usage: "development or production", str: func(c *Config) *string { return &c.Server.Environment }},
	{name: "shutdown-timeout", usage: "graceful shutdown timeout", dur: func(c *Config) *time.Duration { return &c.Server.ShutdownTimeout }},
	{name: "trust-proxy-headers", usage: "use X-Forwarded-For / X-Real-IP for client IP", toggle: func(c *Config) *bool { return &c.Server.TrustProxyHeaders }},
	{name: "db-driver", usage: "database driver: sqlite or postgres", str: func(c *Config) *string { return &c.Database.Driver }},
	{name: "db-dsn", usage: "database DSN", str: func(c *Config) *string { return &c.Database.DSN }},
	{name: "session-lifetime", usage: "session lifetime", dur: func(c *Config) *time.Duration { return &c.Auth.SessionLifetime }},
	{name: "verification-ttl", usage: "email verification token lifetime", dur: func(c *Config) *time.Duration { return &c.Auth.VerificationTTL }},
	{name: "reset-ttl", usage: "password reset token lifetime", dur: func(c *Config) *time.Duration { return &c.Auth.ResetTTL }},
	{name: "bcrypt-cost", usage: "bcrypt cost factor", num: func(c *Config) *int { return &c.Auth.BcryptCost }},
	{name: "ratelimit-backend", usage: "rate limiter backend: memory or redis", str: func(c *Config) *string { return &c.RateLimit.Backend }},
	{name: "redis-addr", usage: "redis address", str: func(c *Config) *string { return &c.RateLimit.RedisAddr }},
	{name: "redis-password", usage: "redis password", str: func(c *Config) *string { return &c.RateLimit.RedisPassword }},
	{name: "redis-db", usage: "redis database", num: func(c *Config) *int { return &c.RateLimit.RedisDB }},
	{name: "login-max", usage: "login attempts per window", num: func(c *Config) *int { return &c.RateLimit.LoginMax }},
	{name: "login-window", usage: "login rate limit window", dur: func(c *Config) *time.Duration { return &c.RateLimit.LoginWindow }},
	{name: "mail-backend", usage: "mail backend: log or smtp", str: func(c *Config) *string { return &c.Mail.Backend }},
	{name: "smtp-host", usage: "SMTP host", str: func(c *Config) *string { return &c.Mail.SMTPHost }},
	{name: "smtp-port", usage: "SMTP port", num: func(c *Config) *int { return &c.Mail.SMTPPort }},
	{name: "smtp-username", usage: "SMTP username", str: func(c *Config) *string { return &c.Mail.SMTPUsername }},
	{name: "smtp-password", usage: "SMTP password", str: func(c *Config) *string { return &c.Mail.SMTPPassword }},
	{name: "smtp-timeout", usage: "SMTP dial and session timeout", dur: func(c *Config) *time.Duration { return &c.Mail.SMTPTimeout }},
	{name: "mail-from", usage: "sender address", str: func(c *Config) *string { return &c.Mail.From }},
	{name: "admin-jwt-secret", usage: "HMAC secret for admin tokens", str: func(c *Config) *string { return &c.Admin.JWTSecret }},
	{name: "sweep-schedule", usage: "cron schedule of the expired session sweep", str: func(c *Config) *string { return &c.Jobs.SweepSchedule }},
	{name: "sweep-disabled", usage: "disable the scheduled session sweep", toggle: func(c *Config) *bool { return &c.Jobs.SweepDisabled }},
	{name: "log-level", usage: "log level: debug, info, warn, error", str: func(c *Config) *string { return &c.Log.Level }},
	{name: "log-format", usage: "log format: text or json", str: func(c *Config) *string { return &c.Log.Format }},
}

// EnvKey возвращает имя переменной окружения для параметра, например
// listen-addr -> STOREFRONT_LISTEN_ADDR
func EnvKey(name string) string {
	key := []byte(EnvPrefix)
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch == '-':
			ch = '_'
		case ch >= 'a' && ch <= 'z':
			ch -= 'a' - 'A'
		}
		key = append(key, ch)
	}
	return string(key)
}

// loadEnv накладывает значения переменных окружения
func (c *Config) loadEnv(lookup envLookup) error {
	for _, b := range bindings {
		key := EnvKey(b.name)
		value, ok := lookup(key)
		if !ok {
			continue
		}
		if err := b.set(c, value); err != nil {
			return fmt.Errorf("env %s: %w", key, err)
		}
	}
	return nil
}

func (b binding) set(c *Config, value string) error {
	switch {
	case b.str != nil:
		*b.str(c) = value
	case b.num != nil:
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		*b.num(c) = n
	case b.dur != nil:
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*b.dur(c) = d
	case b.toggle != nil:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		*b.toggle(c) = v
	}
	return nil
}
