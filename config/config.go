// Package config loads service settings from the environment, after an optional
// .env file.
package config

import (
	"errors"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// Defaults.
const (
	DefaultPort             = "3000"
	DefaultLogFormat        = "json"
	DefaultCORSOrigin       = "http://localhost:3000"
	DefaultTemporaryTTL     = 24 * time.Hour
	DefaultRecoveryQueue    = "usuarios:recuperacion"
	defaultDBSSLMode        = "disable"
	defaultShutdownDeadline = 10 * time.Second
)

// Config holds every runtime setting of the service.
type Config struct {
	Port                     string
	DatabaseURL              string
	JWTSecret                string
	CORSAllowedOrigins       []string
	LogFormat                string
	BcryptCost               int
	TemporaryPasswordTTL     time.Duration
	RevokePasswordOnRecovery bool
	RedisURL                 string
	RecoveryQueue            string
	ShutdownTimeout          time.Duration
}

// Load reads .env (a missing file is fine) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, oops.Code("CONFIG_DOTENV_FAILED").Wrap(err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function such as os.Getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:                 withDefault(getenv("PORT"), DefaultPort),
		JWTSecret:            getenv("JWT_SECRET"),
		CORSAllowedOrigins:   splitList(withDefault(getenv("CORS_ALLOWED_ORIGINS"), DefaultCORSOrigin)),
		LogFormat:            withDefault(getenv("LOG_FORMAT"), DefaultLogFormat),
		BcryptCost:           bcrypt.DefaultCost,
		TemporaryPasswordTTL: DefaultTemporaryTTL,
		RedisURL:             getenv("REDIS_URL"),
		RecoveryQueue:        withDefault(getenv("RECOVERY_QUEUE"), DefaultRecoveryQueue),
		ShutdownTimeout:      defaultShutdownDeadline,
	}

	dsn, err := databaseURL(getenv)
	if err != nil {
		return nil, err
	}
	cfg.DatabaseURL = dsn

	if v := getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("key", "BCRYPT_COST").Wrap(err)
		}
		cfg.BcryptCost = cost
	}
	if v := getenv("TEMP_PASSWORD_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("key", "TEMP_PASSWORD_TTL").Wrap(err)
		}
		cfg.TemporaryPasswordTTL = ttl
	}
	if v := getenv("REVOKE_PASSWORD_ON_RECOVERY"); v != "" {
		revoke, err := strconv.ParseBool(v)
		if err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("key", "REVOKE_PASSWORD_ON_RECOVERY").Wrap(err)
		}
		cfg.RevokePasswordOnRecovery = revoke
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	if _, err := strconv.ParseUint(c.Port, 10, 16); err != nil {
		return oops.Code("CONFIG_INVALID").With("key", "PORT").Errorf("invalid port %q", c.Port)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").With("key", "LOG_FORMAT").Errorf("log format must be json or text, got %q", c.LogFormat)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return oops.Code("CONFIG_INVALID").With("key", "BCRYPT_COST").
			Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.TemporaryPasswordTTL < 0 {
		return oops.Code("CONFIG_INVALID").With("key", "TEMP_PASSWORD_TTL").Errorf("ttl must not be negative")
	}
	if c.RecoveryQueue == "" {
		return oops.Code("CONFIG_INVALID").With("key", "RECOVERY_QUEUE").Errorf("recovery queue name is required")
	}
	return nil
}

// databaseURL prefers DATABASE_URL and otherwise assembles a postgres:// URL
// from the DB_* variables.
func databaseURL(getenv func(string) string) (string, error) {
	if dsn := getenv("DATABASE_URL"); dsn != "" {
		return dsn, nil
	}

	user := getenv("DB_USER")
	host := getenv("DB_HOST")
	port := getenv("DB_PORT")
	name := getenv("DB_NAME")
	if user == "" || host == "" || port == "" || name == "" {
		return "", oops.Code("CONFIG_INVALID").
			With("key", "DATABASE_URL").
			Errorf("DATABASE_URL or DB_USER, DB_HOST, DB_PORT and DB_NAME must be set")
	}

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, getenv("DB_PASSWORD")),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + name,
		RawQuery: url.Values{"sslmode": {withDefault(getenv("DB_SSLMODE"), defaultDBSSLMode)}}.Encode(),
	}
	return u.String(), nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
