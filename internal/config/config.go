// Package config loads server settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// devSecret signs tokens when JWT_SECRET is unset
const devSecret = "s3arena-dev-secret"

// Config holds every server setting
type Config struct {
	HTTPHost string
	HTTPPort int

	StorageType string
	RedisURL    string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	MediaRoot string

	LoginRate  rate.Limit
	LoginBurst int

	LogLevel slog.Level
}

// InsecureSecret reports whether tokens are signed with the built-in development secret
func (c Config) InsecureSecret() bool {
	return c.JWTSecret == devSecret
}

// Default returns the settings used when nothing is configured
func Default() Config {
	return Config{
		HTTPPort:        8000,
		StorageType:     StorageMemory,
		JWTSecret:       devSecret,
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		MediaRoot:       "media",
		LoginRate:       rate.Limit(1),
		LoginBurst:      5,
		LogLevel:        slog.LevelInfo,
	}
}

// Load reads the given .env files (".env" when none are named) into the
// process environment without overriding variables that are already set,
// then builds the config from the environment. Missing files are ignored.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds the config from a variable lookup function
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	p := parser{lookup: lookup}

	cfg.HTTPHost = p.str("HTTP_HOST", cfg.HTTPHost)
	cfg.HTTPPort = p.integer("HTTP_PORT", cfg.HTTPPort)
	cfg.StorageType = strings.ToLower(p.str("STORAGE_TYPE", cfg.StorageType))
	cfg.RedisURL = p.str("REDIS_URL", cfg.RedisURL)
	cfg.JWTSecret = p.str("JWT_SECRET", cfg.JWTSecret)
	cfg.AccessTokenTTL = p.duration("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL)
	cfg.RefreshTokenTTL = p.duration("REFRESH_TOKEN_TTL", cfg.RefreshTokenTTL)
	cfg.MediaRoot = p.str("MEDIA_ROOT", cfg.MediaRoot)
	cfg.LoginRate = rate.Limit(p.float("LOGIN_RATE", float64(cfg.LoginRate)))
	cfg.LoginBurst = p.integer("LOGIN_BURST", cfg.LoginBurst)
	if s, ok := lookup("LOG_LEVEL"); ok && s != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(s)); err != nil {
			p.errs = append(p.errs, fmt.Errorf("LOG_LEVEL: %w", err))
		}
	}

	if err := errors.Join(p.errs...); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks settings that depend on each other
func (c Config) Validate() error {
	switch c.StorageType {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q: must be %q or %q", c.StorageType, StorageMemory, StorageRedis)
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT %d", c.HTTPPort)
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	return nil
}

type parser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *parser) str(key, def string) string {
	if v, ok := p.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	v, ok := p.lookup(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v, ok := p.lookup(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v, ok := p.lookup(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
