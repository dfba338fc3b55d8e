package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	SnapshotTTLSeconds    int
	RemoteAPIURL          string
	RemoteTimeoutSeconds  int
	AuthSecret            string
	AccessTokenTTLMinutes int
	Timezone              string
	LogLevel              string
	LogFormat             string
}

// LoadDotEnv reads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

func Load() Config {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		Port:                  strings.TrimSpace(v.GetString("PORT")),
		AllowedOrigin:         strings.TrimSpace(v.GetString("ALLOWED_ORIGIN")),
		DatabaseURL:           strings.TrimSpace(v.GetString("DATABASE_URL")),
		RedisAddr:             strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:         v.GetString("REDIS_PASSWORD"),
		RedisDB:               nonNegative(v.GetInt("REDIS_DB"), 0),
		SnapshotTTLSeconds:    positive(v.GetInt("SNAPSHOT_TTL_SECONDS"), 30),
		RemoteAPIURL:          strings.TrimSpace(v.GetString("REMOTE_API_URL")),
		RemoteTimeoutSeconds:  positive(v.GetInt("REMOTE_TIMEOUT_SECONDS"), 10),
		AuthSecret:            strings.TrimSpace(v.GetString("AUTH_SECRET")),
		AccessTokenTTLMinutes: positive(v.GetInt("ACCESS_TOKEN_TTL_MINUTES"), 480),
		Timezone:              strings.TrimSpace(v.GetString("TIMEZONE")),
		LogLevel:              strings.TrimSpace(v.GetString("LOG_LEVEL")),
		LogFormat:             strings.TrimSpace(v.GetString("LOG_FORMAT")),
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}

	return cfg
}

// AUTH_SECRET deliberately has no default.
func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ALLOWED_ORIGIN", "http://127.0.0.1:3000")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SNAPSHOT_TTL_SECONDS", 30)
	v.SetDefault("REMOTE_TIMEOUT_SECONDS", 10)
	v.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 480)
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLSeconds) * time.Second
}

func (c Config) RemoteTimeout() time.Duration {
	return time.Duration(c.RemoteTimeoutSeconds) * time.Second
}

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

// Location resolves TIMEZONE. It decides what "today" means for the
// dashboard and how date-only filter bounds are read.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func positive(value int, fallback int) int {
	if value < 1 {
		return fallback
	}
	return value
}

func nonNegative(value int, fallback int) int {
	if value < 0 {
		return fallback
	}
	return value
}
