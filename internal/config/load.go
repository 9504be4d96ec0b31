package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

func defaults() Config {
	return Config{
		App: AppConfig{
			Env:  "development",
			Port: "3000",
		},
		Database: DatabaseConfig{
			Host:       "localhost",
			Port:       "5432",
			SSLMode:    "disable",
			MaxRetries: 5,
		},
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		Seed: SeedConfig{
			Users: []SeedUser{
				{Name: "CEO User", Email: "ceo@peopledesk.local", Role: "CEO"},
				{Name: "HR User", Email: "hr@peopledesk.local", Role: "HR"},
				{Name: "Employee User", Email: "emp@peopledesk.local", Role: "EMPLOYEE"},
			},
		},
	}
}

// Load reads .env (if present), then the YAML file named by CONFIG_FILE (if set),
// then applies environment overrides.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if cfg.Auth.JWTSecret == "" {
		return Config{}, ErrMissingJWTSecret
	}
	if cfg.App.Timezone != "" {
		if _, err := time.LoadLocation(cfg.App.Timezone); err != nil {
			return Config{}, fmt.Errorf("invalid APP_TIMEZONE %q: %w", cfg.App.Timezone, err)
		}
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.App.Env, "APP_ENV")
	setString(&cfg.App.Port, "PORT")
	setString(&cfg.App.Timezone, "APP_TIMEZONE")

	setString(&cfg.Database.Host, "DB_HOST")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.Name, "DB_NAME")
	setString(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.SSLMode, "DB_SSLMODE")
	setInt(&cfg.Database.MaxRetries, "DB_MAX_RETRIES")

	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Kafka.Broker, "KAFKA_BROKER")

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setDuration(&cfg.Auth.TokenTTL, "JWT_TTL")
	setBool(&cfg.Auth.AllowGuest, "AUTH_ALLOW_GUEST")

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORS.AllowedOrigins = splitList(v)
	}

	setBool(&cfg.Approval.AllowRedecision, "APPROVAL_ALLOW_REDECISION")
	setDuration(&cfg.Approval.ReportCacheTTL, "APPROVAL_REPORT_CACHE_TTL")

	setBool(&cfg.Seed.Enabled, "SEED_ENABLED")
	setString(&cfg.Seed.Password, "SEED_PASSWORD")
	if cfg.Seed.Password == "" {
		cfg.Seed.Password = "password123"
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		*dst = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Location returns the configured time zone, falling back to the server's local zone.
func (c Config) Location() *time.Location {
	if c.App.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
