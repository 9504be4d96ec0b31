// Package config holds the process-wide settings. It is loaded once in main and passed
// explicitly to the components that need it.
package config

import "time"

type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Auth     AuthConfig     `yaml:"auth"`
	CORS     CORSConfig     `yaml:"cors"`
	Approval ApprovalConfig `yaml:"approval"`
	Seed     SeedConfig     `yaml:"seed"`
}

type AppConfig struct {
	Env      string `yaml:"env"`
	Port     string `yaml:"port"`
	Timezone string `yaml:"timezone"`
}

func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

type DatabaseConfig struct {
	Host       string `yaml:"host"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	Port       string `yaml:"port"`
	SSLMode    string `yaml:"sslmode"`
	MaxRetries int    `yaml:"max_retries"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
}

type KafkaConfig struct {
	Broker string `yaml:"broker"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"-"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	AllowGuest bool          `yaml:"allow_guest"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type ApprovalConfig struct {
	// AllowRedecision keeps the legacy behaviour of overwriting a decision that already left PENDING.
	AllowRedecision bool          `yaml:"allow_redecision"`
	ReportCacheTTL  time.Duration `yaml:"report_cache_ttl"`
}

type SeedConfig struct {
	Enabled  bool       `yaml:"enabled"`
	Password string     `yaml:"-"`
	Users    []SeedUser `yaml:"users"`
}

type SeedUser struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Role  string `yaml:"role"`
}
