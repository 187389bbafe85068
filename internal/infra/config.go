package infra

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"tradevault"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"tradevault"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"tradevault"`

	// JWT
	JWTSecret      string `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	JWTUserExpiry  string `env:"JWT_USER_EXPIRY" envDefault:"24h"`
	JWTAdminExpiry string `env:"JWT_ADMIN_EXPIRY" envDefault:"8h"`

	// Server
	APIPort int `env:"API_PORT" envDefault:"3200"`

	// Kafka
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`

	// CORS
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Dev
	AllowInsecureDefaults bool `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`

	// Network risk providers
	VPNAPIBaseURL   string   `env:"VPNAPI_BASE_URL"`
	VPNAPIKey       string   `env:"VPNAPI_KEY"`
	IPAPIBaseURL    string   `env:"IPAPI_BASE_URL"`
	LookupTimeout   string   `env:"NETWORK_LOOKUP_TIMEOUT" envDefault:"5s"`
	HostingPatterns []string `env:"HOSTING_PATTERNS" envSeparator:","`

	// Security policy. Defaults mirror product decisions that are still
	// pending confirmation, so they stay configurable.
	AutoTrustDeviceLimit int `env:"AUTO_TRUST_DEVICE_LIMIT" envDefault:"3"`
	PinMaxAttempts       int `env:"PIN_MAX_ATTEMPTS" envDefault:"5"`
	PinLength            int `env:"PIN_LENGTH" envDefault:"4"`
	SessionHistoryLimit  int `env:"SESSION_HISTORY_LIMIT" envDefault:"50"`

	// Elevated session
	ElevatedDuration string `env:"ELEVATED_DURATION" envDefault:"30m"`
	ElevatedWarnLead string `env:"ELEVATED_WARN_LEAD" envDefault:"5m"`
	ElevatedThrottle string `env:"ELEVATED_ACTIVITY_THROTTLE" envDefault:"1m"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks for insecure configuration that must not run in production.
// Set ALLOW_INSECURE_DEFAULTS=true to bypass (local dev only).
func (c *Config) Validate() error {
	if c.AllowInsecureDefaults {
		return nil
	}
	if c.JWTSecret == "change-me-in-production" {
		return fmt.Errorf("JWT_SECRET is set to the insecure default; set a strong secret or set ALLOW_INSECURE_DEFAULTS=true for local dev")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET is too short (%d chars); minimum 32 characters required", len(c.JWTSecret))
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}
