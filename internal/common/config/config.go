// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Review        ReviewConfig       `mapstructure:"review"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port        int `mapstructure:"port"`
	MetricsPort int `mapstructure:"metrics_port"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Review Engine Config ---

// ReviewConfig holds the engine's tunables. ReviewerCapacity is the hard cap
// on concurrently-open review records per reviewer.
type ReviewConfig struct {
	ReviewerCapacity int             `mapstructure:"reviewer_capacity"`
	ClaimAttempts    int             `mapstructure:"claim_attempts"`
	MagicLink        MagicLinkConfig `mapstructure:"magic_link"`
}

type MagicLinkConfig struct {
	TokenLength int    `mapstructure:"token_length"` // hex characters
	TTLHours    int    `mapstructure:"ttl_hours"`
	BaseURL     string `mapstructure:"base_url"`
}

// --- Notification Config ---

type NotificationConfig struct {
	Region     string          `mapstructure:"region"`
	Sender     string          `mapstructure:"sender"`
	SMSEnabled bool            `mapstructure:"sms_enabled"`
	Templates  TemplatesConfig `mapstructure:"templates"`
}

// TemplatesConfig names the SES templates per outcome. The accepted email
// has a zero-to-five variant because that cohort receives extra guidance.
type TemplatesConfig struct {
	AcceptedStandard   string `mapstructure:"accepted_standard"`
	AcceptedZeroToFive string `mapstructure:"accepted_zero_to_five"`
	Returned           string `mapstructure:"returned"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
