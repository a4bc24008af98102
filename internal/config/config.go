package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App     AppConfig
	AWS     AWSConfig
	Tables  TablesConfig
	Queue   QueueConfig
	Bot     BotConfig
	Seed    SeedConfig
	Log     LogConfig
	Metrics MetricsConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Env  string
	Port string
}

// AWSConfig holds AWS connectivity settings. Endpoint overrides the service
// endpoint for local development (DynamoDB local / LocalStack).
type AWSConfig struct {
	Region   string
	Endpoint string
}

// TablesConfig names the two logical tables.
type TablesConfig struct {
	Orders        string
	Subscriptions string
}

// QueueConfig holds the notification queue URL. Empty means cards are
// delivered directly from the API process instead of through the worker.
type QueueConfig struct {
	URL string
}

// BotConfig holds the connector credentials for proactive messages.
type BotConfig struct {
	Token string
}

// SeedConfig controls demo-data seeding on startup.
type SeedConfig struct {
	Enabled bool
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// MetricsConfig holds CloudWatch metric settings.
type MetricsConfig struct {
	Enabled   bool
	Namespace string
}

// Load reads configuration from an optional config file and environment
// variables. Environment variables use the ORDERDESK_ prefix with dots
// replaced by underscores (e.g. ORDERDESK_APP_PORT) and override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("aws.region", "")
	v.SetDefault("aws.endpoint", "")
	v.SetDefault("tables.orders", "Orders")
	v.SetDefault("tables.subscriptions", "BotSubscriptions")
	v.SetDefault("queue.url", "")
	v.SetDefault("bot.token", "")
	v.SetDefault("seed.enabled", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", "OrderDesk")

	v.SetEnvPrefix("ORDERDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Tables.Orders == "" {
		return fmt.Errorf("tables.orders must not be empty")
	}
	if c.Tables.Subscriptions == "" {
		return fmt.Errorf("tables.subscriptions must not be empty")
	}
	if c.App.Port == "" {
		return fmt.Errorf("app.port must not be empty")
	}
	return nil
}
