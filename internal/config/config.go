package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort   string `mapstructure:"SERVER_PORT"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	JWTSecret    string `mapstructure:"JWT_SECRET"`
	ClientOrigin string `mapstructure:"CLIENT_ORIGIN"`
	AppEnv       string `mapstructure:"APP_ENV"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`

	// DBMaxConns caps the pgx pool size.
	DBMaxConns int32 `mapstructure:"DB_MAX_CONNS"`
	// TxIdleTimeoutSeconds is applied as idle_in_transaction_session_timeout so an
	// abandoned allocation batch cannot hold stock row locks forever.
	TxIdleTimeoutSeconds int `mapstructure:"TX_IDLE_TIMEOUT_SECONDS"`

	MetricsEnabled bool `mapstructure:"METRICS_ENABLED"`

	SESEnabled     bool   `mapstructure:"SES_ENABLED"`
	SESFromAddress string `mapstructure:"SES_FROM_ADDRESS"`
	AWSRegion      string `mapstructure:"AWS_REGION"`
}

var keys = []string{
	"SERVER_PORT", "DATABASE_URL", "JWT_SECRET", "CLIENT_ORIGIN", "APP_ENV", "LOG_LEVEL",
	"DB_MAX_CONNS", "TX_IDLE_TIMEOUT_SECONDS", "METRICS_ENABLED",
	"SES_ENABLED", "SES_FROM_ADDRESS", "AWS_REGION",
}

// LoadConfig reads <path>/.env when present and lets environment variables override it.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("CLIENT_ORIGIN", "*")
	v.SetDefault("APP_ENV", "prod")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("TX_IDLE_TIMEOUT_SECONDS", 30)
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("SES_ENABLED", false)
	v.SetDefault("AWS_REGION", "us-east-1")

	v.AutomaticEnv()
	// AutomaticEnv only resolves keys viper already knows about; bind the rest explicitly
	// so Unmarshal sees env-only values.
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("config: DATABASE_URL is required")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if c.SESEnabled && strings.TrimSpace(c.SESFromAddress) == "" {
		return errors.New("config: SES_FROM_ADDRESS is required when SES_ENABLED is set")
	}
	if c.DBMaxConns <= 0 {
		c.DBMaxConns = 10
	}
	return nil
}

// IsDev reports whether human-readable console logging should be used.
func (c *Config) IsDev() bool {
	return strings.EqualFold(c.AppEnv, "dev")
}
