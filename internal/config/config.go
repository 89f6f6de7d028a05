// internal/config/config.go
package config

import (
	"errors"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	RemoteBaseURL   string `mapstructure:"remote_base_url"`
	APIToken        string `mapstructure:"api_token"`
	PostgresURL     string `mapstructure:"postgres_url"`
	HTTPTimeout     int    `mapstructure:"http_timeout_ms"`
	Retries         int    `mapstructure:"retries"`
	RetryDelay      int    `mapstructure:"retry_delay_ms"`
	RefreshInterval int    `mapstructure:"refresh_interval"`
	MetricsAddr     string `mapstructure:"metrics_addr"`
	DebugLogging    bool   `mapstructure:"debug_logging"`
	LogFile         string `mapstructure:"log_file"`
}

const (
	DefaultHTTPTimeout     = 15000
	DefaultRetries         = 3
	DefaultRetryDelay      = 500
	DefaultRefreshInterval = 300
	DefaultMetricsAddr     = ":9190"
	DefaultLogFile         = "marketsync.log"
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"http_timeout_ms":  DefaultHTTPTimeout,
		"retries":          DefaultRetries,
		"retry_delay_ms":   DefaultRetryDelay,
		"refresh_interval": DefaultRefreshInterval,
		"metrics_addr":     DefaultMetricsAddr,
		"log_file":         DefaultLogFile,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("MARKETSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.RemoteBaseURL == "" {
		return errors.New("missing remote_base_url in configuration")
	}
	if err := validateURL(cfg.RemoteBaseURL, "http"); err != nil {
		return errors.New("invalid remote_base_url protocol")
	}
	if cfg.PostgresURL == "" {
		return errors.New("missing postgres_url in configuration")
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.HTTPTimeout <= 0 {
		return errors.New("invalid http_timeout_ms")
	}
	if cfg.Retries <= 0 {
		return errors.New("invalid retries count")
	}
	if cfg.RetryDelay <= 0 {
		return errors.New("invalid retry_delay_ms")
	}
	if cfg.RefreshInterval <= 0 {
		return errors.New("invalid refresh_interval")
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(u.Scheme, protocol) {
		return errors.New("unexpected URL scheme")
	}
	return nil
}
