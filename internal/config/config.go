package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Events  EventsConfig  `mapstructure:"events"`
	Health  HealthConfig  `mapstructure:"health"`
	Session SessionConfig `mapstructure:"session"`
	Log     LoggingConfig `mapstructure:"log"`
}

type ServerConfig struct {
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type EventsConfig struct {
	ReconnectSeconds int `mapstructure:"reconnect_seconds"`
}

type HealthConfig struct {
	// Nominal server push cadence; the freshness window is twice this.
	PushIntervalSeconds int `mapstructure:"push_interval_seconds"`
}

type SessionConfig struct {
	CookieName string `mapstructure:"cookie_name"`
	// TokenFile persists the session cookie between invocations. Empty means
	// the platform config dir default.
	TokenFile string `mapstructure:"token_file"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func (c *ServerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *EventsConfig) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectSeconds) * time.Second
}

func (c *HealthConfig) PushInterval() time.Duration {
	return time.Duration(c.PushIntervalSeconds) * time.Second
}

func Load() (*Config, error) {
	if err := initConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if cfg.Session.TokenFile == "" {
		cfg.Session.TokenFile = defaultTokenFile()
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func initConfig() error {
	// Respect the --config CLI flag if set
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		if configDir, err := os.UserConfigDir(); err == nil {
			viper.AddConfigPath(filepath.Join(configDir, "pihole-cluster-admin"))
		}
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("PIHOLE_CLUSTER_ADMIN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.url", "http://localhost:8081")
	viper.SetDefault("server.timeout_seconds", 30)
	viper.SetDefault("events.reconnect_seconds", 4)
	viper.SetDefault("health.push_interval_seconds", 10)
	viper.SetDefault("session.cookie_name", "session_id")
	viper.SetDefault("session.token_file", "")
	viper.SetDefault("log.level", "INFO")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

func defaultTokenFile() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".pihole-cluster-admin-session")
	}
	return filepath.Join(configDir, "pihole-cluster-admin", "session")
}

// validate checks for config consistency.
func (c *Config) validate() error {
	if strings.TrimSpace(c.Server.URL) == "" {
		return fmt.Errorf("server.url cannot be empty")
	}
	if !strings.HasPrefix(c.Server.URL, "http://") && !strings.HasPrefix(c.Server.URL, "https://") {
		return fmt.Errorf("server.url must start with http:// or https:// (got %s)", c.Server.URL)
	}
	if c.Server.TimeoutSeconds < 1 {
		return fmt.Errorf("server.timeout_seconds must be at least 1")
	}
	if c.Events.ReconnectSeconds < 1 {
		return fmt.Errorf("events.reconnect_seconds must be at least 1")
	}
	if c.Health.PushIntervalSeconds < 1 {
		return fmt.Errorf("health.push_interval_seconds must be at least 1")
	}
	if strings.TrimSpace(c.Session.CookieName) == "" {
		return fmt.Errorf("session.cookie_name cannot be empty")
	}

	validLevels := map[string]struct{}{
		"TRACE": {}, "DEBUG": {}, "INFO": {}, "WARN": {}, "ERROR": {}, "FATAL": {},
	}
	if _, ok := validLevels[strings.ToUpper(c.Log.Level)]; !ok {
		return fmt.Errorf("log.level must be a valid log level, got: %s", c.Log.Level)
	}

	return nil
}
