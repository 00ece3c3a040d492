package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the client needs to talk to a chat server.
type Config struct {
	// ServerURL is the REST base URL, e.g. https://chat.example.com
	ServerURL string `mapstructure:"server_url"`
	// CableURL is the push endpoint; derived from ServerURL when empty.
	CableURL string `mapstructure:"cable_url"`
	// Token is the bearer token issued at login.
	Token string `mapstructure:"token"`

	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ReconnectMin   time.Duration `mapstructure:"reconnect_min"`
	ReconnectMax   time.Duration `mapstructure:"reconnect_max"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

func Default() *Config {
	return &Config{
		RequestTimeout: 15 * time.Second,
		ReconnectMin:   time.Second,
		ReconnectMax:   30 * time.Second,
		LogLevel:       "info",
		LogFormat:      "console",
	}
}

// Load reads configuration with precedence: defaults < config file < PARLEY_* env.
// configFile may be empty, in which case the usual locations are searched and a
// missing file is not an error.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	cfg := Default()
	// Every key needs a default so AutomaticEnv values survive Unmarshal.
	v.SetDefault("server_url", "")
	v.SetDefault("cable_url", "")
	v.SetDefault("token", "")
	v.SetDefault("request_timeout", cfg.RequestTimeout)
	v.SetDefault("reconnect_min", cfg.ReconnectMin)
	v.SetDefault("reconnect_max", cfg.ReconnectMax)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "parley"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "parley"))
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PARLEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.CableURL == "" && cfg.ServerURL != "" {
		cfg.CableURL = deriveCableURL(cfg.ServerURL)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return errors.New("server_url is required (set PARLEY_SERVER_URL or the config file)")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}
	if c.ReconnectMin <= 0 || c.ReconnectMax < c.ReconnectMin {
		return errors.New("reconnect bounds must satisfy 0 < reconnect_min <= reconnect_max")
	}
	return nil
}

// deriveCableURL maps the REST base URL onto the websocket endpoint.
func deriveCableURL(serverURL string) string {
	u := strings.TrimSuffix(serverURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/cable"
}
