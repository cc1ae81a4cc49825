package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration. It is constructed once at
// startup and passed into components; nothing mutates it afterwards.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Fetch    FetchConfig    `yaml:"fetch,omitempty"`
	SMTP     SMTPConfig     `yaml:"smtp,omitempty"`
	MQTT     MQTTConfig     `yaml:"mqtt,omitempty"`
}

// ProviderConfig holds the Mediacom account details
type ProviderConfig struct {
	CustomerID string `yaml:"customer_id,omitempty"` // account number, used by the direct strategy
	Username   string `yaml:"username,omitempty"`    // portal login, used by the session strategy
	Password   string `yaml:"password,omitempty"`
	UsageURL   string `yaml:"usage_url,omitempty"` // override for the direct usage endpoint
}

// FetchConfig selects and tunes the fetch strategy
type FetchConfig struct {
	Strategy       string `yaml:"strategy,omitempty"`        // "direct" or "session"
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"` // session wait ceiling
}

// SMTPConfig holds the alert mail settings (SMTPS, one recipient)
type SMTPConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port,omitempty"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Address  string `yaml:"address"` // sender and recipient
}

// MQTTConfig holds the optional observation publisher settings
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// Load reads the config file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// GetStrategy returns the configured fetch strategy with a default of "direct"
func (c *Config) GetStrategy() string {
	if c.Fetch.Strategy == "" {
		return "direct"
	}
	return c.Fetch.Strategy
}

// GetFetchTimeout returns the session wait ceiling with a default of 120s
func (c *Config) GetFetchTimeout() time.Duration {
	if c.Fetch.TimeoutSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// GetPort returns the SMTP port with a default of 465 (SMTPS)
func (s SMTPConfig) GetPort() int {
	if s.Port <= 0 {
		return 465
	}
	return s.Port
}

// GetTopic returns the MQTT topic with a default of "capmon/usage"
func (m MQTTConfig) GetTopic() string {
	if m.Topic == "" {
		return "capmon/usage"
	}
	return m.Topic
}
