package config

import "time"

// Config holds client configuration values.
type Config struct {
	ServerURL   string        `mapstructure:"server_url" yaml:"server_url"`
	User        string        `mapstructure:"user" yaml:"user"`
	LogLevel    string        `mapstructure:"log_level" yaml:"log_level"`
	DialTimeout time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	MinBackoff  time.Duration `mapstructure:"min_backoff" yaml:"min_backoff"`
	MaxBackoff  time.Duration `mapstructure:"max_backoff" yaml:"max_backoff"`
	AuthSecret  string        `mapstructure:"auth_secret" yaml:"auth_secret"`
	AuthIssuer  string        `mapstructure:"auth_issuer" yaml:"auth_issuer"`
	AuthTTL     time.Duration `mapstructure:"auth_ttl" yaml:"auth_ttl"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		ServerURL:   "ws://localhost:8080/cometd",
		LogLevel:    "info",
		DialTimeout: 10 * time.Second,
		MinBackoff:  500 * time.Millisecond,
		MaxBackoff:  30 * time.Second,
		AuthIssuer:  "oort-chat",
		AuthTTL:     24 * time.Hour,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.ServerURL != "" {
		c.ServerURL = other.ServerURL
	}
	if other.User != "" {
		c.User = other.User
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DialTimeout != 0 {
		c.DialTimeout = other.DialTimeout
	}
	if other.MinBackoff != 0 {
		c.MinBackoff = other.MinBackoff
	}
	if other.MaxBackoff != 0 {
		c.MaxBackoff = other.MaxBackoff
	}
	if other.AuthSecret != "" {
		c.AuthSecret = other.AuthSecret
	}
	if other.AuthIssuer != "" {
		c.AuthIssuer = other.AuthIssuer
	}
	if other.AuthTTL != 0 {
		c.AuthTTL = other.AuthTTL
	}
}
