package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config holds client configuration values.
type Config struct {
	Endpoint            string        `mapstructure:"endpoint" yaml:"endpoint"`
	Username            string        `mapstructure:"username" yaml:"username"`
	LogLevel            string        `mapstructure:"log_level" yaml:"log_level"`
	DialTimeout         time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	WriteTimeout        time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ReconnectInitial    time.Duration `mapstructure:"reconnect_initial" yaml:"reconnect_initial"`
	ReconnectMax        time.Duration `mapstructure:"reconnect_max" yaml:"reconnect_max"`
	ReconnectMultiplier float64       `mapstructure:"reconnect_multiplier" yaml:"reconnect_multiplier"`
	EventBuffer         int           `mapstructure:"event_buffer" yaml:"event_buffer"`
	MaxFrameBytes       int64         `mapstructure:"max_frame_bytes" yaml:"max_frame_bytes"`
	ViewAddr            string        `mapstructure:"view_addr" yaml:"view_addr"`
	MessagesPerMinute   int           `mapstructure:"messages_per_minute" yaml:"messages_per_minute"`
	ReadHeaderTimeout   time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout     time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Endpoint:            "ws://localhost:8080/ws",
		LogLevel:            "info",
		DialTimeout:         10 * time.Second,
		WriteTimeout:        5 * time.Second,
		ReconnectInitial:    500 * time.Millisecond,
		ReconnectMax:        30 * time.Second,
		ReconnectMultiplier: 2,
		EventBuffer:         64,
		MaxFrameBytes:       1 << 20,
		MessagesPerMinute:   60,
		ReadHeaderTimeout:   5 * time.Second,
		ShutdownTimeout:     5 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Endpoint != "" {
		c.Endpoint = other.Endpoint
	}
	if other.Username != "" {
		c.Username = other.Username
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DialTimeout != 0 {
		c.DialTimeout = other.DialTimeout
	}
	if other.WriteTimeout != 0 {
		c.WriteTimeout = other.WriteTimeout
	}
	if other.ReconnectInitial != 0 {
		c.ReconnectInitial = other.ReconnectInitial
	}
	if other.ReconnectMax != 0 {
		c.ReconnectMax = other.ReconnectMax
	}
	if other.ReconnectMultiplier != 0 {
		c.ReconnectMultiplier = other.ReconnectMultiplier
	}
	if other.EventBuffer != 0 {
		c.EventBuffer = other.EventBuffer
	}
	if other.MaxFrameBytes != 0 {
		c.MaxFrameBytes = other.MaxFrameBytes
	}
	if other.ViewAddr != "" {
		c.ViewAddr = other.ViewAddr
	}
	if other.MessagesPerMinute != 0 {
		c.MessagesPerMinute = other.MessagesPerMinute
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return fmt.Errorf("endpoint: unsupported scheme %q", u.Scheme)
	}
	if c.DialTimeout <= 0 || c.WriteTimeout <= 0 {
		return errors.New("dial_timeout and write_timeout must be positive")
	}
	if c.ReconnectInitial <= 0 {
		return errors.New("reconnect_initial must be positive")
	}
	if c.ReconnectMax < c.ReconnectInitial {
		return errors.New("reconnect_max must not be below reconnect_initial")
	}
	if c.ReconnectMultiplier < 1 {
		return errors.New("reconnect_multiplier must be at least 1")
	}
	if c.EventBuffer <= 0 {
		return errors.New("event_buffer must be positive")
	}
	return nil
}
