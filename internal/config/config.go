// Package config handles WireWave configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the root configuration structure for WireWave.
type Config struct {
	// API settings
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Sync (polling) settings
	Sync SyncConfig `yaml:"sync" mapstructure:"sync"`

	// Presence heartbeat settings
	Presence PresenceConfig `yaml:"presence" mapstructure:"presence"`

	// Local storage settings
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// TUI settings
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`
}

// APIConfig contains remote service settings.
type APIConfig struct {
	// BaseURL is the root of the messaging API.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds every request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// RateLimit is the steady request rate per second (0 disables pacing).
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`

	// RateBurst is the token bucket size.
	RateBurst int `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// SyncConfig contains polling intervals.
type SyncConfig struct {
	// MessagesInterval is how often direct messages are refreshed.
	MessagesInterval time.Duration `yaml:"messages_interval" mapstructure:"messages_interval"`

	// GroupsInterval is how often the group list is refreshed.
	GroupsInterval time.Duration `yaml:"groups_interval" mapstructure:"groups_interval"`

	// GroupMessagesInterval is how often an open group chat is refreshed.
	GroupMessagesInterval time.Duration `yaml:"group_messages_interval" mapstructure:"group_messages_interval"`

	// GroupsMinInterval throttles group list refreshes.
	GroupsMinInterval time.Duration `yaml:"groups_min_interval" mapstructure:"groups_min_interval"`

	// GroupMessageLimit is the page size for group messages.
	GroupMessageLimit int `yaml:"group_message_limit" mapstructure:"group_message_limit"`
}

// PresenceConfig contains presence heartbeat settings.
type PresenceConfig struct {
	// PingInterval is how often presence is reported (0 disables).
	PingInterval time.Duration `yaml:"ping_interval" mapstructure:"ping_interval"`
}

// StorageConfig contains local key-value store settings.
type StorageConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path" mapstructure:"path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// TUIConfig contains TUI settings.
type TUIConfig struct {
	// Theme is the color theme (default, high-contrast).
	Theme string `yaml:"theme" mapstructure:"theme"`

	// ToastDuration is how long a notification stays visible.
	ToastDuration time.Duration `yaml:"toast_duration" mapstructure:"toast_duration"`

	// ShowTimestamps shows timestamps in the UI.
	ShowTimestamps bool `yaml:"show_timestamps" mapstructure:"show_timestamps"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		API: APIConfig{
			BaseURL:   "http://localhost:5000",
			Timeout:   30 * time.Second,
			RateLimit: 0,
			RateBurst: 5,
		},
		Sync: SyncConfig{
			MessagesInterval:      4 * time.Second,
			GroupsInterval:        10 * time.Second,
			GroupMessagesInterval: 4 * time.Second,
			GroupsMinInterval:     2500 * time.Millisecond,
			GroupMessageLimit:     200,
		},
		Presence: PresenceConfig{
			PingInterval: 30 * time.Second,
		},
		Storage: StorageConfig{
			Path: filepath.Join(homeDir, ".local", "share", "wirewave", "wirewave.db"),
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
		TUI: TUIConfig{
			Theme:          "default",
			ToastDuration:  2800 * time.Millisecond,
			ShowTimestamps: true,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	base := strings.TrimSpace(c.API.BaseURL)
	if base == "" {
		return fmt.Errorf("api.base_url is required")
	}
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL)
	}

	if c.API.Timeout < time.Second {
		return fmt.Errorf("api.timeout must be at least 1s")
	}

	if c.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit must not be negative")
	}
	if c.API.RateLimit > 0 && c.API.RateBurst < 1 {
		return fmt.Errorf("api.rate_burst must be at least 1 when rate_limit is set")
	}

	intervals := map[string]time.Duration{
		"sync.messages_interval":       c.Sync.MessagesInterval,
		"sync.groups_interval":         c.Sync.GroupsInterval,
		"sync.group_messages_interval": c.Sync.GroupMessagesInterval,
	}
	for key, d := range intervals {
		if d < 100*time.Millisecond {
			return fmt.Errorf("%s must be at least 100ms", key)
		}
	}

	if c.Sync.GroupsMinInterval < 0 {
		return fmt.Errorf("sync.groups_min_interval must not be negative")
	}

	if c.Sync.GroupMessageLimit < 1 {
		return fmt.Errorf("sync.group_message_limit must be at least 1")
	}

	if c.Presence.PingInterval < 0 {
		return fmt.Errorf("presence.ping_interval must not be negative")
	}

	if strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("storage.path is required")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be one of console, json")
	}

	switch c.TUI.Theme {
	case "default", "high-contrast":
	default:
		return fmt.Errorf("tui.theme must be one of default, high-contrast")
	}

	return nil
}

// EnsureDirectories creates the directory holding the local store.
func (c *Config) EnsureDirectories() error {
	dir := filepath.Dir(c.Storage.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
