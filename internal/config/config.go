package config

import (
	"fmt"
	"time"
)

// Config represents the complete scrollguard configuration
type Config struct {
	Version   string    `yaml:"version"`
	Settings  Settings  `yaml:"settings"`
	Detection Detection `yaml:"detection"`
	Learning  Learning  `yaml:"learning"`
	Storage   Storage   `yaml:"storage"`
	Apps      []App     `yaml:"apps,omitempty"`
}

// Settings contains global configuration settings
type Settings struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file,omitempty"`
}

// Detection configures the live scoring pipeline
type Detection struct {
	// SessionTimeoutMs is the inactivity gap that ends a session
	SessionTimeoutMs int64 `yaml:"session_timeout_ms"`

	// ConfidenceThreshold is the doom verdict cutoff used before any
	// personalized thresholds are learned
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// Learning configures the periodic personalization pass
type Learning struct {
	// Enabled controls whether learned thresholds are applied
	Enabled bool `yaml:"enabled"`

	// IntervalMinutes is how often the learner re-runs
	IntervalMinutes int `yaml:"interval_minutes"`

	// HistoryDays bounds how far back the learner reads session records
	HistoryDays int `yaml:"history_days"`
}

// Storage configures session record persistence
type Storage struct {
	// Path is the sqlite database location; empty means the default under
	// the user home directory
	Path string `yaml:"path,omitempty"`

	// RecordTTL is how long finalized records are kept (duration string)
	RecordTTL string `yaml:"record_ttl"`

	// CleanupProbability is the per-finalization chance of running TTL
	// cleanup
	CleanupProbability float64 `yaml:"cleanup_probability"`
}

// App registers one tracked application
type App struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name,omitempty"`
	Tracked bool   `yaml:"tracked"`
}

// IsTracked reports whether the given app identifier is tracked
func (c *Config) IsTracked(appID string) bool {
	for _, app := range c.Apps {
		if app.ID == appID {
			return app.Tracked
		}
	}
	return false
}

// RecordTTLDuration parses the storage TTL, falling back to 30 days
func (s *Storage) RecordTTLDuration() time.Duration {
	ttl, err := time.ParseDuration(s.RecordTTL)
	if err != nil || ttl <= 0 {
		return 30 * 24 * time.Hour
	}
	return ttl
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Settings: Settings{
			LogLevel: "info",
		},
		Detection: Detection{
			SessionTimeoutMs:    30_000,
			ConfidenceThreshold: 0.7,
		},
		Learning: Learning{
			Enabled:         true,
			IntervalMinutes: 60,
			HistoryDays:     14,
		},
		Storage: Storage{
			RecordTTL:          "720h",
			CleanupProbability: 0.1,
		},
		Apps: []App{
			{ID: "com.google.android.youtube", Name: "YouTube", Tracked: true},
			{ID: "com.instagram.android", Name: "Instagram", Tracked: true},
			{ID: "com.zhiliaoapp.musically", Name: "TikTok", Tracked: true},
			{ID: "com.twitter.android", Name: "X", Tracked: true},
			{ID: "com.reddit.frontpage", Name: "Reddit", Tracked: true},
			{ID: "com.facebook.katana", Name: "Facebook", Tracked: true},
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Detection.SessionTimeoutMs <= 0 {
		return &ConfigError{Field: "detection.session_timeout_ms", Message: "must be positive"}
	}
	if c.Detection.ConfidenceThreshold <= 0 || c.Detection.ConfidenceThreshold > 1 {
		return &ConfigError{Field: "detection.confidence_threshold", Message: "must be in (0, 1]"}
	}
	if c.Learning.Enabled {
		if c.Learning.IntervalMinutes < 1 {
			return &ConfigError{Field: "learning.interval_minutes", Message: "must be at least 1"}
		}
		if c.Learning.HistoryDays < 1 {
			return &ConfigError{Field: "learning.history_days", Message: "must be at least 1"}
		}
	}
	if c.Storage.CleanupProbability < 0 || c.Storage.CleanupProbability > 1 {
		return &ConfigError{Field: "storage.cleanup_probability", Message: "must be between 0 and 1"}
	}
	if c.Storage.RecordTTL != "" {
		if _, err := time.ParseDuration(c.Storage.RecordTTL); err != nil {
			return &ConfigError{Field: "storage.record_ttl", Message: fmt.Sprintf("invalid duration: %v", err)}
		}
	}
	for _, app := range c.Apps {
		if app.ID == "" {
			return &ConfigError{Field: "apps", Message: "app id must not be empty"}
		}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Field + ": " + e.Message
}
