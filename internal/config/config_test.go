package config

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Detection.SessionTimeoutMs != 30_000 {
		t.Errorf("Expected 30000ms session timeout, got %d", cfg.Detection.SessionTimeoutMs)
	}
	if cfg.Detection.ConfidenceThreshold != 0.7 {
		t.Errorf("Expected confidence threshold 0.7, got %.2f", cfg.Detection.ConfidenceThreshold)
	}
	if !cfg.Learning.Enabled {
		t.Error("Learning should be enabled by default")
	}
	if len(cfg.Apps) == 0 {
		t.Error("Default config should register tracked apps")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid, got error: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "zero session timeout",
			modify:  func(c *Config) { c.Detection.SessionTimeoutMs = 0 },
			wantErr: true,
		},
		{
			name:    "confidence threshold above 1",
			modify:  func(c *Config) { c.Detection.ConfidenceThreshold = 1.5 },
			wantErr: true,
		},
		{
			name:    "learning interval too small",
			modify:  func(c *Config) { c.Learning.IntervalMinutes = 0 },
			wantErr: true,
		},
		{
			name: "learning disabled skips learning validation",
			modify: func(c *Config) {
				c.Learning.Enabled = false
				c.Learning.IntervalMinutes = 0
			},
			wantErr: false,
		},
		{
			name:    "cleanup probability out of range",
			modify:  func(c *Config) { c.Storage.CleanupProbability = 1.5 },
			wantErr: true,
		},
		{
			name:    "bad record ttl",
			modify:  func(c *Config) { c.Storage.RecordTTL = "notaduration" },
			wantErr: true,
		},
		{
			name:    "empty app id",
			modify:  func(c *Config) { c.Apps = append(c.Apps, App{Tracked: true}) },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsTracked(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.IsTracked("com.instagram.android") {
		t.Error("Instagram should be tracked by default")
	}
	if cfg.IsTracked("com.example.calculator") {
		t.Error("Unregistered apps should not be tracked")
	}

	cfg.Apps = append(cfg.Apps, App{ID: "com.example.news", Tracked: false})
	if cfg.IsTracked("com.example.news") {
		t.Error("Registered but untracked app should not be tracked")
	}
}

func TestRecordTTLDuration(t *testing.T) {
	s := Storage{RecordTTL: "48h"}
	if got := s.RecordTTLDuration(); got.Hours() != 48 {
		t.Errorf("Expected 48h TTL, got %s", got)
	}

	s = Storage{RecordTTL: "garbage"}
	if got := s.RecordTTLDuration(); got.Hours() != 720 {
		t.Errorf("Expected 720h fallback TTL, got %s", got)
	}
}
