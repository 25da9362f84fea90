package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	globalConfigDir = ".scrollguard"
	configFileName  = "config.yaml"
)

// Loader handles loading and merging configuration files
type Loader struct {
	globalPath string
}

// NewLoader creates a new configuration loader
func NewLoader() (*Loader, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return &Loader{
		globalPath: filepath.Join(homeDir, globalConfigDir, configFileName),
	}, nil
}

// Load loads the global configuration merged over the defaults
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	globalCfg, err := l.loadFile(l.globalPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load global config: %w", err)
	}
	if globalCfg != nil {
		cfg = mergeConfigs(cfg, globalCfg)
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific file merged over defaults
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	fileCfg, err := l.loadFile(path)
	if err != nil {
		return nil, err
	}
	return mergeConfigs(DefaultConfig(), fileCfg), nil
}

func (l *Loader) loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &cfg, nil
}

// mergeConfigs merges two configurations, with override taking precedence
// for set values
func mergeConfigs(base, override *Config) *Config {
	result := &Config{
		Version: coalesce(override.Version, base.Version),
		Settings: Settings{
			LogLevel: coalesce(override.Settings.LogLevel, base.Settings.LogLevel),
			LogFile:  coalesce(override.Settings.LogFile, base.Settings.LogFile),
		},
		Detection: mergeDetection(base.Detection, override.Detection),
		Learning:  mergeLearning(base.Learning, override.Learning),
		Storage:   mergeStorage(base.Storage, override.Storage),
		Apps:      mergeApps(base.Apps, override.Apps),
	}

	return result
}

func mergeDetection(base, override Detection) Detection {
	result := base
	if override.SessionTimeoutMs != 0 {
		result.SessionTimeoutMs = override.SessionTimeoutMs
	}
	if override.ConfidenceThreshold != 0 {
		result.ConfidenceThreshold = override.ConfidenceThreshold
	}
	return result
}

func mergeLearning(base, override Learning) Learning {
	result := base

	// Enabled is overridden only when any learning setting is configured,
	// since "not set" and "set to false" are indistinguishable for bool
	if override.Enabled || override.IntervalMinutes != 0 || override.HistoryDays != 0 {
		result.Enabled = override.Enabled
	}

	if override.IntervalMinutes != 0 {
		result.IntervalMinutes = override.IntervalMinutes
	}
	if override.HistoryDays != 0 {
		result.HistoryDays = override.HistoryDays
	}
	return result
}

func mergeStorage(base, override Storage) Storage {
	result := base
	if override.Path != "" {
		result.Path = override.Path
	}
	if override.RecordTTL != "" {
		result.RecordTTL = override.RecordTTL
	}
	if override.CleanupProbability != 0 {
		result.CleanupProbability = override.CleanupProbability
	}
	return result
}

// mergeApps combines app registrations; apps with the same ID are replaced,
// new apps are added
func mergeApps(base, override []App) []App {
	if len(override) == 0 {
		return base
	}
	if len(base) == 0 {
		return override
	}

	appMap := make(map[string]int, len(base))
	result := make([]App, len(base))
	copy(result, base)
	for i, app := range base {
		appMap[app.ID] = i
	}

	for _, app := range override {
		if i, ok := appMap[app.ID]; ok {
			result[i] = app
		} else {
			result = append(result, app)
		}
	}

	return result
}

func coalesce(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// GlobalConfigPath returns the path to the global config file
func (l *Loader) GlobalConfigPath() string {
	return l.globalPath
}

// Exists checks if a config file exists at the given path
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
