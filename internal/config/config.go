// Package config loads and stores the user settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/n2code/doctrail/internal"
)

const (
	AppName          = "doctrail"
	FileName         = "config.yaml"
	MaxRecentFiles   = 10
	DataDirEnv       = "DOCTRAIL_DATA_DIR"
	LogLevelEnv      = "DOCTRAIL_LOG_LEVEL"
	fallbackDataDir  = "data"
	defaultLogLevel  = "info"
	defaultAutosave  = 5 * time.Minute
	configPermission = 0o600
)

// Settings is the persisted part of the configuration. An empty string field means "use the default",
// a zero AutosaveInterval disables periodic saves.
type Settings struct {
	DataDir          string        `yaml:"data_dir,omitempty"`
	AutosaveInterval time.Duration `yaml:"autosave_interval"` //0 disables periodic saves
	RecentFiles      []string      `yaml:"recent_files,omitempty"`
	LogLevel         string        `yaml:"log_level,omitempty"`
}

type Config struct {
	Settings Settings
	path     string //location of the settings file, empty if settings are not to be persisted
}

func Defaults() Settings {
	return Settings{
		DataDir:          defaultDataDir(),
		AutosaveInterval: defaultAutosave,
		LogLevel:         defaultLogLevel,
	}
}

// DefaultPath is the settings file inside the OS-specific user configuration directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("no user configuration directory: %w", err)
	}
	return filepath.Join(dir, AppName, FileName), nil
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, AppName, fallbackDataDir)
	}
	return fallbackDataDir
}

// Load reads the settings file at path. A missing file yields the defaults.
// Environment overrides are applied afterwards and the result is validated.
func Load(path string) (*Config, error) {
	cfg := &Config{Settings: Defaults(), path: path}
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file failed: %w", err)
	default:
		if err := yaml.Unmarshal(raw, &cfg.Settings); err != nil {
			return nil, fmt.Errorf("parsing config file %s failed: %w", path, err)
		}
	}
	cfg.applyEnvironment()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvironment() {
	if value := os.Getenv(DataDirEnv); value != "" {
		c.Settings.DataDir = value
	}
	if value := os.Getenv(LogLevelEnv); value != "" {
		c.Settings.LogLevel = value
	}
}

func (c *Config) fillDefaults() {
	if c.Settings.DataDir == "" {
		c.Settings.DataDir = defaultDataDir()
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaultLogLevel
	}
}

func (c *Config) Validate() error {
	if c.Settings.AutosaveInterval < 0 {
		return fmt.Errorf("autosave_interval must not be negative: %s", c.Settings.AutosaveInterval)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level translates the configured log level.
func (c *Config) Level() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(c.Settings.LogLevel)
	if err != nil {
		return level, fmt.Errorf("log_level invalid: %w", err)
	}
	return level, nil
}

func (c *Config) Path() string {
	return c.path
}

// AddRecentFile moves the path to the front of the recent files, dropping the oldest beyond MaxRecentFiles.
func (c *Config) AddRecentFile(absolutePath string) {
	recent := make([]string, 0, MaxRecentFiles)
	recent = append(recent, absolutePath)
	for _, known := range c.Settings.RecentFiles {
		if known != absolutePath && len(recent) < MaxRecentFiles {
			recent = append(recent, known)
		}
	}
	c.Settings.RecentFiles = recent
}

func (c *Config) Save() error {
	if c.path == "" {
		return errors.New("config has no file location")
	}
	raw, err := yaml.Marshal(&c.Settings)
	internal.AssertNoError(err, "settings consist of plain values")
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating config directory failed: %w", err)
	}
	if err := internal.WriteFileAtomically(c.path, raw, configPermission); err != nil {
		return fmt.Errorf("saving config failed: %w", err)
	}
	return nil
}
