// Package config loads the shell's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appDirName     = "wowup-shell"
	configFileName = "config.yaml"

	defaultMaxFrames = 2
	defaultLogLevel  = "info"
)

// Config is the shell configuration.
type Config struct {
	ExtensionsDir string    `yaml:"extensions_dir"`
	Seeds         []string  `yaml:"seeds"`
	MaxFrames     int       `yaml:"max_frames"`
	Watch         bool      `yaml:"watch"`
	StateDB       string    `yaml:"state_db"`
	Log           LogConfig `yaml:"log"`
}

// LogConfig configures the log file.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

var (
	pathMu       sync.RWMutex
	testOverride string
)

// ConfigPath returns the config file location.
func ConfigPath() string {
	pathMu.RLock()
	override := testOverride
	pathMu.RUnlock()
	if override != "" {
		return override
	}
	return filepath.Join(baseDir(), configFileName)
}

// SetTestConfigPath points ConfigPath at path. Tests only.
func SetTestConfigPath(path string) {
	pathMu.Lock()
	testOverride = path
	pathMu.Unlock()
}

// ResetTestConfigPath restores the default ConfigPath.
func ResetTestConfigPath() {
	SetTestConfigPath("")
}

// baseDir is the per-user application directory.
func baseDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appDirName)
}

// Default returns the configuration used when no file exists at
// ConfigPath.
func Default() *Config {
	return defaultFor(ConfigPath())
}

// defaultFor places the default paths next to the config file at path.
func defaultFor(path string) *Config {
	base := filepath.Dir(path)
	return &Config{
		ExtensionsDir: filepath.Join(base, "wowup-extensions"),
		MaxFrames:     defaultMaxFrames,
		StateDB:       filepath.Join(base, "state.db"),
		Log: LogConfig{
			Level: defaultLogLevel,
			File:  filepath.Join(base, "wowup-shell.log"),
		},
	}
}

// Load reads the config at ConfigPath. A missing file yields Default().
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path over defaults that live next to path.
// A missing file yields those defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := defaultFor(path)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.normalize(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// normalize expands paths, resolves seeds relative to the config file and
// fills zero values.
func (c *Config) normalize(configDir string) error {
	c.ExtensionsDir = ExpandPath(c.ExtensionsDir)
	c.StateDB = ExpandPath(c.StateDB)
	c.Log.File = ExpandPath(c.Log.File)

	for i, seed := range c.Seeds {
		seed = ExpandPath(seed)
		if !filepath.IsAbs(seed) {
			seed = filepath.Join(configDir, seed)
		}
		c.Seeds[i] = seed
	}

	if c.MaxFrames <= 0 {
		c.MaxFrames = defaultMaxFrames
	}

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch c.Log.Level {
	case "":
		c.Log.Level = defaultLogLevel
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
