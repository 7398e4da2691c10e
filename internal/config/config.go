// Package config manages YAML-based configuration for the explorer server and indexer.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/CageChen/dirscope/internal/logging"
	"gopkg.in/yaml.v3"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ExportConfig controls where and how index results are written.
type ExportConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
	Pretty bool   `yaml:"pretty"`
}

// Config holds all configuration options for dirscope
type Config struct {
	// Root is where new explorer sessions start and the default index root
	Root string `yaml:"root"`

	Port    int  `yaml:"port"`
	Watch   bool `yaml:"watch"`
	Open    bool `yaml:"open"`
	Workers int  `yaml:"workers"`

	Export ExportConfig   `yaml:"export"`
	Log    logging.Config `yaml:"log"`

	// Internal: path to config file for saving
	configPath string
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Root:    ".",
		Port:    8080,
		Watch:   true,
		Open:    false,
		Workers: 1,
		Export: ExportConfig{
			Dir:    ".",
			Format: FormatJSON,
			Pretty: true,
		},
		Log: logging.Config{
			Level:  "info",
			Format: "console",
		},
	}
}

// GetConfigDir returns the config directory path
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/dirscope"
	}
	return filepath.Join(home, ".config", "dirscope")
}

// GetConfigPath returns the full path to the config file
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// Load reads configuration from configFile, or from the first of
// ~/.config/dirscope/config.yaml and ./dirscope.yaml that exists. Only an
// explicitly named file that cannot be read is an error.
func Load(configFile string) (*Config, error) {
	cfg := DefaultConfig()

	var cfgPath string
	if configFile != "" {
		cfgPath = configFile
	} else {
		globalConfig := GetConfigPath()
		if _, err := os.Stat(globalConfig); err == nil {
			cfgPath = globalConfig
		} else if _, err := os.Stat("dirscope.yaml"); err == nil {
			cfgPath = "dirscope.yaml"
		}
	}

	if cfgPath != "" {
		if err := cfg.loadFromFile(cfgPath); err != nil && configFile != "" {
			return nil, fmt.Errorf("load config %s: %w", cfgPath, err)
		}
		cfg.configPath = cfgPath
	} else {
		// Set default config path for saving
		cfg.configPath = GetConfigPath()
	}

	cfg.resolveRoot()
	return cfg, nil
}

// resolveRoot makes Root absolute.
func (c *Config) resolveRoot() {
	if c.Root == "" {
		c.Root = "."
	}
	if abs, err := filepath.Abs(c.Root); err == nil {
		c.Root = abs
	}
}

// SetRoot sets and resolves the root path.
func (c *Config) SetRoot(path string) {
	c.Root = path
	c.resolveRoot()
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	switch c.Export.Format {
	case FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("unsupported export format %q", c.Export.Format)
	}
	return nil
}

// Marshal returns the YAML form of the configuration.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Save saves the current configuration to the config file
func (c *Config) Save() error {
	// Ensure config directory exists
	configDir := filepath.Dir(c.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	return os.WriteFile(c.configPath, data, 0644)
}

// SetConfigFilePath changes where Save writes.
func (c *Config) SetConfigFilePath(path string) {
	c.configPath = path
}

// GetConfigFilePath returns the path to the config file
func (c *Config) GetConfigFilePath() string {
	return c.configPath
}
