// Package config loads mdlink configuration from files and environment.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Global settings
	Format  string `mapstructure:"format"`
	Quiet   bool   `mapstructure:"quiet"`
	Verbose bool   `mapstructure:"verbose"`

	// Default values for commands
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

// DefaultsConfig holds default values for the attach/replay commands
type DefaultsConfig struct {
	// MATLAB invocation
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`

	// Stream parsing
	PlainPattern string `mapstructure:"plain_pattern"`
	DebugPattern string `mapstructure:"debug_pattern"`
	EchoesInput  bool   `mapstructure:"echoes_input"`

	// I/O
	BufferSize int `mapstructure:"buffer_size"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Format:  "auto",
		Quiet:   false,
		Verbose: false,
		Defaults: DefaultsConfig{
			Command:     "matlab",
			Args:        []string{"-nodesktop", "-nosplash"},
			EchoesInput: true,
			BufferSize:  4096,
		},
	}
}

// Load loads configuration from files and environment
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("mdlink")
	v.SetConfigType("yaml")

	// Config paths in order of precedence, lowest first
	v.AddConfigPath("/etc/mdlink/")
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "mdlink"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(".mdlink")
	}
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("MDLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.BindEnv("format", "MDLINK_FORMAT")
	v.BindEnv("quiet", "MDLINK_QUIET")
	v.BindEnv("verbose", "MDLINK_VERBOSE")
	v.BindEnv("defaults.command", "MDLINK_COMMAND")
	v.BindEnv("defaults.echoes_input", "MDLINK_ECHOES_INPUT")

	// Set defaults
	cfg := Default()
	v.SetDefault("format", cfg.Format)
	v.SetDefault("quiet", cfg.Quiet)
	v.SetDefault("verbose", cfg.Verbose)
	v.SetDefault("defaults.command", cfg.Defaults.Command)
	v.SetDefault("defaults.args", cfg.Defaults.Args)
	v.SetDefault("defaults.echoes_input", cfg.Defaults.EchoesInput)
	v.SetDefault("defaults.buffer_size", cfg.Defaults.BufferSize)

	// Try to read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ConfigFile returns the path to the config file that was loaded
func ConfigFile() string {
	v := viper.New()

	v.SetConfigName("mdlink")
	v.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err == nil {
		return v.ConfigFileUsed()
	}

	return ""
}
