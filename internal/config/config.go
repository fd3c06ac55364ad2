// Package config manages application configuration from files and environment.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Finance struct {
		Guess         float64 `mapstructure:"guess" json:"guess"`
		MaxIterations int     `mapstructure:"max_iterations" json:"max_iterations"`
		Tolerance     float64 `mapstructure:"tolerance" json:"tolerance"`
	} `mapstructure:"finance" json:"finance"`
	Book struct {
		ReadOnly    bool `mapstructure:"read_only" json:"read_only"`
		UpdateLinks bool `mapstructure:"update_links" json:"update_links"`
	} `mapstructure:"book" json:"book"`
	Calc struct {
		Iterative     bool    `mapstructure:"iterative" json:"iterative"`
		MaxIterations int     `mapstructure:"max_iterations" json:"max_iterations"`
		MaxChange     float64 `mapstructure:"max_change" json:"max_change"`
	} `mapstructure:"calc" json:"calc"`
	Log struct {
		Level string `mapstructure:"level" json:"level"`
	} `mapstructure:"log" json:"log"`
	Output struct {
		Color     bool `mapstructure:"color" json:"color"`
		Precision int  `mapstructure:"precision" json:"precision"`
	} `mapstructure:"output" json:"output"`
}

// Defaults for every known key. ResetConfig restores these.
var defaults = map[string]any{
	"finance.guess":          0.1,
	"finance.max_iterations": 50,
	"finance.tolerance":      1.48e-8,
	"book.read_only":         true,
	"book.update_links":      false,
	"calc.iterative":         false,
	"calc.max_iterations":    100,
	"calc.max_change":        0.001,
	"log.level":              "warn",
	"output.color":           true,
	"output.precision":       6,
}

// Load reads the configuration from ~/.xlnt/config.yaml and XLNT_* environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir())

	applyDefaults()

	// XLNT_FINANCE_GUESS overrides finance.guess
	viper.SetEnvPrefix("XLNT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file (non-fatal if missing)
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Defaults returns the built-in configuration, ignoring files and environment.
func Defaults() *Config {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func applyDefaults() {
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".xlnt"
	}
	return filepath.Join(home, ".xlnt")
}

// Dir returns the directory holding the config file and shell history.
func Dir() string {
	return configDir()
}
