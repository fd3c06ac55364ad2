package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// ConfigIssue represents a validation finding.
type ConfigIssue struct {
	Key      string `json:"key"`
	Severity string `json:"severity"` // "error", "warning"
	Message  string `json:"message"`
	Fix      string `json:"fix,omitempty"`
}

// Validate checks config values and returns a list of issues.
func Validate() []ConfigIssue {
	var issues []ConfigIssue

	if g := viper.GetFloat64("finance.guess"); g <= -1 {
		issues = append(issues, ConfigIssue{
			Key:      "finance.guess",
			Severity: "error",
			Message:  fmt.Sprintf("guess %v must be greater than -1", g),
			Fix:      "xlnt config set finance.guess 0.1",
		})
	}
	if n := viper.GetInt("finance.max_iterations"); n <= 0 {
		issues = append(issues, ConfigIssue{
			Key:      "finance.max_iterations",
			Severity: "error",
			Message:  fmt.Sprintf("max_iterations %d must be positive", n),
			Fix:      "xlnt config set finance.max_iterations 50",
		})
	}
	if tol := viper.GetFloat64("finance.tolerance"); tol <= 0 {
		issues = append(issues, ConfigIssue{
			Key:      "finance.tolerance",
			Severity: "error",
			Message:  fmt.Sprintf("tolerance %v must be positive", tol),
			Fix:      "xlnt config set finance.tolerance 1.48e-8",
		})
	} else if tol > 1e-4 {
		issues = append(issues, ConfigIssue{
			Key:      "finance.tolerance",
			Severity: "warning",
			Message:  fmt.Sprintf("tolerance %v is coarse — rates are only accurate to that step", tol),
		})
	}
	if n := viper.GetInt("calc.max_iterations"); n <= 0 || n > 32767 {
		issues = append(issues, ConfigIssue{
			Key:      "calc.max_iterations",
			Severity: "error",
			Message:  fmt.Sprintf("max_iterations %d must be between 1 and 32767", n),
			Fix:      "xlnt config set calc.max_iterations 100",
		})
	}
	if c := viper.GetFloat64("calc.max_change"); c <= 0 {
		issues = append(issues, ConfigIssue{
			Key:      "calc.max_change",
			Severity: "error",
			Message:  fmt.Sprintf("max_change %v must be positive", c),
			Fix:      "xlnt config set calc.max_change 0.001",
		})
	}
	if p := viper.GetInt("output.precision"); p < 0 || p > 15 {
		issues = append(issues, ConfigIssue{
			Key:      "output.precision",
			Severity: "error",
			Message:  fmt.Sprintf("precision %d must be between 0 and 15", p),
			Fix:      "xlnt config set output.precision 6",
		})
	}
	if lvl := viper.GetString("log.level"); lvl != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(lvl)); err != nil {
			issues = append(issues, ConfigIssue{
				Key:      "log.level",
				Severity: "warning",
				Message:  fmt.Sprintf("unknown log level %q, falling back to info", lvl),
				Fix:      "xlnt config set log.level warn",
			})
		}
	}

	return issues
}

// ToEnv returns all known config values as a map of env var name -> value.
func ToEnv() map[string]string {
	env := make(map[string]string)
	for key := range defaults {
		if v := viper.GetString(key); v != "" {
			env["XLNT_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))] = v
		}
	}
	return env
}

// Setting describes one known configuration key.
type Setting struct {
	Key         string `json:"key"`
	Default     any    `json:"default"`
	Description string `json:"description"`
}

var descriptions = map[string]string{
	"finance.guess":          "XIRR starting rate",
	"finance.max_iterations": "XIRR iteration limit before giving up",
	"finance.tolerance":      "XIRR step size that counts as converged",
	"book.read_only":         "open workbooks read-only; copy-sheet then needs --output",
	"book.update_links":      "refresh linked values when a workbook is opened",
	"calc.iterative":         "allow circular references in book calc and watch",
	"calc.max_iterations":    "iteration limit for circular references",
	"calc.max_change":        "largest change between iterations",
	"log.level":              "debug, info, warn or error",
	"output.color":           "ANSI colors in terminal output",
	"output.precision":       "decimal places for printed results",
}

// Keys returns every known setting sorted by key.
func Keys() []Setting {
	out := make([]Setting, 0, len(defaults))
	for k, v := range defaults {
		out = append(out, Setting{Key: k, Default: v, Description: descriptions[k]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Known reports whether key is a setting xlnt reads.
func Known(key string) bool {
	_, ok := defaults[key]
	return ok
}

// Set parses value as the type of the key's default, stores it and saves
// the config file.
func Set(key, value string) error {
	def, ok := defaults[key]
	if !ok {
		return fmt.Errorf("unknown config key %q — run 'xlnt config keys' for the list of keys", key)
	}
	var (
		v   any
		err error
	)
	switch def.(type) {
	case bool:
		v, err = strconv.ParseBool(value)
	case int:
		v, err = strconv.Atoi(value)
	case float64:
		v, err = strconv.ParseFloat(value, 64)
	default:
		v = value
	}
	if err != nil {
		return fmt.Errorf("invalid value %q for %s — expected a %T like %v", value, key, def, def)
	}
	viper.Set(key, v)
	return SaveConfig()
}

// Get retrieves a config value.
func Get(key string) string {
	return viper.GetString(key)
}

// ResetConfig deletes the config file and restores defaults.
func ResetConfig() error {
	path := ConfigPath()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete config: %w", err)
	}
	for k, v := range defaults {
		viper.Set(k, v)
	}
	return nil
}

// SaveConfig writes the current config to ~/.xlnt/config.yaml.
func SaveConfig() error {
	dir := configDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}

	os.Chmod(path, 0600)
	return nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// ShowConfig returns a formatted string of the current configuration,
// grouped by section.
func ShowConfig() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Config: %s\n", ConfigPath()))

	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	section := ""
	for _, key := range keys {
		group, name, _ := strings.Cut(key, ".")
		if group != section {
			section = group
			sb.WriteString("\n" + group + "\n")
		}
		sb.WriteString(fmt.Sprintf("  %-16s %s\n", name+":", viper.GetString(key)))
	}

	return sb.String()
}
