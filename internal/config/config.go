package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DataPath      string        `yaml:"data_path" mapstructure:"data_path"`
	Backend       string        `yaml:"backend" mapstructure:"backend"`
	CheckInterval time.Duration `yaml:"check_interval" mapstructure:"check_interval"`
	PersistOnFire bool          `yaml:"persist_on_fire" mapstructure:"persist_on_fire"`
	Alert         AlertConfig   `yaml:"alert" mapstructure:"alert"`
	Log           LogConfig     `yaml:"log" mapstructure:"log"`
	Theme         string        `yaml:"theme" mapstructure:"theme"`

	// Source is the file that was read; empty when only defaults and
	// environment applied.
	Source string `yaml:"-" mapstructure:"-"`
}

type AlertConfig struct {
	Mode     string        `yaml:"mode" mapstructure:"mode"`
	Command  string        `yaml:"command" mapstructure:"command"`
	Duration time.Duration `yaml:"duration" mapstructure:"duration"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	File   string `yaml:"file" mapstructure:"file"`
}

var envVarRe = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)

func expandEnv(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimPrefix(match, "$")
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

// Dir is the per-user directory for config, data and logs.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "medremind")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "medremind")
}

func DefaultConfig() *Config {
	dir := Dir()
	return &Config{
		DataPath:      filepath.Join(dir, "medications.json"),
		Backend:       "json",
		CheckInterval: time.Minute,
		PersistOnFire: true,
		Alert: AlertConfig{
			Mode:     "command",
			Command:  "speaker-test -t sine -f 1000",
			Duration: time.Second,
			Timeout:  5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   filepath.Join(dir, "medremind.log"),
		},
		Theme: "green",
	}
}

// Path is the config file location that `doctor` reports.
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads config.yaml from the working directory or the user config
// directory (or explicitly from file when set), then applies MEDREMIND_*
// environment overrides.
func Load(file string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()
	setDefaults(v, cfg)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(Dir())
	}

	v.SetEnvPrefix("MEDREMIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error produced
			return nil, err
		}
		// Config file not found; ignore and use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	cfg.Source = v.ConfigFileUsed()
	cfg.DataPath = expandEnv(cfg.DataPath)
	cfg.Log.File = expandEnv(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("data_path", cfg.DataPath)
	v.SetDefault("backend", cfg.Backend)
	v.SetDefault("check_interval", cfg.CheckInterval)
	v.SetDefault("persist_on_fire", cfg.PersistOnFire)
	v.SetDefault("alert.mode", cfg.Alert.Mode)
	v.SetDefault("alert.command", cfg.Alert.Command)
	v.SetDefault("alert.duration", cfg.Alert.Duration)
	v.SetDefault("alert.timeout", cfg.Alert.Timeout)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("theme", cfg.Theme)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.DataPath == "" {
		return fmt.Errorf("config: data_path is required")
	}
	validBackends := map[string]bool{"json": true, "yaml": true, "text": true, "bolt": true}
	if !validBackends[c.Backend] {
		return fmt.Errorf("config: invalid backend %q (must be json, yaml, text, or bolt)", c.Backend)
	}
	validModes := map[string]bool{"command": true, "bell": true, "silent": true}
	if !validModes[c.Alert.Mode] {
		return fmt.Errorf("config: invalid alert.mode %q (must be command, bell, or silent)", c.Alert.Mode)
	}
	if c.Alert.Mode == "command" && strings.TrimSpace(c.Alert.Command) == "" {
		return fmt.Errorf("config: alert.mode command requires alert.command")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: invalid log.format %q (must be text or json)", c.Log.Format)
	}
	switch {
	case c.CheckInterval == 0:
		c.CheckInterval = time.Minute
	case c.CheckInterval < time.Second:
		return fmt.Errorf("config: check_interval %s is too short (minimum 1s)", c.CheckInterval)
	}
	if c.Alert.Duration <= 0 {
		c.Alert.Duration = time.Second
	}
	return nil
}
