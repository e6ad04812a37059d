// Package config provides Viper-based configuration loading for the
// skirmish combat engine host.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// EngineConfig holds combat engine defaults.
type EngineConfig struct {
	// GridWidth and GridHeight are the default battlefield dimensions in
	// squares, used when an encounter request does not size itself.
	GridWidth  int `mapstructure:"grid_width"`
	GridHeight int `mapstructure:"grid_height"`
	// GridStep is the fine raster subdivision per square for wall geometry.
	GridStep int `mapstructure:"grid_step"`
	// DefaultSpeed is the movement allowance in feet for participants that
	// do not declare one.
	DefaultSpeed int `mapstructure:"default_speed"`
	// DistanceMode is the default ruler: "euclidean", "grid_5e", or
	// "grid_alt".
	DistanceMode string `mapstructure:"distance_mode"`
	// ConditionDir optionally overlays YAML condition definitions on the
	// builtin rules. Empty disables the overlay.
	ConditionDir string `mapstructure:"condition_dir"`
}

// ScriptingConfig holds the Lua hook sandbox settings.
type ScriptingConfig struct {
	// Dir is the directory of *.lua hook scripts. Empty disables scripting.
	Dir string `mapstructure:"dir"`
	// InstructionLimit caps Lua opcodes per hook call; 0 uses the
	// sandbox default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateEngine(c.Engine); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateScripting(c.Scripting); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateEngine(e EngineConfig) error {
	var errs []string
	if e.GridWidth < 1 {
		errs = append(errs, fmt.Sprintf("engine.grid_width must be >= 1, got %d", e.GridWidth))
	}
	if e.GridHeight < 1 {
		errs = append(errs, fmt.Sprintf("engine.grid_height must be >= 1, got %d", e.GridHeight))
	}
	if e.GridStep < 1 {
		errs = append(errs, fmt.Sprintf("engine.grid_step must be >= 1, got %d", e.GridStep))
	}
	if e.DefaultSpeed < 0 || e.DefaultSpeed%5 != 0 {
		errs = append(errs, fmt.Sprintf("engine.default_speed must be a non-negative multiple of 5, got %d", e.DefaultSpeed))
	}
	validModes := map[string]bool{"euclidean": true, "grid_5e": true, "grid_alt": true}
	if !validModes[e.DistanceMode] {
		errs = append(errs, fmt.Sprintf("engine.distance_mode must be one of [euclidean, grid_5e, grid_alt], got %q", e.DistanceMode))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateScripting(s ScriptingConfig) error {
	if s.InstructionLimit < 0 {
		return fmt.Errorf("scripting.instruction_limit must be >= 0, got %d", s.InstructionLimit)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with SKIRMISH_ prefix
	v.SetEnvPrefix("SKIRMISH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("engine.grid_width", 30)
	v.SetDefault("engine.grid_height", 30)
	v.SetDefault("engine.grid_step", 10)
	v.SetDefault("engine.default_speed", 30)
	v.SetDefault("engine.distance_mode", "euclidean")
	v.SetDefault("engine.condition_dir", "")

	v.SetDefault("scripting.dir", "")
	v.SetDefault("scripting.instruction_limit", 0)
}
