// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the full launch configuration: logging, reserved-prefix
// routing, and the module loader graph.
type Config struct {
	// Logging configures the process logger.
	Logging LoggingConfig `yaml:"logging"`

	// System configures routing for reserved name prefixes.
	System SystemConfig `yaml:"system"`

	// Modules lists every module loader in the graph.
	Modules []ModuleConfig `yaml:"modules"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	// Empty means "info".
	Level string `yaml:"level"`
}

// SlogLevel converts the configured level name to a slog.Level.
func (c LoggingConfig) SlogLevel() (slog.Level, error) {
	switch c.Level {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", c.Level)
	}
}

// SystemConfig names the reserved prefixes and the module that serves
// them.
type SystemConfig struct {
	// Prefixes are the reserved name and path prefixes, e.g. "sys/".
	Prefixes []string `yaml:"prefixes"`

	// Authority is the name of the module whose loader serves reserved
	// names. Required when Prefixes is non-empty.
	Authority string `yaml:"authority"`
}

// ModuleConfig describes one module loader in the graph.
type ModuleConfig struct {
	// Name identifies the module within this configuration.
	Name string `yaml:"name"`

	// StoreRoot is the artifact store directory for this module.
	StoreRoot string `yaml:"store_root"`

	// PersistIndex enables writing the store's path index sidecar
	// after a directory walk.
	PersistIndex bool `yaml:"persist_index"`

	// Delegates names the modules this loader consults after its own
	// store, in order. The list is expected to already be the resolved
	// transitive set; lookups do not recurse through delegates of
	// delegates. Cycles are legal.
	Delegates []string `yaml:"delegates"`

	// ExportedPrefixes restricts which names this module exposes to
	// delegating peers. Empty exports everything.
	ExportedPrefixes []string `yaml:"exported_prefixes"`
}

// Load loads configuration from the KEEL_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if KEEL_CONFIG is not set, this
// fails.
func Load() (*Config, error) {
	configPath := os.Getenv("KEEL_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("KEEL_CONFIG environment variable not set; " +
			"set it to the path of your keel.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables
// do not override config values. The only expansion performed is ${HOME}
// and similar path variables inside store roots, for portability.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in store
// roots.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	for i := range c.Modules {
		c.Modules[i].StoreRoot = expandVars(c.Modules[i].StoreRoot, vars)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Logging.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	if len(c.Modules) == 0 {
		errs = append(errs, fmt.Errorf("no modules configured"))
	}

	byName := make(map[string]bool, len(c.Modules))
	for _, module := range c.Modules {
		if module.Name == "" {
			errs = append(errs, fmt.Errorf("module with empty name"))
			continue
		}
		if byName[module.Name] {
			errs = append(errs, fmt.Errorf("duplicate module name %q", module.Name))
			continue
		}
		byName[module.Name] = true
		if module.StoreRoot == "" {
			errs = append(errs, fmt.Errorf("module %q: store_root is required", module.Name))
		}
	}

	for _, module := range c.Modules {
		for _, delegate := range module.Delegates {
			if !byName[delegate] {
				errs = append(errs, fmt.Errorf("module %q delegates to unknown module %q", module.Name, delegate))
			}
		}
	}

	if len(c.System.Prefixes) > 0 {
		if c.System.Authority == "" {
			errs = append(errs, fmt.Errorf("system.prefixes configured without system.authority"))
		} else if !byName[c.System.Authority] {
			errs = append(errs, fmt.Errorf("system.authority %q is not a configured module", c.System.Authority))
		}
		for _, prefix := range c.System.Prefixes {
			if prefix == "" {
				errs = append(errs, fmt.Errorf("empty system prefix"))
			}
		}
	} else if c.System.Authority != "" {
		errs = append(errs, fmt.Errorf("system.authority configured without system.prefixes"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Module returns the module config with the given name, or nil.
func (c *Config) Module(moduleName string) *ModuleConfig {
	for i := range c.Modules {
		if c.Modules[i].Name == moduleName {
			return &c.Modules[i]
		}
	}
	return nil
}
