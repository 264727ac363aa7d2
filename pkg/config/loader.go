// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix is the prefix for all environment variables.
	EnvPrefix = "COVERALLS"
	// ProjectConfigFile is the project-level config file name.
	ProjectConfigFile = ".coveralls.yml"
)

// Environment variables read by Load.
const (
	EnvRepoToken    = EnvPrefix + "_REPO_TOKEN"
	EnvServiceName  = EnvPrefix + "_SERVICE_NAME"
	EnvServiceJobID = EnvPrefix + "_SERVICE_JOB_ID"
	EnvEndpoint     = EnvPrefix + "_ENDPOINT"
	EnvTimeout      = EnvPrefix + "_TIMEOUT"
	EnvParallel     = EnvPrefix + "_PARALLEL"
	EnvFlagName     = EnvPrefix + "_FLAG_NAME"
	EnvRetries      = EnvPrefix + "_RETRIES"
	EnvLogLevel     = EnvPrefix + "_LOG_LEVEL"
	EnvLogFormat    = EnvPrefix + "_LOG_FORMAT"
)

// Loader loads configuration from files and environment.
type Loader struct {
	projectRoot string
	configPath  string
}

// NewLoader creates a new config loader.
func NewLoader() *Loader {
	return &Loader{}
}

// WithProjectRoot sets the directory searched for .coveralls.yml.
func (l *Loader) WithProjectRoot(root string) *Loader {
	l.projectRoot = root
	return l
}

// WithConfigPath loads the given file instead of the project config. Unlike
// the project config, it must exist.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// Load loads configuration with full precedence order:
// 1. Defaults
// 2. Project Config (./.coveralls.yml, or the explicit config path)
// 3. Environment Variables (COVERALLS_*)
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := decodeFile(l.configPath, cfg); err != nil {
			return nil, err
		}
	} else {
		root := l.projectRoot
		if root == "" {
			root = "."
		}
		// The project config is optional, but a broken one is not ignored.
		err := decodeFile(filepath.Join(root, ProjectConfigFile), cfg)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path on top of the defaults.
func (l *Loader) LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := decodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile loads KEY=value pairs from a dotenv file into the process
// environment. Variables that are already set are left alone.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	return nil
}

// decodeFile overlays the keys present in the YAML file onto cfg.
func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is from caller
	if err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	strs := []struct {
		key string
		dst *string
	}{
		{EnvRepoToken, &cfg.RepoToken},
		{EnvServiceName, &cfg.ServiceName},
		{EnvServiceJobID, &cfg.ServiceJobID},
		{EnvEndpoint, &cfg.Endpoint},
		{EnvFlagName, &cfg.FlagName},
		{EnvLogLevel, &cfg.LogLevel},
		{EnvLogFormat, &cfg.LogFormat},
	}
	for _, s := range strs {
		if v := os.Getenv(s.key); v != "" {
			*s.dst = v
		}
	}

	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &ConfigError{Field: EnvTimeout, Err: err}
		}
		cfg.Timeout = d
	}
	if v := os.Getenv(EnvParallel); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &ConfigError{Field: EnvParallel, Err: err}
		}
		cfg.Parallel = b
	}
	if v := os.Getenv(EnvRetries); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{Field: EnvRetries, Err: err}
		}
		cfg.Retries = n
	}

	return nil
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Path  string
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return "config error in " + e.Path + ": " + e.Err.Error()
	}
	if e.Field != "" {
		return "config error for " + e.Field + ": " + e.Err.Error()
	}
	return "config error: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// DetectProjectRoot walks up from dir to the first directory holding a
// .coveralls.yml or a go.mod. It returns dir when neither is found.
func DetectProjectRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for cur := abs; ; {
		for _, marker := range []string{ProjectConfigFile, "go.mod"} {
			if _, err := os.Stat(filepath.Join(cur, marker)); err == nil {
				return cur, nil
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs, nil
		}
		cur = parent
	}
}
