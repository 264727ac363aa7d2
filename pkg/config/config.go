// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package config loads uploader settings from .coveralls.yml and the
// environment.
package config

import (
	"time"

	"github.com/cicd-ai-toolkit/coveralls/pkg/coveralls"
)

// Config is the uploader configuration.
type Config struct {
	// RepoToken authenticates the repository. It takes precedence over a
	// service identity when both are available.
	RepoToken    string `yaml:"repo_token"`
	ServiceName  string `yaml:"service_name"`
	ServiceJobID string `yaml:"service_job_id"`

	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
	Retries  int           `yaml:"retries"`

	Parallel bool   `yaml:"parallel"`
	FlagName string `yaml:"flag_name"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:  coveralls.DefaultEndpoint,
		Timeout:   coveralls.DefaultTimeout,
		Retries:   3,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// String omits the repo token.
func (c *Config) String() string {
	token := "unset"
	if c.RepoToken != "" {
		token = "set"
	}
	return "endpoint=" + c.Endpoint +
		" service=" + c.ServiceName +
		" repo_token=" + token +
		" timeout=" + c.Timeout.String()
}
