// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// MaxRetries caps the number of upload retries.
const MaxRetries = 10

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}

	u, err := url.Parse(c.Endpoint)
	if c.Endpoint == "" || err != nil || u.Scheme != "https" || u.Hostname() == "" {
		return &ValidationError{
			Field:   "endpoint",
			Value:   c.Endpoint,
			Message: "must be an absolute https URL",
		}
	}

	if c.Timeout <= 0 {
		return &ValidationError{
			Field:   "timeout",
			Value:   c.Timeout,
			Message: "must be positive",
		}
	}

	if c.Retries < 0 || c.Retries > MaxRetries {
		return &ValidationError{
			Field:   "retries",
			Value:   c.Retries,
			Message: fmt.Sprintf("must be between 0 and %d", MaxRetries),
		}
	}

	if c.ServiceJobID != "" && c.ServiceName == "" {
		return &ValidationError{
			Field:   "service_name",
			Message: "must be set when service_job_id is set",
		}
	}

	if err := oneOf("log_level", c.LogLevel, validLogLevels); err != nil {
		return err
	}
	return oneOf("log_format", c.LogFormat, validLogFormats)
}

func oneOf(field, value string, valid []string) error {
	if value == "" {
		return nil
	}
	for _, v := range valid {
		if strings.EqualFold(value, v) {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(valid, ", ")),
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation error for %s: %s (got: %v)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}
