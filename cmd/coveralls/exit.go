package main

import (
	"errors"

	"github.com/cicd-ai-toolkit/coveralls/pkg/config"
	cerrors "github.com/cicd-ai-toolkit/coveralls/pkg/errors"
)

// Exit codes
const (
	ExitSuccess     = 0 // Upload acknowledged
	ExitInfraError  = 1 // Network, service or filesystem error
	ExitConfigError = 2 // Invalid configuration or report
	ExitRejected    = 3 // Report rejected by the service
)

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var cfgErr *config.ConfigError
	var valErr *config.ValidationError
	switch {
	case cerrors.IsType(err, cerrors.KindRejected):
		return ExitRejected
	case errors.As(err, &cfgErr), errors.As(err, &valErr):
		return ExitConfigError
	case cerrors.IsValidation(err), cerrors.IsType(err, cerrors.KindConfig):
		return ExitConfigError
	default:
		return ExitInfraError
	}
}
