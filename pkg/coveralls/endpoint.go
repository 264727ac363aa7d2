// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package coveralls

import (
	"fmt"
	"net/url"

	cerrors "github.com/cicd-ai-toolkit/coveralls/pkg/errors"
)

// validateEndpoint accepts only absolute https URLs with a host and no
// embedded credentials.
func validateEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return cerrors.ConfigError(fmt.Sprintf("invalid endpoint URL: %s", raw), err)
	}

	if u.Scheme != "https" {
		return cerrors.ConfigError(fmt.Sprintf("endpoint must use https: %s", raw), nil)
	}

	if u.Hostname() == "" {
		return cerrors.ConfigError(fmt.Sprintf("endpoint URL has no hostname: %s", raw), nil)
	}

	// Credentials belong in the request body, never in the URL.
	if u.User != nil {
		return cerrors.ConfigError("endpoint URL must not embed credentials", nil)
	}

	return nil
}
