// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package coveralls

import (
	cerrors "github.com/cicd-ai-toolkit/coveralls/pkg/errors"
)

// Identity authenticates a report. It is either a RepoToken or a
// ServiceIdentity; no other implementations exist.
type Identity interface {
	isIdentity()
}

// RepoToken is the secret token of the target repository.
type RepoToken string

func (RepoToken) isIdentity() {}

// String redacts the token so it never ends up in logs.
func (RepoToken) String() string { return "[redacted]" }

// ServiceIdentity identifies a report by CI integration: a known CI
// service name and its job id.
type ServiceIdentity struct {
	Name  string
	JobID string
}

func (ServiceIdentity) isIdentity() {}

// IdentityFromFields picks the identity mode from separately configured
// values. Exactly one of token or serviceName+jobID must be set.
func IdentityFromFields(token, serviceName, jobID string) (Identity, error) {
	hasToken := token != ""
	hasService := serviceName != "" || jobID != ""

	switch {
	case hasToken && hasService:
		return nil, cerrors.Validation(cerrors.KindInvalidIdentity,
			"both repo token and service identity are set")
	case hasToken:
		return RepoToken(token), nil
	case hasService:
		id := ServiceIdentity{Name: serviceName, JobID: jobID}
		if err := validateIdentity(id); err != nil {
			return nil, err
		}
		return id, nil
	default:
		return nil, cerrors.Validation(cerrors.KindInvalidIdentity,
			"neither repo token nor service identity is set")
	}
}

func validateIdentity(id Identity) error {
	switch id := id.(type) {
	case RepoToken:
		if id == "" {
			return cerrors.Validation(cerrors.KindInvalidIdentity, "repo token is empty")
		}
	case ServiceIdentity:
		if id.Name == "" || id.JobID == "" {
			return cerrors.Validation(cerrors.KindInvalidIdentity,
				"service identity needs both service name and job id")
		}
	default:
		return cerrors.Validation(cerrors.KindInvalidIdentity, "identity is not set")
	}
	return nil
}
