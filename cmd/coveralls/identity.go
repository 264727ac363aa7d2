package main

import (
	"net/url"

	"github.com/cicd-ai-toolkit/coveralls/pkg/config"
	"github.com/cicd-ai-toolkit/coveralls/pkg/coveralls"
	cerrors "github.com/cicd-ai-toolkit/coveralls/pkg/errors"
	"github.com/cicd-ai-toolkit/coveralls/pkg/platform"
)

// resolveIdentity picks the repo token when one is configured, then a
// configured service, then the detected CI service.
func resolveIdentity(cfg *config.Config, env platform.Environment) (coveralls.Identity, error) {
	if cfg.RepoToken != "" {
		return coveralls.RepoToken(cfg.RepoToken), nil
	}
	if cfg.ServiceName != "" {
		jobID := cfg.ServiceJobID
		if jobID == "" {
			jobID = env.JobID
		}
		return coveralls.IdentityFromFields("", cfg.ServiceName, jobID)
	}
	if id, ok := env.Identity(); ok {
		return id, nil
	}
	return nil, cerrors.Validation(cerrors.KindInvalidIdentity,
		"no repo token configured and no CI job detected; set "+config.EnvRepoToken)
}

// webhookFor derives the parallel build webhook from the jobs endpoint, so a
// self-hosted endpoint gets a self-hosted webhook.
func webhookFor(endpoint string) string {
	if endpoint == coveralls.DefaultEndpoint {
		return coveralls.DefaultWebhookEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return coveralls.DefaultWebhookEndpoint
	}
	u.Path = "/webhook"
	u.RawQuery = ""
	return u.String()
}
