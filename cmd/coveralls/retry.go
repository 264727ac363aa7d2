package main

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/cicd-ai-toolkit/coveralls/pkg/coveralls"
	cerrors "github.com/cicd-ai-toolkit/coveralls/pkg/errors"
	"github.com/cicd-ai-toolkit/coveralls/pkg/observability"
)

// withRetry runs op until it succeeds, fails with a non-retryable error or
// retries attempts have been made after the first.
func (a *app) withRetry(ctx context.Context, retries int, log observability.Logger, op func() (*coveralls.Acknowledgment, error)) (*coveralls.Acknowledgment, error) {
	var ack *coveralls.Acknowledgment

	b := backoff.WithContext(backoff.WithMaxRetries(a.backOff(), uint64(retries)), ctx)
	err := backoff.RetryNotify(func() error {
		var err error
		ack, err = op()
		if err != nil && !cerrors.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		log.Warn("request failed, retrying",
			observability.Duration("wait", wait),
			observability.Err(err))
	})
	if err != nil {
		return nil, err
	}
	return ack, nil
}
