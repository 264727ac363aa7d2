// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package coveralls

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	cerrors "github.com/cicd-ai-toolkit/coveralls/pkg/errors"
	"github.com/cicd-ai-toolkit/coveralls/pkg/observability"
	"github.com/cicd-ai-toolkit/coveralls/pkg/version"
)

const (
	// DefaultEndpoint is the coveralls.io jobs API.
	DefaultEndpoint = "https://coveralls.io/api/v1/jobs"
	// DefaultWebhookEndpoint is the coveralls.io parallel build webhook.
	DefaultWebhookEndpoint = "https://coveralls.io/webhook"
	// DefaultTimeout bounds a single request round trip.
	DefaultTimeout = 30 * time.Second

	jsonFileField    = "json_file"
	jsonFileName     = "coveralls.json"
	maxResponseBytes = 1 << 20
)

// Acknowledgment is the service's answer to an accepted request.
type Acknowledgment struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

// Client submits reports to a Coveralls-compatible service. A Client is
// safe for concurrent use; its connection pool is shared by all calls.
type Client struct {
	endpoint        string
	webhookEndpoint string
	timeout         time.Duration
	userAgent       string
	httpClient      *http.Client
	logger          observability.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint sets the jobs API URL. It must be https.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithWebhookEndpoint sets the parallel build webhook URL. It must be https.
func WithWebhookEndpoint(endpoint string) Option {
	return func(c *Client) { c.webhookEndpoint = endpoint }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient replaces the HTTP client, and with it the connection pool.
// The client is copied; its transport and timeout are kept but redirects are
// never followed, so a 3xx answer is returned as UnexpectedResponse.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger. The default logger discards everything.
func WithLogger(l observability.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a client. The endpoints are validated here so that a
// misconfiguration never surfaces as a submission failure.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		endpoint:        DefaultEndpoint,
		webhookEndpoint: DefaultWebhookEndpoint,
		timeout:         DefaultTimeout,
		userAgent:       version.UserAgent(),
		logger:          observability.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}

	if err := validateEndpoint(c.endpoint); err != nil {
		return nil, err
	}
	if err := validateEndpoint(c.webhookEndpoint); err != nil {
		return nil, err
	}
	if c.timeout <= 0 {
		return nil, cerrors.ConfigError(fmt.Sprintf("timeout must be positive, got %s", c.timeout), nil)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		}
	} else {
		hc := *c.httpClient
		c.httpClient = &hc
	}
	c.httpClient.CheckRedirect = noRedirect
	c.logger = c.logger.With(observability.String("component", "coveralls"))

	return c, nil
}

// Endpoint returns the jobs API URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Close releases idle pooled connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Submit sends report as a single multipart upload and classifies the
// answer. It makes exactly one attempt. On success the acknowledgment is
// returned with a nil error; otherwise the error is a *errors.Error of kind
// Rejected, Transient, UnexpectedResponse, Cancelled or Encoding.
func (c *Client) Submit(ctx context.Context, report *Report) (*Acknowledgment, error) {
	if report == nil {
		return nil, cerrors.Validation(cerrors.KindNoSourceFiles, "report is nil")
	}

	s := newSubmission(c.logger.With(
		observability.String("op", "submit"),
		observability.Int("files", len(report.files))))

	payload, err := report.MarshalJSON()
	if err != nil {
		return nil, s.fail(cerrors.New(cerrors.KindEncoding, "failed to encode report", err))
	}

	body, contentType, err := multipartBody(payload)
	if err != nil {
		return nil, s.fail(cerrors.New(cerrors.KindEncoding, "failed to build multipart body", err))
	}

	return c.post(ctx, s, c.endpoint, contentType, body)
}

// Finish tells the service that all parallel jobs of buildNumber have been
// submitted so it can close the build.
func (c *Client) Finish(ctx context.Context, identity Identity, buildNumber string) (*Acknowledgment, error) {
	if err := validateIdentity(identity); err != nil {
		return nil, err
	}
	if buildNumber == "" {
		return nil, cerrors.ConfigError("build number is required to finish a parallel build", nil)
	}

	s := newSubmission(c.logger.With(
		observability.String("op", "finish"),
		observability.String("build", buildNumber)))

	form := url.Values{}
	switch id := identity.(type) {
	case RepoToken:
		form.Set("repo_token", string(id))
	case ServiceIdentity:
		form.Set("service_name", id.Name)
		form.Set("service_job_id", id.JobID)
	}
	form.Set("payload[build_num]", buildNumber)
	form.Set("payload[status]", "done")

	return c.post(ctx, s, c.webhookEndpoint, "application/x-www-form-urlencoded", []byte(form.Encode()))
}

func (c *Client) post(ctx context.Context, s *submission, endpoint, contentType string, body []byte) (*Acknowledgment, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, s.fail(cerrors.ConfigError("failed to create request", err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	s.transition(StateSending)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, s.fail(transportError(ctx, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, s.fail(transportError(ctx, err))
	}
	truncated := len(raw) > maxResponseBytes
	if truncated {
		raw = raw[:maxResponseBytes]
	}

	ack, err := classify(resp.StatusCode, raw)
	if err != nil {
		if e, ok := cerrors.As(err); ok && truncated {
			e.WithContext("truncated", true)
		}
		return nil, s.fail(err)
	}
	return s.acknowledge(ack), nil
}

// noRedirect stops the client at the first 3xx. Following one would re-send
// the report, token included, to a Location that may not be https.
func noRedirect(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

// transportError classifies a failure that happened before a complete answer
// was read. parent is the caller's context, which tells a caller
// cancellation apart from a timeout.
func transportError(parent context.Context, err error) error {
	if errors.Is(parent.Err(), context.Canceled) {
		return cerrors.Cancelled(err)
	}
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return cerrors.TimeoutError(err)
	}
	return cerrors.Transient(0, "", err)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// classify maps a complete HTTP answer to an acknowledgment or an error.
func classify(status int, raw []byte) (*Acknowledgment, error) {
	body := string(raw)

	switch {
	case status >= 200 && status < 300:
		var ack Acknowledgment
		if err := json.Unmarshal(raw, &ack); err != nil {
			return nil, cerrors.UnexpectedResponse(status, body, err)
		}
		if strings.TrimSpace(ack.URL) == "" {
			return nil, cerrors.UnexpectedResponse(status, body, nil)
		}
		return &ack, nil
	case status >= 400 && status < 500:
		return nil, cerrors.Rejected(status, body)
	case status >= 500:
		return nil, cerrors.Transient(status, body, nil)
	default:
		return nil, cerrors.UnexpectedResponse(status, body, nil)
	}
}

// multipartBody wraps payload as the single json_file part of a
// multipart/form-data body.
func multipartBody(payload []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, jsonFileField, jsonFileName))
	h.Set("Content-Type", "application/json")

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(payload); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
