package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cicd-ai-toolkit/coveralls/pkg/config"
	"github.com/cicd-ai-toolkit/coveralls/pkg/coveralls"
	cerrors "github.com/cicd-ai-toolkit/coveralls/pkg/errors"
	"github.com/cicd-ai-toolkit/coveralls/pkg/platform"
)

var fixedNow = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

func clearCoverallsEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		config.EnvRepoToken, config.EnvServiceName, config.EnvServiceJobID,
		config.EnvEndpoint, config.EnvTimeout, config.EnvParallel,
		config.EnvFlagName, config.EnvRetries, config.EnvLogLevel, config.EnvLogFormat,
	} {
		t.Setenv(k, "")
	}
}

func testApp(env map[string]string) (*app, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &app{
		getenv:  func(k string) string { return env[k] },
		out:     &out,
		errOut:  &errOut,
		backOff: func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) },
		now:     func() time.Time { return fixedNow },
	}, &out, &errOut
}

// writeModule lays out a one-file module with a matching profile.
func writeModule(t *testing.T) uploadFlags {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"go.mod":       "module example.com/demo\n",
		"calc.go":      "package demo\n\nfunc Add(a, b int) int {\n\treturn a + b\n}\n",
		"coverage.out": "mode: count\nexample.com/demo/calc.go:3.25,5.2 1 2\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}
	return uploadFlags{
		coverprofile: filepath.Join(root, "coverage.out"),
		root:         root,
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"rejected", cerrors.Rejected(422, "bad token"), ExitRejected},
		{"wrapped rejected", fmt.Errorf("upload: %w", cerrors.Rejected(401, "")), ExitRejected},
		{"transient", cerrors.Transient(503, "", nil), ExitInfraError},
		{"timeout", cerrors.TimeoutError(context.DeadlineExceeded), ExitInfraError},
		{"cancelled", cerrors.Cancelled(context.Canceled), ExitInfraError},
		{"validation", cerrors.Validation(cerrors.KindDuplicatePath, "dup"), ExitConfigError},
		{"client config", cerrors.ConfigError("endpoint must use https", nil), ExitConfigError},
		{"config file", &config.ConfigError{Path: "x", Err: io.EOF}, ExitConfigError},
		{"config value", &config.ValidationError{Field: "timeout"}, ExitConfigError},
		{"plain", io.ErrUnexpectedEOF, ExitInfraError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestWebhookFor(t *testing.T) {
	assert.Equal(t, coveralls.DefaultWebhookEndpoint, webhookFor(coveralls.DefaultEndpoint))
	assert.Equal(t, "https://coveralls.example.com/webhook", webhookFor("https://coveralls.example.com/api/v1/jobs?x=1"))
	assert.Equal(t, "https://127.0.0.1:8443/webhook", webhookFor("https://127.0.0.1:8443/api/v1/jobs"))
}

func TestResolveIdentity(t *testing.T) {
	travis := platform.Environment{Service: "travis-ci", JobID: "99"}

	tests := []struct {
		name    string
		cfg     config.Config
		env     platform.Environment
		want    coveralls.Identity
		wantErr bool
	}{
		{"token wins", config.Config{RepoToken: "tok", ServiceName: "x"}, travis, coveralls.RepoToken("tok"), false},
		{"configured service", config.Config{ServiceName: "travis-pro", ServiceJobID: "7"}, travis, coveralls.ServiceIdentity{Name: "travis-pro", JobID: "7"}, false},
		{"configured service uses ci job id", config.Config{ServiceName: "travis-pro"}, travis, coveralls.ServiceIdentity{Name: "travis-pro", JobID: "99"}, false},
		{"detected service", config.Config{}, travis, coveralls.ServiceIdentity{Name: "travis-ci", JobID: "99"}, false},
		{"nothing", config.Config{}, platform.Environment{Service: platform.Local}, nil, true},
		{"service without job", config.Config{ServiceName: "custom"}, platform.Environment{Service: platform.Local}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			id, err := resolveIdentity(&cfg, tt.env)
			if tt.wantErr {
				assert.True(t, cerrors.IsType(err, cerrors.KindInvalidIdentity), "got %v", err)
				assert.Equal(t, ExitConfigError, exitCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestUploadDryRun(t *testing.T) {
	clearCoverallsEnv(t)
	opts := writeModule(t)
	opts.dryRun = true

	a, out, _ := testApp(map[string]string{
		"TRAVIS":              "true",
		"TRAVIS_JOB_ID":       "4242",
		"TRAVIS_BUILD_NUMBER": "17",
		"TRAVIS_PULL_REQUEST": "8",
		"TRAVIS_BRANCH":       "main",
	})

	require.NoError(t, a.upload(context.Background(), rootFlags{}, opts))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "travis-ci", doc["service_name"])
	assert.Equal(t, "4242", doc["service_job_id"])
	assert.Equal(t, "17", doc["service_number"])
	assert.Equal(t, "8", doc["service_pull_request"])
	assert.Equal(t, "2026-07-01T12:00:00Z", doc["run_at"])
	assert.NotContains(t, doc, "repo_token")
	assert.NotContains(t, doc, "git", "temp dir is not a git repository")

	files := doc["source_files"].([]interface{})
	require.Len(t, files, 1)
	file := files[0].(map[string]interface{})
	assert.Equal(t, "calc.go", file["name"])
	assert.Equal(t, []interface{}{nil, nil, 2.0, 2.0, 2.0}, file["coverage"])
}

func TestUploadWithoutIdentity(t *testing.T) {
	clearCoverallsEnv(t)
	opts := writeModule(t)
	opts.dryRun = true

	a, _, _ := testApp(nil)
	err := a.upload(context.Background(), rootFlags{}, opts)
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestUploadMissingProfile(t *testing.T) {
	clearCoverallsEnv(t)
	t.Setenv(config.EnvRepoToken, "tok")
	opts := writeModule(t)
	opts.coverprofile = filepath.Join(opts.root, "missing.out")

	a, _, _ := testApp(nil)
	err := a.upload(context.Background(), rootFlags{}, opts)
	assert.ErrorContains(t, err, "parsing coverage profile")
	assert.Equal(t, ExitInfraError, exitCode(err))
}

type fakeService struct {
	server *httptest.Server
	calls  atomic.Int32
	last   atomic.Value
}

// newFakeService answers with statuses in order, repeating the last one.
func newFakeService(t *testing.T, statuses ...int) *fakeService {
	t.Helper()
	f := &fakeService{}
	f.server = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(f.calls.Add(1))
		status := statuses[len(statuses)-1]
		if n <= len(statuses) {
			status = statuses[n-1]
		}

		if file, _, err := r.FormFile("json_file"); err == nil {
			data, _ := io.ReadAll(file)
			f.last.Store(string(data))
		} else if r.URL.Path == "/webhook" {
			f.last.Store(r.PostFormValue("payload[build_num]"))
		}

		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = io.WriteString(w, `{"message":"Job ##17.1","url":"https://coveralls.io/jobs/1"}`)
			return
		}
		_, _ = io.WriteString(w, `{"error":"nope"}`)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeService) use(t *testing.T, a *app) {
	t.Setenv(config.EnvEndpoint, f.server.URL+"/api/v1/jobs")
	a.httpClient = f.server.Client()
}

func TestUploadSubmits(t *testing.T) {
	clearCoverallsEnv(t)
	t.Setenv(config.EnvRepoToken, "tok")
	svc := newFakeService(t, http.StatusOK)

	a, out, errOut := testApp(nil)
	svc.use(t, a)

	require.NoError(t, a.upload(context.Background(), rootFlags{}, writeModule(t)))

	assert.Equal(t, int32(1), svc.calls.Load())
	assert.Contains(t, svc.last.Load(), `"repo_token":"tok"`)
	assert.Contains(t, out.String(), "https://coveralls.io/jobs/1")
	assert.Contains(t, out.String(), "Coverage: 100.0% (3 of 3 lines)")
	assert.NotContains(t, errOut.String(), "tok\"")
}

func TestUploadRetriesTransientFailures(t *testing.T) {
	clearCoverallsEnv(t)
	t.Setenv(config.EnvRepoToken, "tok")
	svc := newFakeService(t, http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusOK)

	a, _, errOut := testApp(nil)
	svc.use(t, a)

	require.NoError(t, a.upload(context.Background(), rootFlags{}, writeModule(t)))
	assert.Equal(t, int32(3), svc.calls.Load())
	assert.Contains(t, errOut.String(), "retrying")
}

func TestUploadGivesUpAfterRetries(t *testing.T) {
	clearCoverallsEnv(t)
	t.Setenv(config.EnvRepoToken, "tok")
	svc := newFakeService(t, http.StatusInternalServerError)

	a, _, _ := testApp(nil)
	svc.use(t, a)

	opts := writeModule(t)
	opts.retries, opts.retriesSet = 2, true

	err := a.upload(context.Background(), rootFlags{}, opts)
	assert.True(t, cerrors.IsRetryable(err), "got %v", err)
	assert.Equal(t, ExitInfraError, exitCode(err))
	assert.Equal(t, int32(3), svc.calls.Load())
}

func TestUploadRejectedIsNotRetried(t *testing.T) {
	clearCoverallsEnv(t)
	t.Setenv(config.EnvRepoToken, "tok")
	svc := newFakeService(t, http.StatusUnprocessableEntity)

	a, _, _ := testApp(nil)
	svc.use(t, a)

	err := a.upload(context.Background(), rootFlags{}, writeModule(t))
	assert.Equal(t, ExitRejected, exitCode(err))
	assert.Equal(t, int32(1), svc.calls.Load())
}

func TestUploadConfigFromFlags(t *testing.T) {
	clearCoverallsEnv(t)
	opts := writeModule(t)
	opts.dryRun = true

	configPath := filepath.Join(t.TempDir(), "coveralls.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("flag_name: unit\nparallel: true\n"), 0o644))
	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte(config.EnvRepoToken+"=from-dotenv\n"), 0o644))
	// godotenv does not override variables that are already present.
	require.NoError(t, os.Unsetenv(config.EnvRepoToken))
	t.Cleanup(func() { _ = os.Unsetenv(config.EnvRepoToken) })

	a, out, _ := testApp(nil)
	require.NoError(t, a.upload(context.Background(), rootFlags{configPath: configPath, envFile: envPath}, opts))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "from-dotenv", doc["repo_token"])
	assert.Equal(t, "unit", doc["flag_name"])
	assert.Equal(t, true, doc["parallel"])
}

func TestFinish(t *testing.T) {
	clearCoverallsEnv(t)
	t.Setenv(config.EnvRepoToken, "tok")
	svc := newFakeService(t, http.StatusOK)

	a, out, _ := testApp(map[string]string{"GITHUB_ACTIONS": "true", "GITHUB_RUN_ID": "1", "GITHUB_RUN_NUMBER": "17"})
	svc.use(t, a)

	require.NoError(t, a.finish(context.Background(), rootFlags{}, finishFlags{root: t.TempDir()}))
	assert.Equal(t, "17", svc.last.Load())
	assert.Contains(t, out.String(), "Build 17 closed")
}

func TestFinishNeedsBuildNumber(t *testing.T) {
	clearCoverallsEnv(t)
	t.Setenv(config.EnvRepoToken, "tok")

	a, _, _ := testApp(nil)
	err := a.finish(context.Background(), rootFlags{}, finishFlags{root: t.TempDir()})
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, Execute(context.Background()))
	assert.Contains(t, out.String(), "coveralls version:")
	assert.Contains(t, out.String(), "travis-ci")
}
