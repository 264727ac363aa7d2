// Package main provides the coveralls CLI application.
package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"

	"github.com/cicd-ai-toolkit/coveralls/pkg/config"
	"github.com/cicd-ai-toolkit/coveralls/pkg/coveralls"
	"github.com/cicd-ai-toolkit/coveralls/pkg/observability"
	"github.com/cicd-ai-toolkit/coveralls/pkg/platform"
	"github.com/cicd-ai-toolkit/coveralls/pkg/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "coveralls",
	Short: "Upload Go coverage to Coveralls",
	Long: `coveralls converts a Go coverage profile into a Coveralls job and
uploads it, together with the git and CI metadata of the build.`,
	Version:       version.FullString(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// rootFlags holds the flags shared by all commands
type rootFlags struct {
	configPath string
	envFile    string
}

var rootOpts rootFlags

// Execute adds all child commands to the root command and runs it.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootOpts.configPath, "config", "c", "", "Path to configuration file (default is ./.coveralls.yml)")
	rootCmd.PersistentFlags().StringVar(&rootOpts.envFile, "env-file", "", "Load environment variables from a dotenv file")
}

// app carries what the commands take from the outside world.
type app struct {
	getenv     platform.Getenv
	out        io.Writer
	errOut     io.Writer
	httpClient *http.Client
	backOff    func() backoff.BackOff
	now        func() time.Time
}

func newApp(cmd *cobra.Command) *app {
	return &app{
		getenv:  os.Getenv,
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
		backOff: defaultBackOff,
		now:     time.Now,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 5 * time.Minute
	return b
}

// loadConfig reads the env file, then the config file and environment, and
// validates the result.
func (a *app) loadConfig(opts rootFlags, projectRoot string) (*config.Config, error) {
	if opts.envFile != "" {
		if err := config.LoadEnvFile(opts.envFile); err != nil {
			return nil, err
		}
	}

	loader := config.NewLoader().WithProjectRoot(projectRoot)
	if opts.configPath != "" {
		loader = loader.WithConfigPath(opts.configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *app) logger(cfg *config.Config) observability.Logger {
	return observability.NewLogger(observability.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: a.errOut,
	})
}

func (a *app) client(cfg *config.Config, log observability.Logger) (*coveralls.Client, error) {
	opts := []coveralls.Option{
		coveralls.WithEndpoint(cfg.Endpoint),
		coveralls.WithWebhookEndpoint(webhookFor(cfg.Endpoint)),
		coveralls.WithTimeout(cfg.Timeout),
		coveralls.WithLogger(log),
	}
	if a.httpClient != nil {
		opts = append(opts, coveralls.WithHTTPClient(a.httpClient))
	}
	return coveralls.NewClient(opts...)
}
