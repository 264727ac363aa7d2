// Package main provides the coveralls CLI application.
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cicd-ai-toolkit/coveralls/pkg/config"
	"github.com/cicd-ai-toolkit/coveralls/pkg/coveralls"
	"github.com/cicd-ai-toolkit/coveralls/pkg/observability"
	"github.com/cicd-ai-toolkit/coveralls/pkg/platform"
)

// finishCmd represents the finish command
var finishCmd = &cobra.Command{
	Use:   "finish",
	Short: "Close a parallel build",
	Long: `Tell Coveralls that every parallel job of a build has been uploaded.

The build number defaults to the one exported by the CI service.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return newApp(cmd).finish(cmd.Context(), rootOpts, finishOpts)
	},
}

// finishFlags holds the flags for the finish command
type finishFlags struct {
	buildNumber string
	root        string
}

var finishOpts finishFlags

func init() {
	rootCmd.AddCommand(finishCmd)

	finishCmd.Flags().StringVarP(&finishOpts.buildNumber, "build-number", "b", "", "Build number to close (default from CI)")
	finishCmd.Flags().StringVar(&finishOpts.root, "root", ".", "Directory searched for .coveralls.yml")
}

func (a *app) finish(ctx context.Context, ro rootFlags, opts finishFlags) error {
	cfg, err := a.loadConfig(ro, opts.root)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := a.logger(cfg).With(observability.String("command", "finish"))
	env := platform.DetectWith(a.getenv)

	id, err := resolveIdentity(cfg, env)
	if err != nil {
		return err
	}

	build := opts.buildNumber
	if build == "" {
		build = env.Number
	}
	if build == "" {
		return &config.ValidationError{
			Field:   "build-number",
			Message: "must be set when no CI build number is available",
		}
	}

	client, err := a.client(cfg, log)
	if err != nil {
		return err
	}
	defer client.Close()

	ack, err := a.withRetry(ctx, cfg.Retries, log, func() (*coveralls.Acknowledgment, error) {
		return client.Finish(ctx, id, build)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Build %s closed: %s\n", build, ack.URL)
	return nil
}
