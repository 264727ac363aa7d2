// Package main provides the coveralls CLI application.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cicd-ai-toolkit/coveralls/pkg/config"
	"github.com/cicd-ai-toolkit/coveralls/pkg/coveralls"
	"github.com/cicd-ai-toolkit/coveralls/pkg/gitinfo"
	"github.com/cicd-ai-toolkit/coveralls/pkg/goprofile"
	"github.com/cicd-ai-toolkit/coveralls/pkg/observability"
	"github.com/cicd-ai-toolkit/coveralls/pkg/platform"
)

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a Go coverage profile",
	Long: `Convert a Go coverage profile into a Coveralls job and upload it.

The repository is identified by COVERALLS_REPO_TOKEN when set, otherwise by
the configured service or the CI service the job runs on. Failed uploads are
retried with exponential backoff when the failure is transient.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := uploadOpts
		opts.retriesSet = cmd.Flags().Changed("retries")
		return newApp(cmd).upload(cmd.Context(), rootOpts, opts)
	},
}

// uploadFlags holds the flags for the upload command
type uploadFlags struct {
	coverprofile  string
	root          string
	dryRun        bool
	includeSource bool
	retries       int
	retriesSet    bool
}

var uploadOpts uploadFlags

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().StringVarP(&uploadOpts.coverprofile, "coverprofile", "p", "coverage.out", "Go coverage profile to upload")
	uploadCmd.Flags().StringVar(&uploadOpts.root, "root", ".", "Module root containing go.mod")
	uploadCmd.Flags().BoolVar(&uploadOpts.dryRun, "dry-run", false, "Print the job JSON instead of uploading it")
	uploadCmd.Flags().BoolVar(&uploadOpts.includeSource, "include-source", false, "Embed source file contents in the job")
	uploadCmd.Flags().IntVar(&uploadOpts.retries, "retries", 3, "Retries after a transient failure")
}

func (a *app) upload(ctx context.Context, ro rootFlags, opts uploadFlags) error {
	cfg, err := a.loadConfig(ro, opts.root)
	if err != nil {
		return err
	}
	if opts.retriesSet {
		cfg.Retries = opts.retries
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := a.logger(cfg).With(observability.String("command", "upload"))
	env := platform.DetectWith(a.getenv)
	log.Debug("detected build environment",
		observability.String("service", env.Service),
		observability.String("detected_by", env.DetectedBy))

	report, err := a.buildReport(ctx, cfg, opts, env, log)
	if err != nil {
		return err
	}

	relevant, covered := report.Coverage()
	if opts.dryRun {
		return a.printReport(report)
	}

	client, err := a.client(cfg, log)
	if err != nil {
		return err
	}
	defer client.Close()

	ack, err := a.withRetry(ctx, cfg.Retries, log, func() (*coveralls.Acknowledgment, error) {
		return client.Submit(ctx, report)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s\n", ack.Message)
	fmt.Fprintf(a.out, "Job URL: %s\n", ack.URL)
	fmt.Fprintf(a.out, "Coverage: %s (%d of %d lines)\n", percent(covered, relevant), covered, relevant)
	return nil
}

func (a *app) buildReport(ctx context.Context, cfg *config.Config, opts uploadFlags, env platform.Environment, log observability.Logger) (*coveralls.Report, error) {
	id, err := resolveIdentity(cfg, env)
	if err != nil {
		return nil, err
	}

	files, err := goprofile.Load(ctx, opts.coverprofile, goprofile.Options{
		Root:          opts.root,
		IncludeSource: opts.includeSource,
	})
	if err != nil {
		return nil, err
	}

	b, err := coveralls.NewBuilder(id)
	if err != nil {
		return nil, err
	}
	if err := b.AddSources(files...); err != nil {
		return nil, err
	}
	b.SetCI(env.CI())
	b.SetPullRequest(env.PullRequest)
	b.SetRunAt(a.now())
	b.SetParallel(cfg.Parallel)
	b.SetFlagName(cfg.FlagName)

	meta, err := gitinfo.Collect(ctx, opts.root)
	switch {
	case errors.Is(err, gitinfo.ErrNotRepository):
		log.Warn("no git repository found, uploading without git metadata")
	case err != nil:
		log.Warn("failed to read git metadata", observability.Err(err))
	default:
		// CI services check out a detached HEAD.
		if meta.Branch == "" {
			meta.Branch = env.Branch
		}
		b.SetGit(*meta)
	}

	return b.Finalize()
}

func (a *app) printReport(report *coveralls.Report) error {
	raw, err := report.MarshalJSON()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = a.out.Write(buf.Bytes())
	return err
}

func percent(covered, relevant int) string {
	if relevant == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(covered)/float64(relevant)*100)
}
