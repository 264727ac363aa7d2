// Package main provides the coveralls CLI application.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cicd-ai-toolkit/coveralls/pkg/platform"
	"github.com/cicd-ai-toolkit/coveralls/pkg/version"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display detailed version information including build date, git commit, and supported CI services.`,
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Info()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "coveralls version: %s\n", info["version"])
		fmt.Fprintf(out, "  build date: %s\n", info["buildDate"])
		fmt.Fprintf(out, "  git commit: %s\n", info["gitCommit"])
		fmt.Fprintf(out, "  go version: %s\n", info["goVersion"])
		fmt.Fprintf(out, "  platform: %s\n", info["platform"])
		fmt.Fprintf(out, "  ci services: %v\n", platform.SupportedServices())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
