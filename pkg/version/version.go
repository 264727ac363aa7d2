// Package version holds the build stamp of the coveralls uploader.
//
// The variables are stamped with
//
//	-ldflags "-X github.com/cicd-ai-toolkit/coveralls/pkg/version.Version=v1.2.0 -X ...GitCommit=abc123"
package version

import (
	"fmt"
	"runtime"
)

const binary = "coveralls"

var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// String returns the bare version.
func String() string {
	return Version
}

// IsRelease reports whether the binary was stamped with a version.
func IsRelease() bool {
	return Version != "dev"
}

// FullString is the --version banner.
func FullString() string {
	if !IsRelease() {
		return binary + " development version"
	}
	return fmt.Sprintf("%s %s (%s)", binary, Version, GitCommit)
}

// UserAgent identifies the uploader to the coverage service.
func UserAgent() string {
	return fmt.Sprintf("%s-go/%s (%s/%s; %s)", binary, Version, runtime.GOOS, runtime.GOARCH, runtime.Version())
}

// Info returns the build stamp as printable key/value pairs.
func Info() map[string]string {
	return map[string]string{
		"version":   Version,
		"buildDate": BuildDate,
		"gitCommit": GitCommit,
		"goVersion": runtime.Version(),
		"platform":  runtime.GOOS + "/" + runtime.GOARCH,
	}
}
