// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package platform detects the CI service a job runs on and reads the build
// metadata it exports through environment variables.
package platform

import (
	"os"
	"path"
	"strings"

	"github.com/cicd-ai-toolkit/coveralls/pkg/coveralls"
)

// Local is the service name reported when no CI service is detected.
const Local = "local"

// Environment is the build metadata of the current job.
type Environment struct {
	// Service is the Coveralls service name, or Local.
	Service     string
	JobID       string
	Number      string
	JobNumber   string
	BuildURL    string
	PullRequest string
	Branch      string
	CommitSHA   string

	// DetectedBy is the environment variable that identified the service.
	DetectedBy string
}

// IsCI reports whether a CI service was detected.
func (e Environment) IsCI() bool {
	return e.Service != Local
}

// CI returns the build metadata attached to a report.
func (e Environment) CI() coveralls.CI {
	return coveralls.CI{
		Number:    e.Number,
		JobNumber: e.JobNumber,
		BuildURL:  e.BuildURL,
		Branch:    e.Branch,
		CommitSHA: e.CommitSHA,
	}
}

// Identity returns the service identity of the job, if the service exports
// a job id.
func (e Environment) Identity() (coveralls.Identity, bool) {
	if !e.IsCI() || e.JobID == "" {
		return nil, false
	}
	return coveralls.ServiceIdentity{Name: e.Service, JobID: e.JobID}, true
}

// Getenv looks up an environment variable. os.Getenv satisfies it.
type Getenv func(key string) string

type check struct {
	service string
	varName string
	match   func(env Getenv) bool
	read    func(env Getenv) Environment
}

func isTrue(key string) func(Getenv) bool {
	return func(env Getenv) bool { return strings.EqualFold(env(key), "true") }
}

func isSet(key string) func(Getenv) bool {
	return func(env Getenv) bool { return env(key) != "" }
}

// pullRequest drops the placeholder values some services use for "not a PR".
func pullRequest(v string) string {
	if v == "false" || v == "0" {
		return ""
	}
	return v
}

func firstOf(env Getenv, keys ...string) string {
	for _, k := range keys {
		if v := env(k); v != "" {
			return v
		}
	}
	return ""
}

var checks = []check{
	{
		service: "github",
		varName: "GITHUB_ACTIONS",
		match:   isTrue("GITHUB_ACTIONS"),
		read: func(env Getenv) Environment {
			e := Environment{
				JobID:     env("GITHUB_RUN_ID"),
				Number:    env("GITHUB_RUN_NUMBER"),
				JobNumber: env("GITHUB_JOB"),
				Branch:    firstOf(env, "GITHUB_HEAD_REF", "GITHUB_REF_NAME"),
				CommitSHA: env("GITHUB_SHA"),
			}
			if server, repo := env("GITHUB_SERVER_URL"), env("GITHUB_REPOSITORY"); server != "" && repo != "" && e.JobID != "" {
				e.BuildURL = server + "/" + repo + "/actions/runs/" + e.JobID
			}
			// refs/pull/<n>/merge
			if ref := env("GITHUB_REF"); strings.HasPrefix(ref, "refs/pull/") {
				e.PullRequest = strings.SplitN(strings.TrimPrefix(ref, "refs/pull/"), "/", 2)[0]
			}
			return e
		},
	},
	{
		service: "gitlab-ci",
		varName: "GITLAB_CI",
		match:   isTrue("GITLAB_CI"),
		read: func(env Getenv) Environment {
			return Environment{
				JobID:       env("CI_JOB_ID"),
				Number:      env("CI_PIPELINE_IID"),
				JobNumber:   env("CI_JOB_NAME"),
				BuildURL:    env("CI_JOB_URL"),
				PullRequest: env("CI_MERGE_REQUEST_IID"),
				Branch:      env("CI_COMMIT_REF_NAME"),
				CommitSHA:   env("CI_COMMIT_SHA"),
			}
		},
	},
	{
		service: "jenkins",
		varName: "JENKINS_URL",
		match: func(env Getenv) bool {
			return env("JENKINS_URL") != "" || env("JENKINS_HOME") != ""
		},
		read: func(env Getenv) Environment {
			return Environment{
				JobID:       env("BUILD_ID"),
				Number:      env("BUILD_NUMBER"),
				BuildURL:    env("BUILD_URL"),
				PullRequest: env("CHANGE_ID"),
				Branch:      firstOf(env, "CHANGE_BRANCH", "BRANCH_NAME", "GIT_BRANCH"),
				CommitSHA:   env("GIT_COMMIT"),
			}
		},
	},
	{
		service: "azure-pipelines",
		varName: "TF_BUILD",
		match:   isTrue("TF_BUILD"),
		read: func(env Getenv) Environment {
			e := Environment{
				JobID:       env("BUILD_BUILDID"),
				Number:      env("BUILD_BUILDNUMBER"),
				PullRequest: env("SYSTEM_PULLREQUEST_PULLREQUESTNUMBER"),
				Branch:      firstOf(env, "SYSTEM_PULLREQUEST_SOURCEBRANCH", "BUILD_SOURCEBRANCHNAME"),
				CommitSHA:   env("BUILD_SOURCEVERSION"),
			}
			if base, project := env("SYSTEM_TEAMFOUNDATIONCOLLECTIONURI"), env("SYSTEM_TEAMPROJECT"); base != "" && project != "" {
				e.BuildURL = strings.TrimSuffix(base, "/") + "/" + project + "/_build/results?buildId=" + e.JobID
			}
			return e
		},
	},
	{
		service: "bitbucket",
		varName: "BITBUCKET_BUILD_NUMBER",
		match:   isSet("BITBUCKET_BUILD_NUMBER"),
		read: func(env Getenv) Environment {
			e := Environment{
				JobID:       env("BITBUCKET_BUILD_NUMBER"),
				Number:      env("BITBUCKET_BUILD_NUMBER"),
				PullRequest: env("BITBUCKET_PR_ID"),
				Branch:      env("BITBUCKET_BRANCH"),
				CommitSHA:   env("BITBUCKET_COMMIT"),
			}
			if origin := env("BITBUCKET_GIT_HTTP_ORIGIN"); origin != "" {
				e.BuildURL = origin + "/addon/pipelines/home#!/results/" + e.Number
			}
			return e
		},
	},
	{
		service: "circleci",
		varName: "CIRCLECI",
		match:   isTrue("CIRCLECI"),
		read: func(env Getenv) Environment {
			e := Environment{
				JobID:     env("CIRCLE_BUILD_NUM"),
				Number:    firstOf(env, "CIRCLE_WORKFLOW_ID", "CIRCLE_BUILD_NUM"),
				JobNumber: env("CIRCLE_NODE_INDEX"),
				BuildURL:  env("CIRCLE_BUILD_URL"),
				Branch:    env("CIRCLE_BRANCH"),
				CommitSHA: env("CIRCLE_SHA1"),
			}
			// https://github.com/o/r/pull/<n>
			if pr := env("CIRCLE_PULL_REQUEST"); pr != "" {
				e.PullRequest = path.Base(pr)
			}
			return e
		},
	},
	{
		service: "travis-ci",
		varName: "TRAVIS",
		match:   isTrue("TRAVIS"),
		read: func(env Getenv) Environment {
			return Environment{
				JobID:       env("TRAVIS_JOB_ID"),
				Number:      env("TRAVIS_BUILD_NUMBER"),
				JobNumber:   env("TRAVIS_JOB_NUMBER"),
				BuildURL:    env("TRAVIS_BUILD_WEB_URL"),
				PullRequest: pullRequest(env("TRAVIS_PULL_REQUEST")),
				Branch:      firstOf(env, "TRAVIS_PULL_REQUEST_BRANCH", "TRAVIS_BRANCH"),
				CommitSHA:   env("TRAVIS_COMMIT"),
			}
		},
	},
	{
		service: "drone",
		varName: "DRONE",
		match:   isTrue("DRONE"),
		read: func(env Getenv) Environment {
			return Environment{
				JobID:       env("DRONE_BUILD_NUMBER"),
				Number:      env("DRONE_BUILD_NUMBER"),
				BuildURL:    env("DRONE_BUILD_LINK"),
				PullRequest: env("DRONE_PULL_REQUEST"),
				Branch:      firstOf(env, "DRONE_SOURCE_BRANCH", "DRONE_BRANCH"),
				CommitSHA:   env("DRONE_COMMIT_SHA"),
			}
		},
	},
	{
		service: "semaphore",
		varName: "SEMAPHORE",
		match:   isTrue("SEMAPHORE"),
		read: func(env Getenv) Environment {
			e := Environment{
				JobID:       env("SEMAPHORE_JOB_ID"),
				Number:      env("SEMAPHORE_WORKFLOW_ID"),
				PullRequest: env("SEMAPHORE_GIT_PR_NUMBER"),
				Branch:      firstOf(env, "SEMAPHORE_GIT_PR_BRANCH", "SEMAPHORE_GIT_BRANCH"),
				CommitSHA:   env("SEMAPHORE_GIT_SHA"),
			}
			if org := env("SEMAPHORE_ORGANIZATION_URL"); org != "" && e.JobID != "" {
				e.BuildURL = org + "/jobs/" + e.JobID
			}
			return e
		},
	},
	{
		service: "appveyor",
		varName: "APPVEYOR",
		match:   isTrue("APPVEYOR"),
		read: func(env Getenv) Environment {
			e := Environment{
				JobID:       env("APPVEYOR_JOB_ID"),
				Number:      env("APPVEYOR_BUILD_VERSION"),
				JobNumber:   env("APPVEYOR_JOB_NUMBER"),
				PullRequest: env("APPVEYOR_PULL_REQUEST_NUMBER"),
				Branch:      firstOf(env, "APPVEYOR_PULL_REQUEST_HEAD_REPO_BRANCH", "APPVEYOR_REPO_BRANCH"),
				CommitSHA:   env("APPVEYOR_REPO_COMMIT"),
			}
			if repo := env("APPVEYOR_REPO_NAME"); repo != "" {
				e.BuildURL = "https://ci.appveyor.com/project/" + repo + "/build/" + e.Number
			}
			return e
		},
	},
	{
		service: "buildkite",
		varName: "BUILDKITE",
		match:   isTrue("BUILDKITE"),
		read: func(env Getenv) Environment {
			return Environment{
				JobID:       env("BUILDKITE_JOB_ID"),
				Number:      env("BUILDKITE_BUILD_NUMBER"),
				BuildURL:    env("BUILDKITE_BUILD_URL"),
				PullRequest: pullRequest(env("BUILDKITE_PULL_REQUEST")),
				Branch:      env("BUILDKITE_BRANCH"),
				CommitSHA:   env("BUILDKITE_COMMIT"),
			}
		},
	},
	{
		service: "codeship",
		varName: "CI_NAME",
		match: func(env Getenv) bool {
			return strings.EqualFold(env("CI_NAME"), "codeship")
		},
		read: func(env Getenv) Environment {
			return Environment{
				JobID:       env("CI_BUILD_ID"),
				Number:      env("CI_BUILD_NUMBER"),
				BuildURL:    env("CI_BUILD_URL"),
				PullRequest: pullRequest(env("CI_PR_NUMBER")),
				Branch:      env("CI_BRANCH"),
				CommitSHA:   env("CI_COMMIT_ID"),
			}
		},
	},
}

// Detect reads the process environment.
func Detect() Environment {
	return DetectWith(os.Getenv)
}

// DetectWith detects the CI service using env. The first matching service
// wins; Local is returned when none matches.
func DetectWith(env Getenv) Environment {
	for _, c := range checks {
		if !c.match(env) {
			continue
		}
		e := c.read(env)
		e.Service = c.service
		e.DetectedBy = c.varName
		return e
	}
	return Environment{Service: Local}
}

// SupportedServices returns the service names Detect can report, in
// detection order, followed by Local.
func SupportedServices() []string {
	names := make([]string, 0, len(checks)+1)
	for _, c := range checks {
		names = append(names, c.service)
	}
	return append(names, Local)
}
