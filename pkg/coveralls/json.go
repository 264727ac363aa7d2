// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package coveralls

import (
	"encoding/json"
	"time"
)

// timeFormat is how Coveralls expects timestamps: RFC 3339 in UTC.
const timeFormat = "2006-01-02T15:04:05Z"

type wireReport struct {
	RepoToken    string `json:"repo_token,omitempty"`
	ServiceName  string `json:"service_name,omitempty"`
	ServiceJobID string `json:"service_job_id,omitempty"`

	ServiceNumber      string `json:"service_number,omitempty"`
	ServiceJobNumber   string `json:"service_job_number,omitempty"`
	ServiceBuildURL    string `json:"service_build_url,omitempty"`
	ServiceBranch      string `json:"service_branch,omitempty"`
	ServicePullRequest string `json:"service_pull_request,omitempty"`
	CommitSHA          string `json:"commit_sha,omitempty"`
	FlagName           string `json:"flag_name,omitempty"`
	Parallel           bool   `json:"parallel,omitempty"`
	RunAt              string `json:"run_at,omitempty"`

	Git         *wireGit     `json:"git,omitempty"`
	SourceFiles []wireSource `json:"source_files"`
}

type wireGit struct {
	Head    wireHead     `json:"head"`
	Branch  string       `json:"branch"`
	Remotes []wireRemote `json:"remotes"`
}

type wireHead struct {
	ID             string `json:"id"`
	AuthorName     string `json:"author_name"`
	AuthorEmail    string `json:"author_email"`
	CommitterName  string `json:"committer_name"`
	CommitterEmail string `json:"committer_email"`
	Message        string `json:"message"`
	CommittedAt    string `json:"committed_at,omitempty"`
}

type wireRemote struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type wireSource struct {
	Name         string  `json:"name"`
	SourceDigest string  `json:"source_digest,omitempty"`
	Coverage     []Line  `json:"coverage"`
	Branches     []int   `json:"branches,omitempty"`
	Source       *string `json:"source,omitempty"`
}

// MarshalJSON encodes the report in the Coveralls jobs API format. Only the
// fields of the report's identity mode are emitted. The output is
// deterministic for a given report.
func (r *Report) MarshalJSON() ([]byte, error) {
	w := wireReport{
		ServiceNumber:      r.ci.Number,
		ServiceJobNumber:   r.ci.JobNumber,
		ServiceBuildURL:    r.ci.BuildURL,
		ServiceBranch:      r.ci.Branch,
		ServicePullRequest: r.pullRequest,
		CommitSHA:          r.ci.CommitSHA,
		FlagName:           r.flagName,
		Parallel:           r.parallel,
		SourceFiles:        make([]wireSource, 0, len(r.files)),
	}

	switch id := r.identity.(type) {
	case RepoToken:
		w.RepoToken = string(id)
	case ServiceIdentity:
		w.ServiceName = id.Name
		w.ServiceJobID = id.JobID
	}

	if r.runAt != nil {
		w.RunAt = formatTime(*r.runAt)
	}
	if r.git != nil {
		w.Git = encodeGit(*r.git)
	}
	for _, f := range r.files {
		w.SourceFiles = append(w.SourceFiles, encodeSource(f))
	}

	return json.Marshal(w)
}

func encodeGit(g GitMetadata) *wireGit {
	out := &wireGit{
		Head: wireHead{
			ID:             g.Head.ID,
			AuthorName:     g.Head.AuthorName,
			AuthorEmail:    g.Head.AuthorEmail,
			CommitterName:  g.Head.CommitterName,
			CommitterEmail: g.Head.CommitterEmail,
			Message:        g.Head.Message,
		},
		Branch:  g.Branch,
		Remotes: make([]wireRemote, 0, len(g.Remotes)),
	}
	if !g.Head.CommittedAt.IsZero() {
		out.Head.CommittedAt = formatTime(g.Head.CommittedAt)
	}
	for _, rm := range g.Remotes {
		out.Remotes = append(out.Remotes, wireRemote{Name: rm.Name, URL: rm.URL})
	}
	return out
}

func encodeSource(f *SourceFile) wireSource {
	out := wireSource{
		Name:         f.name,
		SourceDigest: f.digest,
		Coverage:     f.coverage,
		Source:       f.source,
	}
	if out.Coverage == nil {
		out.Coverage = []Line{}
	}
	if len(f.branches) > 0 {
		out.Branches = make([]int, 0, 4*len(f.branches))
		for _, b := range f.branches {
			out.Branches = append(out.Branches, b.Line, b.Block, b.Branch, b.Hits)
		}
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}
