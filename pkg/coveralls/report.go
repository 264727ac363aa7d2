// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package coveralls

import (
	"fmt"
	"time"

	cerrors "github.com/cicd-ai-toolkit/coveralls/pkg/errors"
)

// CI carries optional build metadata reported next to the identity. These
// fields are descriptive and never used for authentication.
type CI struct {
	Number    string // service_number, the build number
	JobNumber string // service_job_number
	BuildURL  string // service_build_url
	Branch    string // service_branch
	CommitSHA string // commit_sha
}

// Builder assembles a report. A Builder is owned by a single goroutine.
type Builder struct {
	identity    Identity
	files       []*SourceFile
	names       map[string]struct{}
	git         *GitMetadata
	pullRequest string
	runAt       *time.Time
	ci          CI
	parallel    bool
	flagName    string
}

// NewBuilder returns an empty builder for the given identity.
func NewBuilder(identity Identity) (*Builder, error) {
	if err := validateIdentity(identity); err != nil {
		return nil, err
	}
	return &Builder{
		identity: identity,
		names:    make(map[string]struct{}),
	}, nil
}

// AddSource appends a source file. A file whose name is already present is
// rejected and the existing entry is kept.
func (b *Builder) AddSource(f *SourceFile) error {
	if f == nil {
		return cerrors.Validation(cerrors.KindEmptyPath, "source file is nil")
	}
	if _, ok := b.names[f.name]; ok {
		return duplicate(f.name)
	}
	b.names[f.name] = struct{}{}
	b.files = append(b.files, f)
	return nil
}

// AddSources appends files in order. Either all files are added or, if any
// is nil or duplicated, none are.
func (b *Builder) AddSources(files ...*SourceFile) error {
	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		if f == nil {
			return cerrors.Validation(cerrors.KindEmptyPath, "source file is nil")
		}
		if _, ok := b.names[f.name]; ok {
			return duplicate(f.name)
		}
		if _, ok := seen[f.name]; ok {
			return duplicate(f.name)
		}
		seen[f.name] = struct{}{}
	}
	for _, f := range files {
		b.names[f.name] = struct{}{}
		b.files = append(b.files, f)
	}
	return nil
}

func duplicate(name string) error {
	return cerrors.Validation(cerrors.KindDuplicatePath,
		fmt.Sprintf("duplicate source file: %s", name)).WithContext("path", name)
}

// Len returns the number of source files added so far.
func (b *Builder) Len() int { return len(b.files) }

// SetGit sets the git metadata.
func (b *Builder) SetGit(g GitMetadata) {
	g = g.clone()
	b.git = &g
}

// SetPullRequest sets the pull request id of the run. An empty id clears it.
func (b *Builder) SetPullRequest(id string) { b.pullRequest = id }

// SetRunAt sets the time the run happened.
func (b *Builder) SetRunAt(t time.Time) { b.runAt = &t }

// SetCI sets optional CI build metadata.
func (b *Builder) SetCI(ci CI) { b.ci = ci }

// SetParallel marks the job as one of several that make up a build.
func (b *Builder) SetParallel(parallel bool) { b.parallel = parallel }

// SetFlagName sets the job flag shown by the service for parallel jobs.
func (b *Builder) SetFlagName(name string) { b.flagName = name }

// Finalize snapshots the builder into an immutable Report. Later changes
// to the builder do not affect the returned report.
func (b *Builder) Finalize() (*Report, error) {
	if len(b.files) == 0 {
		return nil, cerrors.Validation(cerrors.KindNoSourceFiles, "report has no source files")
	}

	r := &Report{
		identity:    b.identity,
		files:       append([]*SourceFile(nil), b.files...),
		pullRequest: b.pullRequest,
		ci:          b.ci,
		parallel:    b.parallel,
		flagName:    b.flagName,
	}
	if b.git != nil {
		g := b.git.clone()
		r.git = &g
	}
	if b.runAt != nil {
		t := *b.runAt
		r.runAt = &t
	}
	return r, nil
}

// Report is a finalized, immutable coverage report. It is safe to share
// between goroutines.
type Report struct {
	identity    Identity
	files       []*SourceFile
	git         *GitMetadata
	pullRequest string
	runAt       *time.Time
	ci          CI
	parallel    bool
	flagName    string
}

// Identity returns the report identity.
func (r *Report) Identity() Identity { return r.identity }

// SourceFiles returns the source files in insertion order.
func (r *Report) SourceFiles() []*SourceFile {
	return append([]*SourceFile(nil), r.files...)
}

// Git returns the git metadata, if set.
func (r *Report) Git() (GitMetadata, bool) {
	if r.git == nil {
		return GitMetadata{}, false
	}
	return r.git.clone(), true
}

// PullRequest returns the pull request id, empty when unset.
func (r *Report) PullRequest() string { return r.pullRequest }

// RunAt returns the run time, if set.
func (r *Report) RunAt() (time.Time, bool) {
	if r.runAt == nil {
		return time.Time{}, false
	}
	return *r.runAt, true
}

// CI returns the CI build metadata.
func (r *Report) CI() CI { return r.ci }

// Parallel reports whether the job is part of a parallel build.
func (r *Report) Parallel() bool { return r.parallel }

// FlagName returns the job flag, empty when unset.
func (r *Report) FlagName() string { return r.flagName }

// Coverage counts the coverable lines of the report and how many of them
// were hit at least once.
func (r *Report) Coverage() (relevant, covered int) {
	for _, f := range r.files {
		for _, l := range f.coverage {
			if !l.coverable {
				continue
			}
			relevant++
			if l.hits > 0 {
				covered++
			}
		}
	}
	return relevant, covered
}
