// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package coveralls

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/cicd-ai-toolkit/coveralls/pkg/errors"
)

func mustSource(t *testing.T, name string, lines ...Line) *SourceFile {
	t.Helper()
	f, err := NewSourceFile(name, lines)
	require.NoError(t, err)
	return f
}

func TestIdentityFromFields(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		service string
		jobID   string
		want    Identity
		wantErr bool
	}{
		{name: "token", token: "secret", want: RepoToken("secret")},
		{name: "service", service: "github", jobID: "42", want: ServiceIdentity{Name: "github", JobID: "42"}},
		{name: "both", token: "secret", service: "github", jobID: "42", wantErr: true},
		{name: "token and job id", token: "secret", jobID: "42", wantErr: true},
		{name: "neither", wantErr: true},
		{name: "service without job", service: "github", wantErr: true},
		{name: "job without service", jobID: "42", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := IdentityFromFields(tt.token, tt.service, tt.jobID)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, cerrors.IsType(err, cerrors.KindInvalidIdentity))
				assert.Nil(t, id)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestRepoTokenIsRedacted(t *testing.T) {
	tok := RepoToken("super-secret")
	assert.Equal(t, "[redacted]", tok.String())
}

func TestNewBuilderRejectsInvalidIdentity(t *testing.T) {
	for name, id := range map[string]Identity{
		"nil":           nil,
		"empty token":   RepoToken(""),
		"empty service": ServiceIdentity{JobID: "1"},
		"empty job":     ServiceIdentity{Name: "travis-ci"},
	} {
		t.Run(name, func(t *testing.T) {
			b, err := NewBuilder(id)
			assert.Nil(t, b)
			assert.True(t, cerrors.IsType(err, cerrors.KindInvalidIdentity), "got %v", err)
		})
	}
}

func TestAddSourceDuplicateKeepsFirst(t *testing.T) {
	b, err := NewBuilder(RepoToken("tok"))
	require.NoError(t, err)

	first := mustSource(t, "src/lib.rs", Hit(1))
	second := mustSource(t, "src/lib.rs", Hit(2), Hit(3))

	require.NoError(t, b.AddSource(first))
	err = b.AddSource(second)
	require.Error(t, err)
	assert.True(t, cerrors.IsType(err, cerrors.KindDuplicatePath))
	assert.Equal(t, 1, b.Len())

	r, err := b.Finalize()
	require.NoError(t, err)
	files := r.SourceFiles()
	require.Len(t, files, 1)
	assert.Same(t, first, files[0])
}

func TestAddSourcesIsAllOrNothing(t *testing.T) {
	b, err := NewBuilder(RepoToken("tok"))
	require.NoError(t, err)
	require.NoError(t, b.AddSource(mustSource(t, "a.go", Hit(1))))

	err = b.AddSources(mustSource(t, "b.go", Hit(1)), mustSource(t, "a.go", Hit(1)))
	assert.True(t, cerrors.IsType(err, cerrors.KindDuplicatePath))
	assert.Equal(t, 1, b.Len())

	err = b.AddSources(mustSource(t, "c.go", Hit(1)), mustSource(t, "c.go", Hit(2)))
	assert.True(t, cerrors.IsType(err, cerrors.KindDuplicatePath))
	assert.Equal(t, 1, b.Len())

	var missing *SourceFile
	err = b.AddSources(mustSource(t, "d.go", Hit(1)), missing)
	assert.True(t, cerrors.IsType(err, cerrors.KindEmptyPath))
	assert.Equal(t, 1, b.Len())

	require.NoError(t, b.AddSources(mustSource(t, "b.go", Hit(1)), mustSource(t, "c.go", Hit(0))))
	assert.Equal(t, 3, b.Len())

	r, err := b.Finalize()
	require.NoError(t, err)
	var names []string
	for _, f := range r.SourceFiles() {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"a.go", "b.go", "c.go"}, names)
}

func TestFinalizeRequiresSources(t *testing.T) {
	b, err := NewBuilder(ServiceIdentity{Name: "github", JobID: "1"})
	require.NoError(t, err)

	r, err := b.Finalize()
	assert.Nil(t, r)
	assert.True(t, cerrors.IsType(err, cerrors.KindNoSourceFiles))
}

func TestFinalizeSnapshotsBuilder(t *testing.T) {
	b, err := NewBuilder(RepoToken("tok"))
	require.NoError(t, err)
	require.NoError(t, b.AddSource(mustSource(t, "a.go", Hit(1))))

	remotes := []Remote{{Name: "origin", URL: "https://github.com/o/r.git"}}
	b.SetGit(GitMetadata{Branch: "main", Head: Commit{ID: "abc"}, Remotes: remotes})
	b.SetPullRequest("12")
	runAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	b.SetRunAt(runAt)

	r, err := b.Finalize()
	require.NoError(t, err)

	// Mutate everything the report was built from.
	remotes[0].URL = "https://evil.example/r.git"
	require.NoError(t, b.AddSource(mustSource(t, "b.go", Hit(1))))
	b.SetGit(GitMetadata{Branch: "other"})
	b.SetPullRequest("99")
	b.SetRunAt(runAt.Add(time.Hour))
	b.SetParallel(true)

	assert.Len(t, r.SourceFiles(), 1)
	g, ok := r.Git()
	require.True(t, ok)
	assert.Equal(t, "main", g.Branch)
	assert.Equal(t, "https://github.com/o/r.git", g.Remotes[0].URL)
	assert.Equal(t, "12", r.PullRequest())
	got, ok := r.RunAt()
	require.True(t, ok)
	assert.Equal(t, runAt, got)
	assert.False(t, r.Parallel())

	// Accessors hand out copies.
	g.Remotes[0].Name = "changed"
	g2, _ := r.Git()
	assert.Equal(t, "origin", g2.Remotes[0].Name)
}

func TestSettersLastCallWins(t *testing.T) {
	b, err := NewBuilder(RepoToken("tok"))
	require.NoError(t, err)
	require.NoError(t, b.AddSource(mustSource(t, "a.go", Hit(1))))

	b.SetPullRequest("1")
	b.SetPullRequest("2")
	b.SetFlagName("unit")
	b.SetFlagName("integration")
	b.SetCI(CI{Number: "7"})
	b.SetCI(CI{Number: "8", BuildURL: "https://ci.example/8"})

	r, err := b.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "2", r.PullRequest())
	assert.Equal(t, "integration", r.FlagName())
	assert.Equal(t, CI{Number: "8", BuildURL: "https://ci.example/8"}, r.CI())
	_, ok := r.Git()
	assert.False(t, ok)
	_, ok = r.RunAt()
	assert.False(t, ok)
}

func TestReportCoverage(t *testing.T) {
	b, err := NewBuilder(RepoToken("tok"))
	require.NoError(t, err)
	require.NoError(t, b.AddSources(
		mustSource(t, "a.go", NotCoverable(), Hit(1), Hit(0)),
		mustSource(t, "b.go", Hit(4), NotCoverable()),
	))
	r, err := b.Finalize()
	require.NoError(t, err)

	relevant, covered := r.Coverage()
	assert.Equal(t, 3, relevant)
	assert.Equal(t, 2, covered)
}
