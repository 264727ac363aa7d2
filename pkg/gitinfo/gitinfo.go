// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package gitinfo reads the git metadata of a working copy.
package gitinfo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	giturls "github.com/whilp/git-urls"

	"github.com/cicd-ai-toolkit/coveralls/pkg/coveralls"
)

// ErrNotRepository is returned when dir is not inside a git working copy.
var ErrNotRepository = errors.New("not a git repository")

// Collect reads HEAD, the current branch and the remotes of the repository
// containing dir. Parent directories are searched for the .git directory.
// The branch is empty when HEAD is detached.
func Collect(ctx context.Context, dir string) (*coveralls.GitMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%s: %w", dir, ErrNotRepository)
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit object: %w", err)
	}

	meta := &coveralls.GitMetadata{
		Head: coveralls.Commit{
			ID:             commit.Hash.String(),
			AuthorName:     commit.Author.Name,
			AuthorEmail:    commit.Author.Email,
			CommitterName:  commit.Committer.Name,
			CommitterEmail: commit.Committer.Email,
			Message:        strings.TrimRight(commit.Message, "\n"),
			CommittedAt:    commit.Committer.When,
		},
	}
	if head.Name().IsBranch() {
		meta.Branch = head.Name().Short()
	}

	remotes, err := repo.Remotes()
	if err != nil {
		return nil, fmt.Errorf("failed to list remotes: %w", err)
	}
	for _, r := range remotes {
		cfg := r.Config()
		if len(cfg.URLs) == 0 {
			continue
		}
		meta.Remotes = append(meta.Remotes, coveralls.Remote{
			Name: cfg.Name,
			URL:  SanitizeURL(cfg.URLs[0]),
		})
	}
	sort.Slice(meta.Remotes, func(i, j int) bool {
		return meta.Remotes[i].Name < meta.Remotes[j].Name
	})

	return meta, nil
}

// SanitizeURL strips credentials from http(s) remote URLs. Other URLs, and
// URLs that cannot be parsed, are returned unchanged.
func SanitizeURL(raw string) string {
	u, err := giturls.Parse(raw)
	if err != nil {
		return raw
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return raw
	}
	if u.User == nil {
		return raw
	}
	u.User = nil
	return u.String()
}
