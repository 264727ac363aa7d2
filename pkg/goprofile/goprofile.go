// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package goprofile converts Go coverage profiles into coveralls source files.
package goprofile

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/tools/cover"

	"github.com/cicd-ai-toolkit/coveralls/pkg/coveralls"
)

// Options controls how profile entries are resolved to files.
type Options struct {
	// Root is the module root containing go.mod. Defaults to ".".
	Root string
	// IncludeSource embeds file contents in the report.
	IncludeSource bool
}

// Load parses the profile at profilePath and converts it.
func Load(ctx context.Context, profilePath string, opts Options) ([]*coveralls.SourceFile, error) {
	profiles, err := cover.ParseProfiles(profilePath)
	if err != nil {
		return nil, fmt.Errorf("parsing coverage profile: %w", err)
	}
	return Convert(ctx, profiles, opts)
}

// Convert builds one source file per profile, in profile order. File names
// are relative to the module root and use forward slashes. A file that
// cannot be read is an error naming the file.
func Convert(ctx context.Context, profiles []*cover.Profile, opts Options) ([]*coveralls.SourceFile, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}

	modPath, err := detectModulePath(root)
	if err != nil {
		return nil, fmt.Errorf("detecting module path: %w", err)
	}

	files := make([]*coveralls.SourceFile, 0, len(profiles))
	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := relativeName(p.FileName, modPath)
		content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name))) //nolint:gosec // path is from coverage profile
		if err != nil {
			return nil, fmt.Errorf("reading source for %s: %w", p.FileName, err)
		}

		sourceOpts := []coveralls.SourceOption{coveralls.WithDigest(coveralls.Digest(content))}
		if opts.IncludeSource {
			sourceOpts = append(sourceOpts, coveralls.WithSource(string(content)))
		}

		f, err := coveralls.NewSourceFile(name, lineCoverage(countLines(content), p.Blocks), sourceOpts...)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// relativeName maps an import-path file name to a module-relative path.
func relativeName(fileName, modPath string) string {
	if rel, ok := strings.CutPrefix(fileName, modPath+"/"); ok {
		return rel
	}
	return path.Clean(fileName)
}

func detectModulePath(root string) (string, error) {
	f, err := os.Open(filepath.Join(root, "go.mod")) //nolint:gosec // path is from root argument
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if modPath, found := strings.CutPrefix(line, "module "); found {
			return strings.Trim(strings.TrimSpace(modPath), `"`), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("module directive not found in go.mod")
}

func countLines(content []byte) int {
	n := bytes.Count(content, []byte("\n"))
	if len(content) > 0 && content[len(content)-1] != '\n' {
		n++
	}
	return n
}

// lineCoverage returns the hit count of every line: the highest count of
// any block with statements covering it. Lines outside such blocks are not
// coverable.
func lineCoverage(lineCount int, blocks []cover.ProfileBlock) []coveralls.Line {
	hits := make(map[int]int)
	for _, b := range blocks {
		if b.NumStmt == 0 {
			continue
		}
		for line := b.StartLine; line <= b.EndLine && line <= lineCount; line++ {
			if prev, ok := hits[line]; !ok || b.Count > prev {
				hits[line] = b.Count
			}
		}
	}
	return coveralls.LinesFromHits(lineCount, hits)
}
