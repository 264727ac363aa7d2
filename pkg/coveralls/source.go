// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package coveralls

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	cerrors "github.com/cicd-ai-toolkit/coveralls/pkg/errors"
)

// Branch is the hit count of one branch of a conditional on a line.
type Branch struct {
	Line   int // 1-indexed line of the conditional
	Block  int
	Branch int
	Hits   int
}

// SourceFile is the coverage record of one source file. It is immutable
// once built by NewSourceFile.
type SourceFile struct {
	name     string
	digest   string
	coverage []Line
	branches []Branch
	source   *string
}

// SourceOption configures optional fields of a SourceFile.
type SourceOption func(*SourceFile)

// WithDigest sets the content digest the service uses to detect stale reports.
func WithDigest(digest string) SourceOption {
	return func(f *SourceFile) { f.digest = digest }
}

// WithBranches sets branch coverage tuples.
func WithBranches(branches ...Branch) SourceOption {
	return func(f *SourceFile) { f.branches = append([]Branch(nil), branches...) }
}

// WithSource embeds the full file contents. Only Coveralls Enterprise
// manual repositories read this field.
func WithSource(content string) SourceOption {
	return func(f *SourceFile) { f.source = &content }
}

// NewSourceFile validates and builds a source file record. name is the path
// relative to the repository root; coverage holds one entry per file line.
//
// The length of coverage is trusted: it is not checked against the file on
// disk, and a mismatch is not truncated or padded.
func NewSourceFile(name string, coverage []Line, opts ...SourceOption) (*SourceFile, error) {
	if name == "" {
		return nil, cerrors.Validation(cerrors.KindEmptyPath, "source file name is empty")
	}

	f := &SourceFile{
		name:     name,
		coverage: append([]Line(nil), coverage...),
	}
	for _, opt := range opts {
		opt(f)
	}

	for i, l := range f.coverage {
		if l.coverable && l.hits < 0 {
			return nil, cerrors.Validation(cerrors.KindNegativeHitCount,
				fmt.Sprintf("%s: line %d has negative hit count %d", name, i+1, l.hits)).
				WithContext("path", name).
				WithContext("line", i+1)
		}
	}

	for i, b := range f.branches {
		if err := checkBranch(b, len(f.coverage)); err != "" {
			return nil, cerrors.Validation(cerrors.KindMalformedBranch,
				fmt.Sprintf("%s: branch %d %s", name, i, err)).
				WithContext("path", name).
				WithContext("branch", i)
		}
	}

	return f, nil
}

func checkBranch(b Branch, lineCount int) string {
	switch {
	case b.Line < 1 || b.Line > lineCount:
		return fmt.Sprintf("references line %d outside 1..%d", b.Line, lineCount)
	case b.Block < 0:
		return fmt.Sprintf("has negative block id %d", b.Block)
	case b.Branch < 0:
		return fmt.Sprintf("has negative branch id %d", b.Branch)
	case b.Hits < 0:
		return fmt.Sprintf("has negative hit count %d", b.Hits)
	}
	return ""
}

// Name returns the repository-relative path.
func (f *SourceFile) Name() string { return f.name }

// Digest returns the content digest, empty when unset.
func (f *SourceFile) Digest() string { return f.digest }

// LineCount returns the number of coverage entries.
func (f *SourceFile) LineCount() int { return len(f.coverage) }

// Coverage returns a copy of the per-line coverage.
func (f *SourceFile) Coverage() []Line {
	return append([]Line(nil), f.coverage...)
}

// Branches returns a copy of the branch tuples.
func (f *SourceFile) Branches() []Branch {
	return append([]Branch(nil), f.branches...)
}

// Source returns the embedded file contents, if any.
func (f *SourceFile) Source() (string, bool) {
	if f.source == nil {
		return "", false
	}
	return *f.source, true
}

// Digest returns the hex MD5 of content, the digest format Coveralls expects
// in source_digest.
func Digest(content []byte) string {
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:])
}
