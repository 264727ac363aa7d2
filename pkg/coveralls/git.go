// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package coveralls

import "time"

// GitMetadata describes the repository state a report was produced from.
// All fields are opaque to this package and never checked against a real
// repository.
type GitMetadata struct {
	Branch  string
	Head    Commit
	Remotes []Remote
}

// Commit is the HEAD commit of a GitMetadata.
type Commit struct {
	ID             string
	AuthorName     string
	AuthorEmail    string
	CommitterName  string
	CommitterEmail string
	Message        string
	CommittedAt    time.Time
}

// Remote is a named remote URL.
type Remote struct {
	Name string
	URL  string
}

func (g GitMetadata) clone() GitMetadata {
	g.Remotes = append([]Remote(nil), g.Remotes...)
	return g
}
