// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package coveralls

import "strconv"

// Line is the coverage of a single source line: either not coverable
// (blank line, comment, declaration) or hit a number of times. The zero
// value is NotCoverable.
type Line struct {
	hits      int
	coverable bool
}

// NotCoverable returns a line that carries no statement.
func NotCoverable() Line {
	return Line{}
}

// Hit returns a coverable line executed n times. Hit(0) is an uncovered line.
// Negative counts are rejected by NewSourceFile.
func Hit(n int) Line {
	return Line{hits: n, coverable: true}
}

// Coverable reports whether the line carries a statement.
func (l Line) Coverable() bool {
	return l.coverable
}

// Hits returns the execution count, 0 for a line that is not coverable.
func (l Line) Hits() int {
	return l.hits
}

func (l Line) String() string {
	if !l.coverable {
		return "-"
	}
	return strconv.Itoa(l.hits)
}

// MarshalJSON encodes NotCoverable as null and Hit(n) as n.
func (l Line) MarshalJSON() ([]byte, error) {
	if !l.coverable {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, int64(l.hits), 10), nil
}

// LinesFromHits builds the coverage sequence of a file with lineCount lines
// from a map of 1-indexed line number to hit count. Lines absent from the map
// are NotCoverable; entries outside 1..lineCount are ignored.
func LinesFromHits(lineCount int, hits map[int]int) []Line {
	if lineCount < 0 {
		lineCount = 0
	}
	lines := make([]Line, lineCount)
	for n, count := range hits {
		if n < 1 || n > lineCount {
			continue
		}
		lines[n-1] = Hit(count)
	}
	return lines
}
