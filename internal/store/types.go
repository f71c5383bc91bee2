// Package store provides SQLite-based commit history storage for quwei.
package store

import "time"

// Source identifies what produced a committed string.
type Source string

const (
	// SourceCandidate is a character chosen from a code page.
	SourceCandidate Source = "candidate"
	// SourceRaw is the digit string committed with enter.
	SourceRaw Source = "raw"
	// SourcePunctuation is a full-width punctuation mark.
	SourcePunctuation Source = "punctuation"
	// SourceQuickPhrase is a string committed from quick phrase mode.
	SourceQuickPhrase Source = "quickphrase"
)

// Commit is one string delivered to an application.
type Commit struct {
	ID          int64
	SessionID   string
	TimestampNs int64
	Source      Source
	// Code is the sub-code of a candidate commit, or the page code of a raw
	// commit. Nil for punctuation and quick phrase commits.
	Code *int
	Text string
}

// Time returns the commit timestamp.
func (c *Commit) Time() time.Time {
	return time.Unix(0, c.TimestampNs)
}

// TextCount is an aggregated commit frequency.
type TextCount struct {
	Text  string
	Code  *int
	Count int64
}

// Stats summarises the history table.
type Stats struct {
	Commits  int64
	Sessions int64
	BySource map[Source]int64
	OldestNs int64
	NewestNs int64
}
