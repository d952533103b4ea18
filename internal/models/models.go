// Package models defines data structures shared across the monitor pipeline.
package models

import "time"

// Article represents one piece of newly found supplier content.
type Article struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Link    string `json:"link"`
}

// Valid reports whether the article carries enough information to be
// worth reporting: a title plus at least one of summary or link.
func (a Article) Valid() bool {
	return a.Title != "" && (a.Summary != "" || a.Link != "")
}

// ScanResult maps supplier name to the articles found for it in one scan.
// Every configured supplier has an entry; an empty slice means either
// "no new content" or "lookup failed".
type ScanResult map[string][]Article

// HasContent reports whether any supplier produced at least one article.
func (r ScanResult) HasContent() bool {
	for _, articles := range r {
		if len(articles) > 0 {
			return true
		}
	}

	return false
}

// ScanState is the sole persisted entity: the reference time of the last
// completed scan and the results it produced. A nil LastScan means no
// scan has completed yet.
type ScanState struct {
	LastScan *time.Time `json:"last_scan"`
	Results  ScanResult `json:"results"`
}

// NewScanState returns an empty state, used when no prior snapshot exists.
func NewScanState() ScanState {
	return ScanState{Results: ScanResult{}}
}
