package feed

import "time"

// Item is one collected entry: an article, repo, post or paper. Sources fill
// the common fields they have and stash anything source-specific in Extra.
type Item struct {
	Title       string            `json:"title"`
	URL         string            `json:"url"`
	Description string            `json:"description,omitempty"`
	Author      string            `json:"author,omitempty"`
	Score       int               `json:"score,omitempty"`    // upvotes, stars, points
	Comments    int               `json:"comments,omitempty"` // discussion size
	PublishedAt time.Time         `json:"published_at,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`

	// Filled during curation, not by sources.
	Source    string  `json:"source,omitempty"`
	Relevance float64 `json:"relevance,omitempty"`
	TimesSeen int     `json:"times_seen,omitempty"`
}

// HasDescription reports whether any descriptive text is populated.
func (it Item) HasDescription() bool {
	return it.Description != ""
}

// FetchResult is the outcome of querying one source. Items and Err are not
// mutually exclusive only in theory: a failed fetch carries an empty item
// list, and a source may legitimately return neither.
type FetchResult struct {
	Source    string    `json:"source"`
	Items     []Item    `json:"items"`
	FetchedAt time.Time `json:"fetched_at"`
	Err       string    `json:"error,omitempty"`
}
