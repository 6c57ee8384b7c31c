package model

import (
	"strings"
	"time"
)

const (
	KindTicker = "ticker"
	KindTopic  = "topic"
	KindExtra  = "extra"
)

// FeedQuery describes one feed to pull during a pass. Queries are derived from
// user preferences plus the feed catalog and stay fixed for the invocation.
type FeedQuery struct {
	Kind       string
	Value      string
	FeedURL    string
	SourceName string
}

// NewsItem is one normalized, matched feed entry. Immutable once produced;
// identity is CanonicalURL (fallback: source+title when the URL is empty).
type NewsItem struct {
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	URL            string    `json:"url"`
	CanonicalURL   string    `json:"canonical_url"`
	PublishedAt    time.Time `json:"published_at"`
	SourceName     string    `json:"source"`
	MatchedTickers []string  `json:"matched_tickers,omitempty"`
	MatchedTopics  []string  `json:"matched_topics,omitempty"`
	Fingerprint    string    `json:"fingerprint"`
}

// MatchCount is the number of tickers plus topics the item satisfies.
func (n NewsItem) MatchCount() int {
	return len(n.MatchedTickers) + len(n.MatchedTopics)
}

// DedupKey is the merge identity: canonical URL, or source+title lowercased
// when the feed entry carried no usable link.
func (n NewsItem) DedupKey() string {
	if n.CanonicalURL != "" {
		return n.CanonicalURL
	}
	return loweredFallbackKey(n.SourceName, n.Title)
}

func loweredFallbackKey(source, title string) string {
	return strings.ToLower(source + "|" + title)
}

// RunStats are the running counters carried in the day's checkpoint row.
type RunStats struct {
	FetchedTotal  int            `json:"fetched_total"`
	UniqueCount   int            `json:"unique_count"`
	InsertedCount int            `json:"inserted_count"`
	QueryCounts   map[string]int `json:"query_counts,omitempty"`
}

// Add folds one invocation's counters into the accumulated stats.
func (s *RunStats) Add(other RunStats) {
	s.FetchedTotal += other.FetchedTotal
	s.InsertedCount += other.InsertedCount
	s.UniqueCount = other.UniqueCount
	for k, v := range other.QueryCounts {
		if s.QueryCounts == nil {
			s.QueryCounts = make(map[string]int)
		}
		s.QueryCounts[k] += v
	}
}

// Preferences is the user's configured watch list. Read-only to the pipeline.
type Preferences struct {
	Tickers []string
	Topics  []string
}
