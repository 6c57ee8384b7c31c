package model

import "time"

// Sentinel model values stored in place of a real model identifier when a
// group had no real summary generated.
const (
	ModelNone  = "none"
	ModelError = "openai_error"
)

// Outcome classifies a stored GroupSummary row.
type Outcome int

const (
	// OutcomeFresh: a real model produced the bullets; the row is final for
	// its day and is never recomputed.
	OutcomeFresh Outcome = iota
	// OutcomeEmpty: too few matched items, deterministic fallback bullets.
	OutcomeEmpty
	// OutcomeError: generation failed after retries.
	OutcomeError
)

// TopLink is one display link attached to a group summary.
type TopLink struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// GroupSummary is the stored summary for one (day, kind, value) group.
// At most one row exists per key.
type GroupSummary struct {
	Day        string
	Kind       string
	Value      string
	Bullets    []string
	TopLinks   []TopLink
	ItemsCount int
	Model      string
	CreatedAt  time.Time
}

// Outcome derives the three-state classification from the stored model value.
func (g *GroupSummary) Outcome() Outcome {
	switch g.Model {
	case ModelNone:
		return OutcomeEmpty
	case ModelError:
		return OutcomeError
	default:
		return OutcomeFresh
	}
}

// Recomputable reports whether a later pass for the same day may replace the
// row. Empty and error rows are retried; fresh rows are final.
func (g *GroupSummary) Recomputable() bool {
	return g.Outcome() != OutcomeFresh
}
