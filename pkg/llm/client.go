package llm

import (
	"context"
	"fmt"
	"strings"
)

// Per-field caps applied to the payload sent to the summarization service.
const (
	maxTitleChars  = 220
	maxDetailChars = 320
	maxSourceChars = 60
)

const bulletsSystemPrompt = `You are a financial news editor. Given a list of news items for one ticker or topic, write short factual bullet points.

Rules:
- 2 to 5 bullets, one sentence each
- Ground every bullet strictly in the supplied titles and summaries
- Include company names, numbers, and percentages where relevant
- No speculation, no investment advice
- If there is little real news in the items, say so in a bullet instead of inventing content

Output as JSON only, no other text:
{
  "bullets": ["key fact 1", "key fact 2"]
}`

// Item is one news entry in a summarization request. URLs are deliberately
// absent; they are never sent to the service.
type Item struct {
	Title       string
	Description string
	Source      string
}

// Request identifies one group and carries its bounded item list.
type Request struct {
	Kind  string
	Value string
	Items []Item
}

// Result is a successful service call: the bullets as returned (possibly
// fewer than 2; the caller decides how to degrade) and the model that
// produced them.
type Result struct {
	Bullets []string
	Model   string
}

// Client generates bullet summaries for one group of news items.
type Client interface {
	Summarize(ctx context.Context, req Request) (*Result, error)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// formatItems builds the compact user payload: group identity plus a numbered
// item list with per-field truncation.
func formatItems(req Request) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Group: %s %s\n\n", req.Kind, req.Value))
	for i, it := range req.Items {
		sb.WriteString(fmt.Sprintf("%d. Title: %s\n", i+1, truncate(it.Title, maxTitleChars)))
		if it.Description != "" {
			sb.WriteString(fmt.Sprintf("   Summary: %s\n", truncate(it.Description, maxDetailChars)))
		}
		if it.Source != "" {
			sb.WriteString(fmt.Sprintf("   Source: %s\n", truncate(it.Source, maxSourceChars)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
