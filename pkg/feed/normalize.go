package feed

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// Item is one usable entry extracted from a feed document.
type Item struct {
	Title       string
	Description string
	Link        string
	PublishedAt time.Time
}

// Normalize parses a feed document as RSS 2.0 or Atom and extracts the usable
// entries. A document matching neither shape yields an empty slice, not an
// error. Entries missing a title, a link, or a parseable timestamp are
// silently dropped; feeds routinely contain malformed entries.
func Normalize(body string) []Item {
	parsed, err := gofeed.NewParser().ParseString(body)
	if err != nil || parsed == nil {
		return nil
	}

	var items []Item
	for _, entry := range parsed.Items {
		title := strings.TrimSpace(entry.Title)
		link := strings.TrimSpace(entry.Link)
		published := entryTime(entry)
		if title == "" || link == "" || published.IsZero() {
			continue
		}
		items = append(items, Item{
			Title:       title,
			Description: stripHTML(entry.Description),
			Link:        link,
			PublishedAt: published,
		})
	}
	return items
}

// entryTime picks the best available timestamp: published, then updated.
func entryTime(entry *gofeed.Item) time.Time {
	if entry.PublishedParsed != nil {
		return *entry.PublishedParsed
	}
	if entry.UpdatedParsed != nil {
		return *entry.UpdatedParsed
	}
	return time.Time{}
}

// stripHTML flattens feed descriptions to plain text with collapsed
// whitespace. Descriptions frequently arrive as HTML fragments.
func stripHTML(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}
