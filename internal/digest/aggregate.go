package digest

import (
	"sort"

	"github.com/Yev-ux/newsggl/internal/model"
)

// Defaults bounding what one group sends to the summarization service.
const (
	DefaultMaxGroupItems = 30
	DefaultCharBudget    = 14000
	maxTopLinks          = 5
)

// Group is the accumulated items matching one configured ticker or topic,
// newest first.
type Group struct {
	Kind  string
	Value string
	Items []model.NewsItem
}

// BuildGroups partitions the accumulation by every configured (kind, value)
// pair. Pairs with no matching items still get a group; the generator records
// a "none" row for them.
func BuildGroups(prefs model.Preferences, items []model.NewsItem) []Group {
	groups := make([]Group, 0, len(prefs.Tickers)+len(prefs.Topics))
	for _, t := range sortedCopy(prefs.Tickers) {
		groups = append(groups, Group{
			Kind:  model.KindTicker,
			Value: t,
			Items: filterByMatch(items, t, true),
		})
	}
	for _, t := range sortedCopy(prefs.Topics) {
		groups = append(groups, Group{
			Kind:  model.KindTopic,
			Value: t,
			Items: filterByMatch(items, t, false),
		})
	}
	return groups
}

func filterByMatch(items []model.NewsItem, value string, ticker bool) []model.NewsItem {
	var out []model.NewsItem
	for _, it := range items {
		matched := it.MatchedTopics
		if ticker {
			matched = it.MatchedTickers
		}
		for _, m := range matched {
			if m == value {
				out = append(out, it)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return out
}

// SelectForPrompt takes the prefix of a group's items bounded both by item
// count and by a character budget over title+description, keeping the request
// to the summarization service small.
func SelectForPrompt(items []model.NewsItem, maxCount, charBudget int) []model.NewsItem {
	if maxCount <= 0 {
		maxCount = DefaultMaxGroupItems
	}
	if charBudget <= 0 {
		charBudget = DefaultCharBudget
	}

	var prefix []model.NewsItem
	used := 0
	for _, it := range items {
		if len(prefix) >= maxCount {
			break
		}
		cost := len(it.Title) + len(it.Description)
		// The first item always ships even when it alone exceeds the budget;
		// per-field truncation bounds the request before it goes out.
		if used+cost > charBudget && len(prefix) > 0 {
			break
		}
		used += cost
		prefix = append(prefix, it)
	}
	return prefix
}

// TopLinks derives the display links for a group. These are kept regardless
// of whether generation succeeds.
func TopLinks(items []model.NewsItem) []model.TopLink {
	n := len(items)
	if n > maxTopLinks {
		n = maxTopLinks
	}
	links := make([]model.TopLink, 0, n)
	for _, it := range items[:n] {
		links = append(links, model.TopLink{
			Title:       it.Title,
			URL:         it.URL,
			Source:      it.SourceName,
			PublishedAt: it.PublishedAt,
		})
	}
	return links
}

func sortedCopy(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}
