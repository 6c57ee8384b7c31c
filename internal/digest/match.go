package digest

import (
	"strings"

	"github.com/Yev-ux/newsggl/internal/model"
	"github.com/Yev-ux/newsggl/pkg/feed"
)

// BuildItem turns one normalized feed entry into a NewsItem tagged with the
// tickers/topics it satisfies. Matching happens exactly once, here, and is
// stored with the item: it is frozen against the preference set active at
// ingestion and never recomputed.
func BuildItem(entry feed.Item, query model.FeedQuery, prefs model.Preferences) model.NewsItem {
	canonical := feed.CanonicalURL(entry.Link)
	item := model.NewsItem{
		Title:        entry.Title,
		Description:  entry.Description,
		URL:          entry.Link,
		CanonicalURL: canonical,
		PublishedAt:  entry.PublishedAt,
		SourceName:   query.SourceName,
		Fingerprint:  feed.Fingerprint(canonical),
	}

	switch query.Kind {
	case model.KindTicker:
		item.MatchedTickers = []string{query.Value}
	case model.KindTopic:
		item.MatchedTopics = []string{query.Value}
	case model.KindExtra:
		// General market feed: scan the title against every configured
		// ticker and topic. Zero, one, or many matches are all fine.
		title := strings.ToLower(entry.Title)
		for _, t := range prefs.Tickers {
			if strings.Contains(title, strings.ToLower(t)) {
				item.MatchedTickers = append(item.MatchedTickers, t)
			}
		}
		for _, t := range prefs.Topics {
			if strings.Contains(title, strings.ToLower(t)) {
				item.MatchedTopics = append(item.MatchedTopics, t)
			}
		}
	}

	return item
}
