package digest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Yev-ux/newsggl/internal/model"

	"github.com/go-playground/assert/v2"
)

func tickerItem(url, ticker string, age time.Duration) model.NewsItem {
	return model.NewsItem{
		Title:          "item " + url,
		URL:            url,
		CanonicalURL:   url,
		SourceName:     "Test",
		PublishedAt:    time.Now().Add(-age),
		MatchedTickers: []string{ticker},
	}
}

func TestBuildGroups(t *testing.T) {
	prefs := model.Preferences{Tickers: []string{"TSLA", "AAPL"}, Topics: []string{"crypto"}}
	items := []model.NewsItem{
		tickerItem("https://example.com/1", "AAPL", 3*time.Hour),
		tickerItem("https://example.com/2", "AAPL", 1*time.Hour),
		tickerItem("https://example.com/3", "TSLA", 2*time.Hour),
	}

	groups := BuildGroups(prefs, items)

	// Sorted tickers first, then topics; empty groups are kept.
	assert.Equal(t, 3, len(groups))
	assert.Equal(t, model.KindTicker, groups[0].Kind)
	assert.Equal(t, "AAPL", groups[0].Value)
	assert.Equal(t, 2, len(groups[0].Items))
	assert.Equal(t, "TSLA", groups[1].Value)
	assert.Equal(t, model.KindTopic, groups[2].Kind)
	assert.Equal(t, "crypto", groups[2].Value)
	assert.Equal(t, 0, len(groups[2].Items))

	// Newest first inside a group.
	assert.Equal(t, "https://example.com/2", groups[0].Items[0].CanonicalURL)
}

func TestSelectForPromptCountBound(t *testing.T) {
	var items []model.NewsItem
	for i := 0; i < 40; i++ {
		items = append(items, tickerItem(fmt.Sprintf("https://example.com/%d", i), "AAPL", time.Hour))
	}

	prefix := SelectForPrompt(items, 30, DefaultCharBudget)
	assert.Equal(t, 30, len(prefix))
}

func TestSelectForPromptCharBudget(t *testing.T) {
	long := strings.Repeat("x", 400)
	var items []model.NewsItem
	for i := 0; i < 10; i++ {
		it := tickerItem(fmt.Sprintf("https://example.com/%d", i), "AAPL", time.Hour)
		it.Title = long
		it.Description = long
		items = append(items, it)
	}

	// 800 chars per item, budget 2000: only the first two fit.
	prefix := SelectForPrompt(items, 30, 2000)
	assert.Equal(t, 2, len(prefix))
}

func TestSelectForPromptOversizedFirstItem(t *testing.T) {
	huge := tickerItem("https://example.com/huge", "AAPL", time.Hour)
	huge.Description = strings.Repeat("x", 20000)
	items := []model.NewsItem{
		huge,
		tickerItem("https://example.com/normal", "AAPL", 2*time.Hour),
	}

	prefix := SelectForPrompt(items, 30, DefaultCharBudget)
	assert.Equal(t, 1, len(prefix))
	assert.Equal(t, "https://example.com/huge", prefix[0].CanonicalURL)
}

func TestTopLinks(t *testing.T) {
	var items []model.NewsItem
	for i := 0; i < 8; i++ {
		items = append(items, tickerItem(fmt.Sprintf("https://example.com/%d", i), "AAPL", time.Duration(i)*time.Hour))
	}

	links := TopLinks(items)
	assert.Equal(t, 5, len(links))
	assert.Equal(t, "https://example.com/0", links[0].URL)
	assert.Equal(t, "Test", links[0].Source)

	assert.Equal(t, 2, len(TopLinks(items[:2])))
	assert.Equal(t, 0, len(TopLinks(nil)))
}
