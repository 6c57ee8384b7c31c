package digest

import (
	"fmt"
	"testing"
	"time"

	"github.com/Yev-ux/newsggl/internal/model"

	"github.com/go-playground/assert/v2"
)

func newsItem(url string, age time.Duration, matches int) model.NewsItem {
	it := model.NewsItem{
		Title:        "item " + url,
		URL:          url,
		CanonicalURL: url,
		SourceName:   "Test",
		PublishedAt:  time.Now().Add(-age),
	}
	for i := 0; i < matches; i++ {
		it.MatchedTickers = append(it.MatchedTickers, fmt.Sprintf("T%d", i))
	}
	return it
}

func TestMergeDedupsByURL(t *testing.T) {
	now := time.Now()
	batch := []model.NewsItem{
		newsItem("https://example.com/a", time.Hour, 1),
		newsItem("https://example.com/a", 2*time.Hour, 1),
		newsItem("https://example.com/b", time.Hour, 1),
	}

	merged, inserted := Merge(nil, batch, now)

	assert.Equal(t, 2, len(merged))
	assert.Equal(t, 2, inserted)

	seen := map[string]bool{}
	for _, it := range merged {
		if seen[it.CanonicalURL] {
			t.Fatalf("duplicate url %s in merged set", it.CanonicalURL)
		}
		seen[it.CanonicalURL] = true
	}
}

func TestMergeFreshestWins(t *testing.T) {
	now := time.Now()
	older := newsItem("https://example.com/a", 5*time.Hour, 1)
	newer := newsItem("https://example.com/a", 1*time.Hour, 1)

	merged, inserted := Merge([]model.NewsItem{older}, []model.NewsItem{newer}, now)

	assert.Equal(t, 1, len(merged))
	assert.Equal(t, 0, inserted)
	assert.Equal(t, newer.PublishedAt.Unix(), merged[0].PublishedAt.Unix())

	// Reversed order: the already-stored newer item survives.
	merged, _ = Merge([]model.NewsItem{newer}, []model.NewsItem{older}, now)
	assert.Equal(t, newer.PublishedAt.Unix(), merged[0].PublishedAt.Unix())
}

func TestMergeExcludesStaleItems(t *testing.T) {
	now := time.Now()
	batch := []model.NewsItem{
		newsItem("https://example.com/fresh", 2*time.Hour, 1),
		newsItem("https://example.com/stale", 25*time.Hour, 3),
	}

	merged, inserted := Merge(nil, batch, now)

	assert.Equal(t, 1, len(merged))
	assert.Equal(t, 1, inserted)
	assert.Equal(t, "https://example.com/fresh", merged[0].CanonicalURL)
}

func TestMergeOrdering(t *testing.T) {
	now := time.Now()
	batch := []model.NewsItem{
		newsItem("https://example.com/recent-single", 1*time.Hour, 1),
		newsItem("https://example.com/old-double", 20*time.Hour, 2),
		newsItem("https://example.com/older-single", 10*time.Hour, 1),
	}

	merged, _ := Merge(nil, batch, now)

	// More matches outrank any recency edge; within equal matches, newest first.
	assert.Equal(t, "https://example.com/old-double", merged[0].CanonicalURL)
	assert.Equal(t, "https://example.com/recent-single", merged[1].CanonicalURL)
	assert.Equal(t, "https://example.com/older-single", merged[2].CanonicalURL)
}

func TestMergeTruncates(t *testing.T) {
	now := time.Now()
	var batch []model.NewsItem
	for i := 0; i < MaxAccumulated+50; i++ {
		batch = append(batch, newsItem(fmt.Sprintf("https://example.com/%d", i), time.Hour, 1))
	}

	merged, inserted := Merge(nil, batch, now)

	assert.Equal(t, MaxAccumulated, len(merged))
	assert.Equal(t, MaxAccumulated+50, inserted)
}

func TestMergeTwoPages(t *testing.T) {
	// Two invocations against the same date: page one commits, page two
	// merges on top. Every URL appears once in the result.
	now := time.Now()
	pageOne := []model.NewsItem{
		newsItem("https://example.com/a", time.Hour, 1),
		newsItem("https://example.com/b", 2*time.Hour, 1),
	}
	pageTwo := []model.NewsItem{
		newsItem("https://example.com/b", 2*time.Hour, 1),
		newsItem("https://example.com/c", 3*time.Hour, 1),
	}

	accumulated, inserted := Merge(nil, pageOne, now)
	assert.Equal(t, 2, inserted)

	accumulated, inserted = Merge(accumulated, pageTwo, now)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 3, len(accumulated))
}

func TestMergeFallbackKeyWhenNoURL(t *testing.T) {
	now := time.Now()
	a := model.NewsItem{Title: "Same Headline", SourceName: "Wire", PublishedAt: now.Add(-time.Hour)}
	b := model.NewsItem{Title: "same headline", SourceName: "wire", PublishedAt: now.Add(-2 * time.Hour)}

	merged, _ := Merge(nil, []model.NewsItem{a, b}, now)
	assert.Equal(t, 1, len(merged))
}
