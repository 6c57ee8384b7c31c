package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"time"

	"github.com/Yev-ux/newsggl/internal/config"
	"github.com/Yev-ux/newsggl/internal/digest"
	"github.com/Yev-ux/newsggl/internal/model"
	"github.com/Yev-ux/newsggl/pkg/feed"
)

// PreferencesStore reads the user's watch list.
type PreferencesStore interface {
	Get(userID string) (*model.Preferences, error)
}

// CheckpointStore is the per-date accumulation row the invocations share.
type CheckpointStore interface {
	GetDay(day string) ([]model.NewsItem, model.RunStats, bool, error)
	UpsertDay(day string, items []model.NewsItem, stats model.RunStats) error
}

// Params are the scheduler collaborator's invocation parameters. Limit 0
// means no fetching; Final triggers aggregation and summarization over
// whatever is accumulated for today.
type Params struct {
	Offset int
	Limit  int
	Final  bool
}

// Result reports what one invocation did.
type Result struct {
	Day         string
	Queries     int
	Fetched     int
	Inserted    int
	Accumulated int
	Gen         digest.GenStats
}

// Pipeline sequences one invocation: fetch a page of feed queries, normalize
// and match the entries, merge them into the day's checkpoint, and on a final
// pass aggregate and summarize the groups.
type Pipeline struct {
	cfg        *config.Config
	prefs      PreferencesStore
	checkpoint CheckpointStore
	fetcher    *feed.Fetcher
	generator  *digest.Generator

	now func() time.Time
}

func New(cfg *config.Config, prefs PreferencesStore, checkpoint CheckpointStore, fetcher *feed.Fetcher, generator *digest.Generator) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		prefs:      prefs,
		checkpoint: checkpoint,
		fetcher:    fetcher,
		generator:  generator,
		now:        time.Now,
	}
}

// Run executes one invocation. Only configuration problems (no preferences,
// missing credential on a final pass) are returned as errors; feed and
// summarization failures are isolated per query/group and reported through
// the stored content itself.
func (p *Pipeline) Run(ctx context.Context, params Params) (*Result, error) {
	if params.Offset < 0 || params.Limit < 0 {
		return nil, fmt.Errorf("pipeline: offset and limit must be non-negative")
	}
	if params.Final && p.cfg.Summarizer.APIKey == "" {
		return nil, fmt.Errorf("pipeline: summarizer api key is not configured")
	}

	prefs, err := p.prefs.Get(p.cfg.UserID)
	if err != nil {
		return nil, fmt.Errorf("pipeline: load preferences: %w", err)
	}
	if prefs == nil || (len(prefs.Tickers) == 0 && len(prefs.Topics) == 0) {
		return nil, fmt.Errorf("pipeline: no tickers or topics configured for user %s", p.cfg.UserID)
	}

	// The calendar date is fixed once per invocation in the reference
	// timezone and threaded down; a long run never straddles two dates.
	now := p.now()
	day := now.In(p.cfg.Location()).Format("2006-01-02")

	queries := BuildQueries(p.cfg, *prefs)
	result := &Result{Day: day, Queries: len(queries)}

	if params.Limit > 0 {
		page := paginate(queries, params.Offset, params.Limit)
		if err := p.fetchAndMerge(ctx, day, now, page, *prefs, result); err != nil {
			return nil, err
		}
	}

	if params.Final {
		items, _, _, err := p.checkpoint.GetDay(day)
		if err != nil {
			return nil, fmt.Errorf("pipeline: read accumulation: %w", err)
		}
		result.Accumulated = len(items)
		groups := digest.BuildGroups(*prefs, items)
		result.Gen = p.generator.Run(ctx, day, groups)
	}

	return result, nil
}

func (p *Pipeline) fetchAndMerge(ctx context.Context, day string, now time.Time, page []model.FeedQuery, prefs model.Preferences, result *Result) error {
	urls := make([]string, len(page))
	for i, q := range page {
		urls[i] = q.FeedURL
	}

	fetched := p.fetcher.FetchAll(ctx, urls)

	var batch []model.NewsItem
	queryCounts := make(map[string]int)
	for i, res := range fetched {
		q := page[i]
		label := q.Kind + ":" + q.Value
		if q.Kind == model.KindExtra {
			label = q.Kind + ":" + q.SourceName
		}
		if res.Err != nil {
			slog.Warn("feed unreachable, skipping for this pass", "feed", q.FeedURL, "error", res.Err)
			continue
		}
		entries := feed.Normalize(res.Body)
		queryCounts[label] += len(entries)
		for _, entry := range entries {
			batch = append(batch, digest.BuildItem(entry, q, prefs))
		}
	}
	result.Fetched = len(batch)

	existing, stats, _, err := p.checkpoint.GetDay(day)
	if err != nil {
		return fmt.Errorf("pipeline: read accumulation: %w", err)
	}

	merged, inserted := digest.Merge(existing, batch, now)
	result.Inserted = inserted
	result.Accumulated = len(merged)

	stats.Add(model.RunStats{
		FetchedTotal:  len(batch),
		InsertedCount: inserted,
		UniqueCount:   len(merged),
		QueryCounts:   queryCounts,
	})

	if err := p.checkpoint.UpsertDay(day, merged, stats); err != nil {
		return fmt.Errorf("pipeline: write accumulation: %w", err)
	}
	return nil
}

// BuildQueries instantiates the feed catalog against the preferences.
// Ordering is deterministic (sorted tickers, sorted topics, then extras) so
// offset/limit pagination stays stable across invocations.
func BuildQueries(cfg *config.Config, prefs model.Preferences) []model.FeedQuery {
	var queries []model.FeedQuery

	tickers := append([]string(nil), prefs.Tickers...)
	sort.Strings(tickers)
	for _, t := range tickers {
		queries = append(queries, model.FeedQuery{
			Kind:       model.KindTicker,
			Value:      t,
			FeedURL:    fmt.Sprintf(cfg.Feeds.TickerURL, url.QueryEscape(t)),
			SourceName: cfg.Feeds.TickerSource,
		})
	}

	topics := append([]string(nil), prefs.Topics...)
	sort.Strings(topics)
	for _, t := range topics {
		queries = append(queries, model.FeedQuery{
			Kind:       model.KindTopic,
			Value:      t,
			FeedURL:    fmt.Sprintf(cfg.Feeds.TopicURL, url.QueryEscape(t)),
			SourceName: cfg.Feeds.TopicSource,
		})
	}

	for _, extra := range cfg.Feeds.Extra {
		queries = append(queries, model.FeedQuery{
			Kind:       model.KindExtra,
			FeedURL:    extra.URL,
			SourceName: extra.Name,
		})
	}

	return queries
}

func paginate(queries []model.FeedQuery, offset, limit int) []model.FeedQuery {
	if offset >= len(queries) {
		return nil
	}
	end := offset + limit
	if end > len(queries) {
		end = len(queries)
	}
	return queries[offset:end]
}
