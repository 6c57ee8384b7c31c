package digest

import (
	"sort"
	"time"

	"github.com/Yev-ux/newsggl/internal/model"
)

// MaxAccumulated bounds the day's item set regardless of how many feeds are
// configured.
const MaxAccumulated = 200

// freshnessWindow: items published earlier than this before "now" never enter
// the accumulation.
const freshnessWindow = 24 * time.Hour

// scoreMatchWeight makes one additional match outrank any possible timestamp
// difference (unix seconds stay below 2^32 for the foreseeable future).
const scoreMatchWeight = int64(1) << 32

// Merge folds a newly fetched batch into the previously accumulated set.
// Each distinct dedup key appears exactly once, the later-published item wins
// a conflict, and the result is sorted by (match count desc, publish time
// desc) and truncated to MaxAccumulated. Returns the merged set and how many
// batch items were new.
func Merge(existing, batch []model.NewsItem, now time.Time) ([]model.NewsItem, int) {
	cutoff := now.Add(-freshnessWindow)

	byKey := make(map[string]model.NewsItem, len(existing)+len(batch))
	for _, it := range existing {
		byKey[it.DedupKey()] = it
	}

	inserted := 0
	for _, it := range batch {
		if it.PublishedAt.Before(cutoff) {
			continue
		}
		key := it.DedupKey()
		cur, ok := byKey[key]
		if !ok {
			byKey[key] = it
			inserted++
			continue
		}
		if it.PublishedAt.After(cur.PublishedAt) {
			byKey[key] = it
		}
	}

	merged := make([]model.NewsItem, 0, len(byKey))
	for _, it := range byKey {
		merged = append(merged, it)
	}

	sort.Slice(merged, func(i, j int) bool {
		si, sj := relevance(merged[i]), relevance(merged[j])
		if si != sj {
			return si > sj
		}
		return merged[i].DedupKey() < merged[j].DedupKey()
	})

	if len(merged) > MaxAccumulated {
		merged = merged[:MaxAccumulated]
	}
	return merged, inserted
}

func relevance(it model.NewsItem) int64 {
	return int64(it.MatchCount())*scoreMatchWeight + it.PublishedAt.Unix()
}
