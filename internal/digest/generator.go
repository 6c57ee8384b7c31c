package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Yev-ux/newsggl/internal/model"
	"github.com/Yev-ux/newsggl/internal/retry"
	"github.com/Yev-ux/newsggl/pkg/llm"
)

// SummaryStore is the storage contract the generator needs: one row per
// (day, kind, value), replaced on conflict.
type SummaryStore interface {
	GetGroupSummary(day, kind, value string) (*model.GroupSummary, error)
	UpsertGroupSummary(summary *model.GroupSummary) error
}

// GeneratorConfig bounds the external calls.
type GeneratorConfig struct {
	Retry         retry.Config
	Throttle      time.Duration
	MaxGroupItems int
	CharBudget    int
}

// Generator produces one summary row per group, sequentially, with an
// unconditional throttle delay between groups. A group's failure never stops
// the remaining groups.
type Generator struct {
	client llm.Client
	store  SummaryStore
	cfg    GeneratorConfig
}

func NewGenerator(client llm.Client, store SummaryStore, cfg GeneratorConfig) *Generator {
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.DefaultConfig()
	}
	if cfg.MaxGroupItems == 0 {
		cfg.MaxGroupItems = DefaultMaxGroupItems
	}
	if cfg.CharBudget == 0 {
		cfg.CharBudget = DefaultCharBudget
	}
	return &Generator{client: client, store: store, cfg: cfg}
}

// GenStats counts what happened to each group in one pass.
type GenStats struct {
	Generated int
	Empty     int
	Failed    int
	Skipped   int
}

// Run summarizes every group for the given day. Groups that already hold a
// fresh summary are skipped outright; "none" and "openai_error" rows are
// recomputed.
func (g *Generator) Run(ctx context.Context, day string, groups []Group) GenStats {
	var stats GenStats
	for _, group := range groups {
		if ctx.Err() != nil {
			slog.Warn("summarization interrupted", "day", day, "remaining", len(groups)-stats.total())
			break
		}
		g.summarizeGroup(ctx, day, group, &stats)
		g.throttleWait(ctx)
	}
	return stats
}

func (s *GenStats) total() int {
	return s.Generated + s.Empty + s.Failed + s.Skipped
}

func (g *Generator) summarizeGroup(ctx context.Context, day string, group Group, stats *GenStats) {
	existing, err := g.store.GetGroupSummary(day, group.Kind, group.Value)
	if err != nil {
		slog.Error("error reading existing summary", "kind", group.Kind, "value", group.Value, "error", err)
		stats.Failed++
		return
	}
	if existing != nil && !existing.Recomputable() {
		slog.Info("summary already generated, skipping", "kind", group.Kind, "value", group.Value, "model", existing.Model)
		stats.Skipped++
		return
	}

	row := g.buildRow(ctx, day, group)
	if err := g.store.UpsertGroupSummary(row); err != nil {
		slog.Error("error saving summary", "kind", group.Kind, "value", group.Value, "error", err)
		stats.Failed++
		return
	}

	switch row.Outcome() {
	case model.OutcomeEmpty:
		stats.Empty++
	case model.OutcomeError:
		stats.Failed++
	default:
		stats.Generated++
	}
	slog.Info("summary saved", "kind", group.Kind, "value", group.Value, "model", row.Model, "items", row.ItemsCount, "bullets", len(row.Bullets))
}

func (g *Generator) buildRow(ctx context.Context, day string, group Group) *model.GroupSummary {
	row := &model.GroupSummary{
		Day:        day,
		Kind:       group.Kind,
		Value:      group.Value,
		ItemsCount: len(group.Items),
	}

	// Sparse data: no external call at all.
	if len(group.Items) < 2 {
		row.Bullets = emptyBullets(group.Value, len(group.Items))
		row.TopLinks = TopLinks(group.Items)
		row.Model = model.ModelNone
		return row
	}

	prefix := SelectForPrompt(group.Items, g.cfg.MaxGroupItems, g.cfg.CharBudget)
	row.TopLinks = TopLinks(prefix)

	req := llm.Request{Kind: group.Kind, Value: group.Value, Items: make([]llm.Item, 0, len(prefix))}
	for _, it := range prefix {
		req.Items = append(req.Items, llm.Item{
			Title:       it.Title,
			Description: it.Description,
			Source:      it.SourceName,
		})
	}

	var result *llm.Result
	err := retry.Do(ctx, g.cfg.Retry, func(ctx context.Context) error {
		r, callErr := g.client.Summarize(ctx, req)
		if callErr != nil {
			return callErr
		}
		result = r
		return nil
	})
	if err != nil {
		slog.Error("summary generation failed", "kind", group.Kind, "value", group.Value, "error", err)
		row.Bullets = errorBullets(group.Value, len(group.Items), err)
		row.Model = model.ModelError
		return row
	}

	if len(result.Bullets) < 2 {
		// The call succeeded but the model produced too little; degrade to
		// the deterministic bullets while keeping the real model name.
		row.Bullets = emptyBullets(group.Value, len(group.Items))
		row.Model = result.Model
		return row
	}

	row.Bullets = result.Bullets
	row.Model = result.Model
	return row
}

func (g *Generator) throttleWait(ctx context.Context) {
	if g.cfg.Throttle <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(g.cfg.Throttle):
	}
}

func emptyBullets(value string, count int) []string {
	return []string{
		fmt.Sprintf("No significant news for %s in the last 24 hours.", value),
		fmt.Sprintf("%d matched item(s) were collected today.", count),
	}
}

func errorBullets(value string, count int, err error) []string {
	return []string{
		fmt.Sprintf("News summary for %s is temporarily unavailable.", value),
		fmt.Sprintf("%d matched item(s) were collected today.", count),
		fmt.Sprintf("AI error: %s.", llm.Describe(err)),
	}
}
