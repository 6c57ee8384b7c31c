package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Yev-ux/newsggl/internal/model"
)

// AccumulationRepository persists the day's merged item set and running
// statistics. One row per date; every invocation performs a read-merge-write
// against it.
type AccumulationRepository struct {
	db *sql.DB
}

func NewAccumulationRepository(db *sql.DB) *AccumulationRepository {
	return &AccumulationRepository{db: db}
}

// GetDay returns the accumulated items and stats for a date, or found=false
// when no invocation has written the date yet.
func (r *AccumulationRepository) GetDay(day string) ([]model.NewsItem, model.RunStats, bool, error) {
	var itemsJSON, statsJSON []byte
	err := r.db.QueryRow(`
		SELECT items, stats FROM daily_news WHERE day = $1
	`, day).Scan(&itemsJSON, &statsJSON)

	if err == sql.ErrNoRows {
		return nil, model.RunStats{}, false, nil
	}
	if err != nil {
		return nil, model.RunStats{}, false, err
	}

	var items []model.NewsItem
	if err := json.Unmarshal(itemsJSON, &items); err != nil {
		return nil, model.RunStats{}, false, fmt.Errorf("decode items for %s: %w", day, err)
	}

	var stats model.RunStats
	if err := json.Unmarshal(statsJSON, &stats); err != nil {
		return nil, model.RunStats{}, false, fmt.Errorf("decode stats for %s: %w", day, err)
	}

	return items, stats, true, nil
}

// UpsertDay replaces the date's items and stats, bumping the last-write
// timestamp. Last write wins; at most one invocation runs at a time.
func (r *AccumulationRepository) UpsertDay(day string, items []model.NewsItem, stats model.RunStats) error {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return err
	}
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		INSERT INTO daily_news(day, items, stats, updated_at)
		VALUES($1, $2, $3, NOW())
		ON CONFLICT (day) DO UPDATE
		SET items = EXCLUDED.items, stats = EXCLUDED.stats, updated_at = NOW()
	`, day, itemsJSON, statsJSON)
	return err
}
