package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Yev-ux/newsggl/internal/model"
)

// SummaryRepository persists group summaries, one row per (day, kind, value).
type SummaryRepository struct {
	db *sql.DB
}

func NewSummaryRepository(db *sql.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// GetGroupSummary returns the stored row for a group, or nil when absent.
func (r *SummaryRepository) GetGroupSummary(day, kind, value string) (*model.GroupSummary, error) {
	row := r.db.QueryRow(`
		SELECT day, kind, value, bullets, top_links, items_count, model, created_at
		FROM group_summary
		WHERE day = $1 AND kind = $2 AND value = $3
	`, day, kind, value)

	summary, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// UpsertGroupSummary replaces the group's row. Sentinel rows written by an
// earlier pass are overwritten here when the group is recomputed.
func (r *SummaryRepository) UpsertGroupSummary(summary *model.GroupSummary) error {
	bullets, err := json.Marshal(summary.Bullets)
	if err != nil {
		return err
	}
	links, err := json.Marshal(summary.TopLinks)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		INSERT INTO group_summary(day, kind, value, bullets, top_links, items_count, model, created_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (day, kind, value) DO UPDATE
		SET bullets = EXCLUDED.bullets, top_links = EXCLUDED.top_links,
			items_count = EXCLUDED.items_count, model = EXCLUDED.model, created_at = NOW()
	`, summary.Day, summary.Kind, summary.Value, bullets, links, summary.ItemsCount, summary.Model)
	return err
}

// GetDaySummaries returns every group summary stored for a date, tickers
// before topics, values alphabetical.
func (r *SummaryRepository) GetDaySummaries(day string) ([]model.GroupSummary, error) {
	rows, err := r.db.Query(`
		SELECT day, kind, value, bullets, top_links, items_count, model, created_at
		FROM group_summary
		WHERE day = $1
		ORDER BY kind DESC, value ASC
	`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []model.GroupSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (*model.GroupSummary, error) {
	var s model.GroupSummary
	var bulletsJSON, linksJSON []byte
	err := row.Scan(&s.Day, &s.Kind, &s.Value, &bulletsJSON, &linksJSON, &s.ItemsCount, &s.Model, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(bulletsJSON, &s.Bullets); err != nil {
		return nil, fmt.Errorf("decode bullets: %w", err)
	}
	if err := json.Unmarshal(linksJSON, &s.TopLinks); err != nil {
		return nil, fmt.Errorf("decode top links: %w", err)
	}
	return &s, nil
}
