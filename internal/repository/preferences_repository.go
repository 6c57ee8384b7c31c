package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Yev-ux/newsggl/internal/model"
)

// PreferencesRepository reads the user's watch list. The configuration
// collaborator owns the rows; the pipeline only reads them.
type PreferencesRepository struct {
	db *sql.DB
}

func NewPreferencesRepository(db *sql.DB) *PreferencesRepository {
	return &PreferencesRepository{db: db}
}

// Get returns the preferences for a user, or nil when none are stored.
// Tickers are normalized to uppercase.
func (r *PreferencesRepository) Get(userID string) (*model.Preferences, error) {
	var tickersJSON, topicsJSON []byte
	err := r.db.QueryRow(`
		SELECT tickers, topics FROM preferences WHERE user_id = $1
	`, userID).Scan(&tickersJSON, &topicsJSON)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var prefs model.Preferences
	if err := json.Unmarshal(tickersJSON, &prefs.Tickers); err != nil {
		return nil, fmt.Errorf("decode tickers: %w", err)
	}
	if err := json.Unmarshal(topicsJSON, &prefs.Topics); err != nil {
		return nil, fmt.Errorf("decode topics: %w", err)
	}

	for i, t := range prefs.Tickers {
		prefs.Tickers[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	return &prefs, nil
}
