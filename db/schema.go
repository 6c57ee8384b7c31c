package db

// Schema is applied on startup by both binaries. Statements are idempotent,
// so concurrently starting processes are safe.
const schema = `
CREATE TABLE IF NOT EXISTS preferences (
	user_id    TEXT PRIMARY KEY,
	tickers    JSONB NOT NULL DEFAULT '[]',
	topics     JSONB NOT NULL DEFAULT '[]',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS daily_news (
	day        TEXT PRIMARY KEY,
	items      JSONB NOT NULL DEFAULT '[]',
	stats      JSONB NOT NULL DEFAULT '{}',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS group_summary (
	day         TEXT NOT NULL,
	kind        TEXT NOT NULL,
	value       TEXT NOT NULL,
	bullets     JSONB NOT NULL DEFAULT '[]',
	top_links   JSONB NOT NULL DEFAULT '[]',
	items_count INTEGER NOT NULL DEFAULT 0,
	model       TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (day, kind, value)
);

CREATE INDEX IF NOT EXISTS idx_group_summary_day ON group_summary(day);
`

// Migrate creates the tables when they are missing.
func Migrate() error {
	_, err := DB.Exec(schema)
	return err
}
