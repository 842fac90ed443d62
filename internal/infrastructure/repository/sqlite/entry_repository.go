// Package sqlite serves journal entries from a local SQLite database with
// an FTS5 index over title and body.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
	"github.com/kirillkom/journal-assistant/internal/infrastructure/repository/entryquery"
)

// DateLayout is the TEXT format of entry_date; it sorts lexicographically.
const DateLayout = "2006-01-02T15:04:05.000000000Z"

type EntryRepository struct {
	db *sql.DB
}

func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

func (r *EntryRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// OpenDB opens path, or a private in-memory database for ":memory:".
func OpenDB(path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	if path == ":memory:" {
		// Every new connection would see its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the tables and indexes any entries missing from the
// FTS index.
func (r *EntryRepository) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS entries (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	body TEXT NOT NULL,
	entry_date TEXT NOT NULL,
	source_path TEXT NOT NULL DEFAULT '',
	source_type TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_entries_date_id ON entries(entry_date DESC, id DESC);
CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(title, body, entry_id UNINDEXED);
`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO entries_fts (title, body, entry_id)
SELECT e.title, e.body, e.id
FROM entries e
WHERE NOT EXISTS (SELECT 1 FROM entries_fts f WHERE f.entry_id = e.id)
`)
	if err != nil {
		return fmt.Errorf("backfill fts index: %w", err)
	}
	return nil
}

// SearchText ranks by bm25, best first. FTS5 bm25 is negative with larger
// magnitude meaning better, so relevance is -bm25/(1-bm25) in [0,1).
func (r *EntryRepository) SearchText(ctx context.Context, query string, limit int) ([]domain.EntryHit, error) {
	terms := entryquery.Terms(query)
	if len(terms) == 0 || limit <= 0 {
		return []domain.EntryHit{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT e.id, e.title, e.body, e.entry_date, e.source_path, e.source_type, e.tags,
	bm25(entries_fts) AS score,
	snippet(entries_fts, 1, '', '', '...', 16) AS snip
FROM entries_fts
JOIN entries e ON e.id = entries_fts.entry_id
WHERE entries_fts MATCH ?
ORDER BY score ASC, e.entry_date DESC
LIMIT ?
`, entryquery.FTS5Match(terms), limit)
	if err != nil {
		return nil, fmt.Errorf("search entries: %w", err)
	}
	defer rows.Close()

	hits := make([]domain.EntryHit, 0, limit)
	for rows.Next() {
		var (
			entry   domain.Entry
			date    string
			tagsRaw string
			bm25    float64
			snippet string
		)
		if err := rows.Scan(
			&entry.ID, &entry.Title, &entry.Body, &date, &entry.SourcePath, &entry.SourceType, &tagsRaw, &bm25, &snippet,
		); err != nil {
			return nil, fmt.Errorf("scan entry hit: %w", err)
		}
		if err := decodeEntryFields(&entry, date, tagsRaw); err != nil {
			return nil, err
		}
		relevance := bm25Relevance(bm25)
		hits = append(hits, domain.EntryHit{Entry: entry, Snippet: strings.TrimSpace(snippet), Relevance: &relevance})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entry hits: %w", err)
	}
	return hits, nil
}

func (r *EntryRepository) ListEntries(ctx context.Context, limit int, cursor string) ([]domain.Entry, string, error) {
	if limit <= 0 {
		return []domain.Entry{}, "", nil
	}
	after, hasCursor, err := entryquery.DecodeCursor(cursor)
	if err != nil {
		return nil, "", domain.WrapError(domain.ErrInvalidInput, "list entries", err)
	}

	const columns = `SELECT id, title, body, entry_date, source_path, source_type, tags FROM entries`
	var rows *sql.Rows
	if hasCursor {
		rows, err = r.db.QueryContext(ctx, columns+`
WHERE entry_date < ? OR (entry_date = ? AND id < ?)
ORDER BY entry_date DESC, id DESC
LIMIT ?
`, FormatDate(after.EntryDate), FormatDate(after.EntryDate), after.ID, limit+1)
	} else {
		rows, err = r.db.QueryContext(ctx, columns+`
ORDER BY entry_date DESC, id DESC
LIMIT ?
`, limit+1)
	}
	if err != nil {
		return nil, "", fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.Entry, 0, limit+1)
	for rows.Next() {
		var entry domain.Entry
		var date, tagsRaw string
		if err := rows.Scan(&entry.ID, &entry.Title, &entry.Body, &date, &entry.SourcePath, &entry.SourceType, &tagsRaw); err != nil {
			return nil, "", fmt.Errorf("scan entry: %w", err)
		}
		if err := decodeEntryFields(&entry, date, tagsRaw); err != nil {
			return nil, "", err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("iterate entries: %w", err)
	}

	if len(entries) <= limit {
		return entries, "", nil
	}
	entries = entries[:limit]
	last := entries[limit-1]
	return entries, entryquery.EncodeCursor(entryquery.Cursor{EntryDate: last.EntryDate, ID: last.ID}), nil
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

func decodeEntryFields(entry *domain.Entry, date, tagsRaw string) error {
	ts, err := time.Parse(DateLayout, date)
	if err != nil {
		return fmt.Errorf("parse entry_date of %s: %w", entry.ID, err)
	}
	entry.EntryDate = ts
	if err := json.Unmarshal([]byte(tagsRaw), &entry.Tags); err != nil {
		return fmt.Errorf("unmarshal tags of %s: %w", entry.ID, err)
	}
	return nil
}

func bm25Relevance(score float64) float64 {
	if score >= 0 {
		return 0
	}
	return -score / (1 - score)
}
