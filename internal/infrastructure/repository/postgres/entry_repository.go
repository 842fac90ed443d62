package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
	"github.com/kirillkom/journal-assistant/internal/infrastructure/repository/entryquery"
)

// EntryRepository reads journal entries from Postgres. Lexical relevance
// comes from a weighted tsvector (title A, body B) ranked by ts_rank_cd.
type EntryRepository struct {
	db *sql.DB
}

func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

func (r *EntryRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *EntryRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS journal_entries (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	body TEXT NOT NULL,
	entry_date TIMESTAMPTZ NOT NULL,
	source_path TEXT NOT NULL DEFAULT '',
	source_type TEXT NOT NULL DEFAULT '',
	tags JSONB NOT NULL DEFAULT '[]'::jsonb,
	search_vector tsvector GENERATED ALWAYS AS (
		setweight(to_tsvector('simple', coalesce(title, '')), 'A') ||
		setweight(to_tsvector('simple', body), 'B')
	) STORED
);

CREATE INDEX IF NOT EXISTS idx_journal_entries_search ON journal_entries USING GIN (search_vector);
CREATE INDEX IF NOT EXISTS idx_journal_entries_date_id ON journal_entries(entry_date DESC, id DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// SearchText ranks entries matching any query term. Normalization flag 32
// maps ts_rank_cd into [0,1); snippets mark matches with **.
func (r *EntryRepository) SearchText(ctx context.Context, query string, limit int) ([]domain.EntryHit, error) {
	terms := entryquery.Terms(query)
	if len(terms) == 0 || limit <= 0 {
		return []domain.EntryHit{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT e.id, e.title, e.body, e.entry_date, e.source_path, e.source_type, e.tags,
	ts_rank_cd(e.search_vector, q, 32) AS rank,
	ts_headline('simple', e.body, q, 'StartSel=**, StopSel=**, MaxWords=35, MinWords=15, MaxFragments=1') AS snippet
FROM journal_entries e, to_tsquery('simple', $1) AS q
WHERE e.search_vector @@ q
ORDER BY rank DESC, e.entry_date DESC, e.id DESC
LIMIT $2
`, entryquery.TSQuery(terms), limit)
	if err != nil {
		return nil, fmt.Errorf("search entries: %w", err)
	}
	defer rows.Close()

	hits := make([]domain.EntryHit, 0, limit)
	for rows.Next() {
		var (
			entry   domain.Entry
			tagsRaw []byte
			rank    float64
			snippet string
		)
		if err := rows.Scan(
			&entry.ID, &entry.Title, &entry.Body, &entry.EntryDate, &entry.SourcePath, &entry.SourceType,
			&tagsRaw, &rank, &snippet,
		); err != nil {
			return nil, fmt.Errorf("scan entry hit: %w", err)
		}
		if err := json.Unmarshal(tagsRaw, &entry.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
		hits = append(hits, domain.EntryHit{Entry: entry, Snippet: snippet, Relevance: &rank})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entry hits: %w", err)
	}
	return hits, nil
}

// ListEntries pages through entries newest first. The returned cursor is
// empty on the last page.
func (r *EntryRepository) ListEntries(ctx context.Context, limit int, cursor string) ([]domain.Entry, string, error) {
	if limit <= 0 {
		return []domain.Entry{}, "", nil
	}
	after, hasCursor, err := entryquery.DecodeCursor(cursor)
	if err != nil {
		return nil, "", domain.WrapError(domain.ErrInvalidInput, "list entries", err)
	}

	const columns = `SELECT id, title, body, entry_date, source_path, source_type, tags FROM journal_entries`
	var rows *sql.Rows
	if hasCursor {
		rows, err = r.db.QueryContext(ctx, columns+`
WHERE (entry_date, id) < ($1, $2)
ORDER BY entry_date DESC, id DESC
LIMIT $3
`, after.EntryDate, after.ID, limit+1)
	} else {
		rows, err = r.db.QueryContext(ctx, columns+`
ORDER BY entry_date DESC, id DESC
LIMIT $1
`, limit+1)
	}
	if err != nil {
		return nil, "", fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.Entry, 0, limit+1)
	for rows.Next() {
		var entry domain.Entry
		var tagsRaw []byte
		if err := rows.Scan(
			&entry.ID, &entry.Title, &entry.Body, &entry.EntryDate, &entry.SourcePath, &entry.SourceType, &tagsRaw,
		); err != nil {
			return nil, "", fmt.Errorf("scan entry: %w", err)
		}
		if err := json.Unmarshal(tagsRaw, &entry.Tags); err != nil {
			return nil, "", fmt.Errorf("unmarshal tags: %w", err)
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
