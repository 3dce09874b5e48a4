package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver

	"github.com/user/vulnscan-adk/pkg/feed"
)

const schema = `CREATE TABLE IF NOT EXISTS records (
	id          TEXT PRIMARY KEY,
	description TEXT NOT NULL,
	cvss_score  REAL,
	severity    TEXT,
	published   TEXT
)`

// Catalog persists normalized feed records for lookup by id.
type Catalog struct {
	db *sql.DB
}

// Open opens (creating if needed) the catalog at dsn. A file path gets its
// parent directory created; ":memory:" is kept on a single connection.
func Open(dsn string) (*Catalog, error) {
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("catalog: create dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", dsn, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: create schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error { return c.db.Close() }

// Upsert inserts or replaces records in one transaction. Records without an
// id are skipped. It returns the number written.
func (c *Catalog) Upsert(ctx context.Context, records []feed.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO records(id, description, cvss_score, severity, published) VALUES(?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	n := 0
	for _, r := range records {
		if r.ID == "" || r.ID == feed.NotAvailable {
			continue
		}
		var published any
		if r.Published != nil {
			published = r.Published.UTC().Format(time.RFC3339Nano)
		}
		var score any
		if r.CVSSScore != nil {
			score = *r.CVSSScore
		}
		var severity any
		if r.Severity != nil {
			severity = *r.Severity
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Description, score, severity, published); err != nil {
			return n, fmt.Errorf("catalog: upsert %s: %w", r.ID, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// Lookup returns the record with the given id, reporting false when absent.
func (c *Catalog) Lookup(ctx context.Context, id string) (feed.Record, bool, error) {
	row := c.db.QueryRowContext(ctx, `SELECT id, description, cvss_score, severity, published FROM records WHERE id = ?`, id)
	var (
		rec       feed.Record
		score     sql.NullFloat64
		severity  sql.NullString
		published sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.Description, &score, &severity, &published); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return feed.Record{}, false, nil
		}
		return feed.Record{}, false, err
	}
	if score.Valid {
		v := score.Float64
		rec.CVSSScore = &v
	}
	if severity.Valid {
		v := severity.String
		rec.Severity = &v
	}
	if published.Valid {
		if t, err := time.Parse(time.RFC3339Nano, published.String); err == nil {
			rec.Published = &t
		}
	}
	return rec, true, nil
}

func (c *Catalog) Count(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n)
	return n, err
}
