package urllist

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS urls (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	kind       TEXT NOT NULL,
	url        TEXT NOT NULL,
	position   INTEGER NOT NULL,
	created_at TEXT NOT NULL DEFAULT (datetime('now')),
	UNIQUE(kind, url)
);
CREATE INDEX IF NOT EXISTS idx_urls_kind_position ON urls(kind, position);
`

// SQLiteStore persists the lists in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, kind Kind) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url FROM urls WHERE kind = ? ORDER BY position`, kind.String())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Lists implements Store.
func (s *SQLiteStore) Lists(ctx context.Context) (allow, deny []string, err error) {
	if allow, err = s.List(ctx, Allow); err != nil {
		return nil, nil, err
	}
	if deny, err = s.List(ctx, Deny); err != nil {
		return nil, nil, err
	}
	return allow, deny, nil
}

func usage(ctx context.Context, tx *sql.Tx) (Usage, error) {
	var bytes, items int
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(LENGTH(CAST(url AS BLOB))), 0), COUNT(*) FROM urls`).Scan(&bytes, &items)
	if err != nil {
		return Usage{}, fmt.Errorf("usage: %w", err)
	}
	u := computeUsage()
	u.Bytes, u.Items = bytes, items
	u.BytesPercent = float64(bytes) * 100 / QuotaBytes
	u.ItemsPercent = float64(items) * 100 / QuotaItems
	return u, nil
}

func contains(ctx context.Context, tx *sql.Tx, kind Kind, u string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM urls WHERE kind = ? AND url = ?`, kind.String(), u).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup: %w", err)
	}
	return n > 0, nil
}

// Add implements Store.
func (s *SQLiteStore) Add(ctx context.Context, kind Kind, rawURL string) error {
	u, err := Validate(rawURL)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	exists, err := contains(ctx, tx, kind, u)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrExists, u)
	}
	use, err := usage(ctx, tx)
	if err != nil {
		return err
	}
	if !use.fits(len(u), 1) {
		return ErrQuotaExceeded
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO urls (kind, url, position)
		SELECT ?, ?, COALESCE(MAX(position), 0) + 1 FROM urls WHERE kind = ?`,
		kind.String(), u, kind.String())
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return tx.Commit()
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, kind Kind, rawURL string) error {
	u, err := Validate(rawURL)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM urls WHERE kind = ? AND url = ?`, kind.String(), u)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, u)
	}
	return nil
}

// Update implements Store. The entry keeps its position.
func (s *SQLiteStore) Update(ctx context.Context, kind Kind, oldURL, newURL string) error {
	u, err := Validate(newURL)
	if err != nil {
		return err
	}
	if oldURL, err = Validate(oldURL); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	found, err := contains(ctx, tx, kind, oldURL)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, oldURL)
	}
	if u != oldURL {
		exists, err := contains(ctx, tx, kind, u)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrExists, u)
		}
	}
	use, err := usage(ctx, tx)
	if err != nil {
		return err
	}
	if !use.fits(len(u)-len(oldURL), 0) {
		return ErrQuotaExceeded
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE urls SET url = ? WHERE kind = ? AND url = ?`, u, kind.String(), oldURL); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	return tx.Commit()
}

// Clear implements Store.
func (s *SQLiteStore) Clear(ctx context.Context, kind Kind) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM urls WHERE kind = ?`, kind.String()); err != nil {
		return fmt.Errorf("clear %s: %w", kind, err)
	}
	return nil
}

// Replace implements Store.
func (s *SQLiteStore) Replace(ctx context.Context, kind Kind, urls []string) error {
	next, err := normalise(urls)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM urls WHERE kind = ?`, kind.String()); err != nil {
		return fmt.Errorf("clear %s: %w", kind, err)
	}
	use, err := usage(ctx, tx)
	if err != nil {
		return err
	}
	if !use.fits(computeUsage(next).Bytes, len(next)) {
		return ErrQuotaExceeded
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO urls (kind, url, position) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()
	for i, u := range next {
		if _, err := stmt.ExecContext(ctx, kind.String(), u, i+1); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
	}
	return tx.Commit()
}

// Usage implements Store.
func (s *SQLiteStore) Usage(ctx context.Context) (Usage, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Usage{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()
	return usage(ctx, tx)
}
