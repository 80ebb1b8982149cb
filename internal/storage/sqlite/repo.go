// Package sqlite implements storage.Repository on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"weaponstats/internal/storage"
)

// Repo is the SQLite-backed snapshot repository.
//
// SQLite has no native timestamp type; extracted_at is stored as an
// RFC3339Nano string for reliable round-trips and easy debugging.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("sqlite", New)
}

// New opens (and pings) a SQLite database at cfg.DSN.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

// Close closes the underlying database.
func (r *Repo) Close() { _ = r.db.Close() }

// EnsureSchema creates the snapshot table if it does not exist.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	weapon TEXT PRIMARY KEY,
	attrs TEXT NOT NULL,
	extracted_at TEXT NOT NULL
)`, storage.TableName)

	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", storage.TableName, err)
	}
	return nil
}

// UpsertWeapons writes rows with ON CONFLICT replacement on the weapon
// primary key.
func (r *Repo) UpsertWeapons(ctx context.Context, rows []storage.WeaponRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(storage.TableName)
	b.WriteString(" (weapon, attrs, extracted_at) VALUES ")

	args := make([]any, 0, len(rows)*3)
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?)")
		args = append(args,
			row.Weapon,
			string(row.Attrs),
			row.ExtractedAt.UTC().Format(time.RFC3339Nano),
		)
	}
	b.WriteString(" ON CONFLICT(weapon) DO UPDATE SET attrs = excluded.attrs, extracted_at = excluded.extracted_at")

	res, err := r.db.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("upsert %s: %w", storage.TableName, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		// The write succeeded; only the count is unavailable.
		return int64(len(rows)), nil
	}
	return n, nil
}
