// Package postgres implements storage.Repository on jackc/pgx.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"weaponstats/internal/storage"
)

// Repo is the Postgres-backed snapshot repository.
type Repo struct {
	pool *pgxpool.Pool
}

func init() {
	storage.Register("postgres", New)
}

// New creates a connection pool for cfg.DSN.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return &Repo{pool: pool}, nil
}

// Close closes the connection pool.
func (r *Repo) Close() { r.pool.Close() }

// EnsureSchema creates the snapshot table if it does not exist. Attributes
// land in JSONB so individual stats stay queryable in SQL.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	weapon TEXT PRIMARY KEY,
	attrs JSONB NOT NULL,
	extracted_at TIMESTAMPTZ NOT NULL
)`, storage.TableName)

	if _, err := r.pool.Exec(ctx, ddl); err != nil {
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

	sql, args := buildUpsertSQL(rows)
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("upsert %s: %w", storage.TableName, err)
	}
	return tag.RowsAffected(), nil
}

// buildUpsertSQL renders a multi-row upsert with $n placeholders. Split out
// so placeholder arithmetic stays unit testable without a live database.
func buildUpsertSQL(rows []storage.WeaponRow) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(storage.TableName)
	b.WriteString(" (weapon, attrs, extracted_at) VALUES ")

	args := make([]any, 0, len(rows)*3)
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "($%d, $%d, $%d)", i*3+1, i*3+2, i*3+3)
		args = append(args, row.Weapon, string(row.Attrs), row.ExtractedAt.UTC())
	}
	b.WriteString(" ON CONFLICT (weapon) DO UPDATE SET attrs = EXCLUDED.attrs, extracted_at = EXCLUDED.extracted_at")

	return b.String(), args
}
