// Package mssql implements storage.Repository on Microsoft SQL Server.
package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"

	"weaponstats/internal/storage"
)

// Repo is the SQL Server-backed snapshot repository.
//
// Upserts use an UPDATE-then-INSERT pair inside one transaction rather
// than MERGE; MERGE's concurrency caveats buy nothing for a single-writer
// batch job.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("mssql", New)
}

// New opens (and pings) a SQL Server connection for cfg.DSN.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
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
	ddl := fmt.Sprintf(`IF OBJECT_ID(N'%[1]s', N'U') IS NULL
CREATE TABLE %[1]s (
	weapon NVARCHAR(256) NOT NULL PRIMARY KEY,
	attrs NVARCHAR(MAX) NOT NULL,
	extracted_at DATETIMEOFFSET NOT NULL
)`, storage.TableName)

	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", storage.TableName, err)
	}
	return nil
}

// UpsertWeapons writes rows one by one inside a transaction: UPDATE first,
// INSERT when nothing matched.
func (r *Repo) UpsertWeapons(ctx context.Context, rows []storage.WeaponRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	updateSQL := fmt.Sprintf(
		"UPDATE %s SET attrs = @p2, extracted_at = @p3 WHERE weapon = @p1",
		storage.TableName,
	)
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (weapon, attrs, extracted_at) VALUES (@p1, @p2, @p3)",
		storage.TableName,
	)

	var written int64
	for _, row := range rows {
		res, err := tx.ExecContext(ctx, updateSQL,
			row.Weapon, string(row.Attrs), row.ExtractedAt.UTC())
		if err != nil {
			return 0, fmt.Errorf("update %q: %w", row.Weapon, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected for %q: %w", row.Weapon, err)
		}
		if n == 0 {
			if _, err := tx.ExecContext(ctx, insertSQL,
				row.Weapon, string(row.Attrs), row.ExtractedAt.UTC()); err != nil {
				return 0, fmt.Errorf("insert %q: %w", row.Weapon, err)
			}
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return written, nil
}
