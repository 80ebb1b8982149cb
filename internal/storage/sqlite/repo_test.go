package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"weaponstats/internal/storage"
)

func openTestRepo(t *testing.T) *Repo {
	t.Helper()

	repo, err := New(context.Background(), storage.Config{Kind: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(repo.Close)

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return repo.(*Repo)
}

// TestUpsertWeapons verifies insert-then-replace semantics on the weapon
// primary key: re-running a snapshot never accumulates duplicate rows.
func TestUpsertWeapons(t *testing.T) {
	t.Parallel()

	repo := openTestRepo(t)
	ctx := context.Background()

	first := []storage.WeaponRow{
		{Weapon: "Alpha", Attrs: []byte(`{"rateOfFire":600}`), ExtractedAt: time.Unix(1000, 0)},
		{Weapon: "Beta", Attrs: []byte(`{"rateOfFire":900}`), ExtractedAt: time.Unix(1000, 0)},
	}
	if _, err := repo.UpsertWeapons(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second := []storage.WeaponRow{
		{Weapon: "Alpha", Attrs: []byte(`{"rateOfFire":650}`), ExtractedAt: time.Unix(2000, 0)},
	}
	if _, err := repo.UpsertWeapons(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var count int
	if err := repo.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+storage.TableName).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("row count=%d, want 2 (upsert must replace, not append)", count)
	}

	var attrs string
	var extractedAt sql.NullString
	row := repo.db.QueryRowContext(ctx,
		"SELECT attrs, extracted_at FROM "+storage.TableName+" WHERE weapon = ?", "Alpha")
	if err := row.Scan(&attrs, &extractedAt); err != nil {
		t.Fatalf("select Alpha: %v", err)
	}
	if attrs != `{"rateOfFire":650}` {
		t.Fatalf("Alpha attrs=%s, want the replacement row", attrs)
	}

	// Timestamps round-trip as RFC3339Nano strings.
	if !extractedAt.Valid {
		t.Fatalf("extracted_at is NULL")
	}
	if _, err := time.Parse(time.RFC3339Nano, extractedAt.String); err != nil {
		t.Fatalf("extracted_at %q is not RFC3339Nano: %v", extractedAt.String, err)
	}
}

// TestUpsertWeapons_Empty verifies an empty batch is a no-op.
func TestUpsertWeapons_Empty(t *testing.T) {
	t.Parallel()

	repo := openTestRepo(t)
	n, err := repo.UpsertWeapons(context.Background(), nil)
	if err != nil || n != 0 {
		t.Fatalf("empty upsert=(%d,%v), want (0,nil)", n, err)
	}
}
